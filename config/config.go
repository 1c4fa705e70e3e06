// Package config holds the application settings loaded from the YAML
// configuration file, with secrets supplied through the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/sv4u/tidaldl/template"
	"github.com/sv4u/tidaldl/tidal"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// SpotifySettings holds the credentials for the migration flow.
type SpotifySettings struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Settings is the full application configuration.
type Settings struct {
	// Token authenticates against the streaming service. Usually supplied
	// via the TIDAL_TOKEN environment variable rather than the file.
	Token       string `yaml:"token"`
	UserID      string `yaml:"user_id"`
	CountryCode string `yaml:"country_code"`

	Quality      string `yaml:"quality"`
	Threads      int    `yaml:"threads"`
	DownloadPath string `yaml:"download_path"`
	CacheDir     string `yaml:"cache_dir"`

	TrackTemplate    string `yaml:"track_template"`
	VideoTemplate    string `yaml:"video_template"`
	PlaylistTemplate string `yaml:"playlist_template"`

	SavePlaylists *bool  `yaml:"save_playlists"`
	PlaylistDir   string `yaml:"playlist_dir"`

	SkipErrors bool `yaml:"skip_errors"`
	SkipVerify bool `yaml:"skip_verify"`

	Enrich         bool   `yaml:"enrich"`
	UseMusicBrainz *bool  `yaml:"use_musicbrainz"`
	GetSongBPMKey  string `yaml:"getsongbpm_api_key"`

	Spotify SpotifySettings `yaml:"spotify"`

	// Streaming service API rate limit budget.
	APIRateLimitEnabled  *bool   `yaml:"api_rate_limit_enabled"`
	APIRateLimitRequests int     `yaml:"api_rate_limit_requests"`
	APIRateLimitWindow   float64 `yaml:"api_rate_limit_window"`
}

// SetDefaults fills unset fields with working defaults.
func (s *Settings) SetDefaults() {
	if s.CountryCode == "" {
		s.CountryCode = "US"
	}
	if s.Quality == "" {
		s.Quality = "HIGH"
	}
	if s.Threads == 0 {
		s.Threads = 4
	}
	if s.DownloadPath == "" {
		s.DownloadPath = "music"
	}
	if s.CacheDir == "" {
		s.CacheDir = ".tidaldl"
	}
	if s.TrackTemplate == "" {
		s.TrackTemplate = "{album.artist}/{album.title}/{item.number:02d}. {item.title}"
	}
	if s.VideoTemplate == "" {
		s.VideoTemplate = "{item.artist}/videos/{item.title}"
	}
	if s.PlaylistTemplate == "" {
		s.PlaylistTemplate = "{playlist.title}/{playlist.number:02d}. {item.artist} - {item.title}"
	}
	if s.SavePlaylists == nil {
		enabled := true
		s.SavePlaylists = &enabled
	}
	if s.PlaylistDir == "" {
		s.PlaylistDir = "playlists"
	}
	if s.UseMusicBrainz == nil {
		enabled := true
		s.UseMusicBrainz = &enabled
	}
	if s.APIRateLimitEnabled == nil {
		enabled := true
		s.APIRateLimitEnabled = &enabled
	}
	if s.APIRateLimitRequests == 0 {
		s.APIRateLimitRequests = 10
	}
	if s.APIRateLimitWindow == 0 {
		s.APIRateLimitWindow = 1.0
	}
}

// Validate checks the settings, returning a ConfigError on the first
// problem found.
func (s *Settings) Validate() error {
	s.Token = strings.TrimSpace(s.Token)
	if s.Token == "" {
		return &ConfigError{Message: "Missing API token. Set token in the configuration file or the TIDAL_TOKEN environment variable"}
	}

	if _, err := tidal.ParseQuality(s.Quality); err != nil {
		return &ConfigError{Message: fmt.Sprintf("Invalid quality: %v", err)}
	}

	if s.Threads < 1 || s.Threads > 16 {
		return &ConfigError{Message: fmt.Sprintf("Invalid threads: %d. Must be between 1 and 16", s.Threads)}
	}

	if !strings.Contains(s.TrackTemplate, "{item.title}") {
		return &ConfigError{Message: "track_template must contain the {item.title} placeholder"}
	}

	templates := map[string]string{
		"track_template":    s.TrackTemplate,
		"video_template":    s.VideoTemplate,
		"playlist_template": s.PlaylistTemplate,
	}
	for name, raw := range templates {
		if _, err := template.Parse(raw); err != nil {
			return &ConfigError{Message: fmt.Sprintf("Invalid %s: %v", name, err)}
		}
	}
	return nil
}

// Tier returns the configured quality tier. Call only after Validate.
func (s *Settings) Tier() tidal.Quality {
	tier, err := tidal.ParseQuality(s.Quality)
	if err != nil {
		return tidal.QualityHigh
	}
	return tier
}
