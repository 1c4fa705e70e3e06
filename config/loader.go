package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file, applies defaults and environment
// overrides, and validates the result. A missing file is not an error;
// defaults plus the environment must then carry the required values.
func Load(path string) (*Settings, error) {
	// Pick up a local .env file when present, for secrets.
	_ = godotenv.Load()

	settings := &Settings{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, &ConfigError{Message: fmt.Sprintf("Error reading configuration file: %v", err)}
	default:
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, &ConfigError{Message: fmt.Sprintf("Error parsing YAML file: %v", err)}
		}
	}

	settings.SetDefaults()
	applyEnv(settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyEnv lets the environment override secret-bearing fields so they
// can stay out of the configuration file.
func applyEnv(settings *Settings) {
	if token := os.Getenv("TIDAL_TOKEN"); token != "" {
		settings.Token = token
	}
	if id := os.Getenv("TIDAL_USER_ID"); id != "" {
		settings.UserID = id
	}
	if id := os.Getenv("SPOTIFY_CLIENT_ID"); id != "" {
		settings.Spotify.ClientID = id
	}
	if secret := os.Getenv("SPOTIFY_CLIENT_SECRET"); secret != "" {
		settings.Spotify.ClientSecret = secret
	}
	if key := os.Getenv("GETSONGBPM_API_KEY"); key != "" {
		settings.GetSongBPMKey = key
	}
}
