package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sv4u/tidaldl/tidal"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TIDAL_TOKEN", "env-token")

	settings, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if settings.Token != "env-token" {
		t.Errorf("expected env token, got %q", settings.Token)
	}
	if settings.Quality != "HIGH" {
		t.Errorf("expected default quality HIGH, got %q", settings.Quality)
	}
	if settings.Threads != 4 {
		t.Errorf("expected default threads 4, got %d", settings.Threads)
	}
	if settings.SavePlaylists == nil || !*settings.SavePlaylists {
		t.Error("expected playlists enabled by default")
	}
	if settings.Tier() != tidal.QualityHigh {
		t.Errorf("expected HIGH tier, got %v", settings.Tier())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("TIDAL_TOKEN", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
token: file-token
quality: MAX
threads: 8
skip_errors: true
save_playlists: false
track_template: "{item.artist} - {item.title}"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Token != "file-token" {
		t.Errorf("expected file token, got %q", settings.Token)
	}
	if settings.Tier() != tidal.QualityMax {
		t.Errorf("expected MAX tier, got %v", settings.Tier())
	}
	if !settings.SkipErrors {
		t.Error("expected skip_errors true")
	}
	if *settings.SavePlaylists {
		t.Error("expected save_playlists false to survive defaulting")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TIDAL_TOKEN", "env-token")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("token: file-token\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Token != "env-token" {
		t.Errorf("environment must win, got %q", settings.Token)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"missing token", func(s *Settings) { s.Token = "" }},
		{"bad quality", func(s *Settings) { s.Quality = "ULTRA" }},
		{"threads too high", func(s *Settings) { s.Threads = 64 }},
		{"template without title", func(s *Settings) { s.TrackTemplate = "{item.artist}" }},
		{"unparseable template", func(s *Settings) { s.TrackTemplate = "{item.title} {broken" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := &Settings{Token: "x"}
			settings.SetDefaults()
			tc.mutate(settings)
			err := settings.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if _, ok := err.(*ConfigError); !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
		})
	}
}
