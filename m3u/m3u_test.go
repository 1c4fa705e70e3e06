package m3u

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteRelativePaths(t *testing.T) {
	root := t.TempDir()
	entries := []Entry{
		{
			Path:     filepath.Join(root, "Daft Punk", "Discovery", "01. One More Time.flac"),
			Artist:   "Daft Punk",
			Title:    "One More Time",
			Duration: 320,
		},
		{
			Path:     filepath.Join(root, "Daft Punk", "Discovery", "02. Aerodynamic.flac"),
			Artist:   "Daft Punk",
			Title:    "Aerodynamic",
			Duration: 212,
		},
	}

	file, err := Write(filepath.Join(root, "playlists", "Favorites.m3u"), "", entries)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	want := []string{
		"#EXTM3U",
		"#EXTINF:320,Daft Punk - One More Time",
		filepath.Join("..", "Daft Punk", "Discovery", "01. One More Time.flac"),
		"#EXTINF:212,Daft Punk - Aerodynamic",
		filepath.Join("..", "Daft Punk", "Discovery", "02. Aerodynamic.flac"),
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d: expected %q, got %q", i, line, lines[i])
		}
	}
}

func TestWriteOwnerSubfolder(t *testing.T) {
	root := t.TempDir()
	entries := []Entry{{Path: filepath.Join(root, "track.flac"), Artist: "A", Title: "T", Duration: 1}}

	file, err := Write(filepath.Join(root, "Mix.m3u"), "user/with:bad*chars", entries)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	want := filepath.Join(root, "user_with_bad_chars", "Mix.m3u")
	if file != want {
		t.Fatalf("expected %q, got %q", want, file)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("playlist file missing: %v", err)
	}
}

func TestWriteAddsExtension(t *testing.T) {
	root := t.TempDir()
	entries := []Entry{{Path: filepath.Join(root, "track.flac"), Artist: "A", Title: "T", Duration: 1}}

	file, err := Write(filepath.Join(root, "Morning Mix"), "", entries)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(file, "Morning Mix.m3u") {
		t.Fatalf("expected .m3u suffix, got %q", file)
	}
}

func TestWriteEmptySkipped(t *testing.T) {
	root := t.TempDir()
	file, err := Write(filepath.Join(root, "Empty.m3u"), "", nil)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if file != "" {
		t.Fatalf("expected no file for empty playlist, got %q", file)
	}
	if _, err := os.Stat(filepath.Join(root, "Empty.m3u")); !os.IsNotExist(err) {
		t.Fatal("empty playlist must not create a file")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"":            "Unknown",
		"???":         "Unknown",
		"normal name": "normal name",
		"a<b>c":       "a_b_c",
	}
	for input, want := range cases {
		if got := SafeName(input); got != want {
			t.Errorf("SafeName(%q) = %q, want %q", input, got, want)
		}
	}
}
