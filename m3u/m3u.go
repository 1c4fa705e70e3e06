// Package m3u writes extended M3U playlist files. Entries use paths
// relative to the playlist file so the library stays portable when the
// root directory moves.
package m3u

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one playlist line: where the file landed and what to display.
type Entry struct {
	Path     string
	Artist   string
	Title    string
	Duration int
}

// Write saves entries to an M3U file at path. When owner is non-empty the
// file is placed in an owner subfolder next to the given path. Returns the
// final file path.
func Write(path, owner string, entries []Entry) (string, error) {
	file := path
	if owner != "" {
		dir, name := filepath.Split(path)
		file = filepath.Join(dir, SafeName(owner), name)
	}
	if ext := filepath.Ext(file); ext != ".m3u" {
		file = strings.TrimSuffix(file, ext) + ".m3u"
	}

	if len(entries) == 0 {
		log.Printf("WARN: m3u_skipped file=%s reason=no_entries", file)
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return "", fmt.Errorf("creating playlist directory: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("#EXTM3U\n")
	for _, entry := range entries {
		display := entry.Path
		if rel, err := filepath.Rel(filepath.Dir(file), entry.Path); err == nil {
			display = rel
		}
		fmt.Fprintf(&builder, "#EXTINF:%d,%s - %s\n%s\n", entry.Duration, entry.Artist, entry.Title, display)
	}

	if err := os.WriteFile(file, []byte(builder.String()), 0644); err != nil {
		return "", fmt.Errorf("writing playlist file: %w", err)
	}
	log.Printf("INFO: m3u_written file=%s entries=%d", file, len(entries))
	return file, nil
}

// SafeName makes a creator or playlist name safe to use as a path segment.
func SafeName(name string) string {
	if name == "" {
		return "Unknown"
	}
	out := name
	for _, char := range `<>:"/\|?*` {
		out = strings.ReplaceAll(out, string(char), "_")
	}
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	out = strings.Trim(strings.TrimSpace(out), "_")
	if out == "" {
		return "Unknown"
	}
	return out
}
