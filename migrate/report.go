package migrate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// writeReport saves the per-track migration outcomes as a CSV file named
// after the playlist and run id. Returns the file path.
func writeReport(dir string, result *Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("migrate_%s_%s.csv", safeFileName(result.Title), result.RunID)
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"position", "spotify_id", "title", "artist", "isrc", "status", "tidal_id", "reason"}); err != nil {
		return "", err
	}
	for _, track := range result.Tracks {
		row := []string{
			strconv.Itoa(track.Position),
			track.Source.ID,
			track.Source.Title,
			strings.Join(track.Source.Artists, "; "),
			track.Source.ISRC,
			string(track.Status),
			track.TidalID,
			track.Reason,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return path, nil
}

func safeFileName(name string) string {
	out := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	out = strings.Trim(out, "_")
	if out == "" {
		return "playlist"
	}
	return out
}
