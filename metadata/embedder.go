// Package metadata writes tags into finished audio files. MP3 uses an
// in-process id3v2 writer; FLAC and MP4 containers go through ffmpeg.
package metadata

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ContainerTagger rewrites container-level metadata, for formats the
// id3v2 writer does not cover.
type ContainerTagger interface {
	EmbedTags(ctx context.Context, path string, tags map[string]string, coverPath string) error
}

// Embedder embeds metadata into audio files.
type Embedder struct {
	tagger ContainerTagger
	client *http.Client
}

// NewEmbedder creates a metadata embedder backed by the given container
// tagger.
func NewEmbedder(tagger ContainerTagger) *Embedder {
	return &Embedder{
		tagger: tagger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Embed writes the tag set into the file at path, dispatching on the file
// extension. Cover art failures are logged and skipped, never fatal.
func (e *Embedder) Embed(ctx context.Context, path string, tags Tags) error {
	if err := ctx.Err(); err != nil {
		return &TagError{Message: "context cancelled", Original: err}
	}
	if _, err := os.Stat(path); err != nil {
		return &TagError{Message: fmt.Sprintf("file not found: %s", path), Original: err}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "mp3":
		return e.embedMP3(ctx, path, tags)
	case "flac", "m4a", "mp4":
		return e.embedContainer(ctx, path, tags)
	default:
		log.Printf("WARN: metadata_unsupported_format file=%s format=%s", path, ext)
		return nil
	}
}

// embedContainer handles FLAC and MP4 files via the container tagger.
func (e *Embedder) embedContainer(ctx context.Context, path string, tags Tags) error {
	var coverPath string
	if tags.CoverURL != "" {
		var err error
		coverPath, err = e.fetchCover(ctx, tags.CoverURL)
		if err != nil {
			log.Printf("WARN: cover_art_download_failed file=%s cover_url=%s error=%v", path, tags.CoverURL, err)
		}
		defer func() {
			if coverPath != "" {
				_ = os.Remove(coverPath)
			}
		}()
	}
	if err := e.tagger.EmbedTags(ctx, path, containerTags(tags), coverPath); err != nil {
		return &TagError{Message: fmt.Sprintf("embedding container metadata: %s", path), Original: err}
	}
	return nil
}

// fetchCover downloads cover art to a temporary file and returns its path.
func (e *Embedder) fetchCover(ctx context.Context, coverURL string) (string, error) {
	data, err := e.fetchCoverData(ctx, coverURL)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp("", "cover_*.jpg")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing cover art: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmp.Name(), nil
}

func (e *Embedder) fetchCoverData(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading cover art: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading cover art: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
