package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sv4u/tidaldl/tidal"
)

// Transcoder finalizes downloaded streams into their target containers.
// Lossless tiers arrive as FLAC inside an MP4 container and are extracted;
// lossy tiers are remuxed into a clean .m4a. Audio is never re-encoded,
// only the container changes.
type Transcoder struct {
	binary string
}

// NewTranscoder creates a transcoder using the ffmpeg binary on PATH.
func NewTranscoder() *Transcoder {
	return &Transcoder{binary: "ffmpeg"}
}

func (t *Transcoder) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, t.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 200 {
			detail = detail[len(detail)-200:]
		}
		return &TranscodeError{Message: fmt.Sprintf("ffmpeg %s: %s", args[len(args)-1], detail), Original: err}
	}
	return nil
}

// Finalize converts the raw downloaded stream at rawPath into the container
// for the given tier and returns the new path. The raw file is removed on
// success.
func (t *Transcoder) Finalize(ctx context.Context, rawPath string, quality tidal.Quality) (string, error) {
	out := strings.TrimSuffix(rawPath, ".raw") + quality.Ext()
	if err := t.run(ctx, "-y", "-i", rawPath, "-c", "copy", out); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	if err := os.Remove(rawPath); err != nil {
		return "", &TranscodeError{Message: "removing raw stream", Original: err}
	}
	return out, nil
}

// EmbedTags rewrites the file with container-level metadata. Used for FLAC
// and MP4 containers, where the id3v2 writer does not apply. coverPath, if
// non-empty, is attached as the front cover. The original file is replaced
// atomically.
func (t *Transcoder) EmbedTags(ctx context.Context, path string, tags map[string]string, coverPath string) error {
	tmp := path + ".tagged" + pathExt(path)
	args := []string{"-y", "-i", path}
	if coverPath != "" {
		args = append(args, "-i", coverPath, "-map", "0:a", "-map", "1", "-disposition:v:0", "attached_pic")
	}
	args = append(args, "-c", "copy")
	for key, value := range tags {
		if value == "" {
			continue
		}
		args = append(args, "-metadata", key+"="+value)
	}
	args = append(args, tmp)
	if err := t.run(ctx, args...); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &TranscodeError{Message: "replacing tagged file", Original: err}
	}
	return nil
}

// Installed reports whether ffmpeg can be invoked.
func (t *Transcoder) Installed() bool {
	return exec.Command(t.binary, "-version").Run() == nil
}

func pathExt(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx:]
	}
	return ""
}
