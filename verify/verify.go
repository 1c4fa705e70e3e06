// Package verify decides whether an existing file on disk is acceptable or
// must be redownloaded. Results are recomputed every run, never persisted.
package verify

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/sv4u/tidaldl/ffmpeg"
)

// Result classifies an existing destination file.
type Result int

const (
	// Absent means no file exists at the path.
	Absent Result = iota
	// Valid means the file passes every integrity check.
	Valid
	// Corrupt means the file exists but must be deleted and redownloaded.
	Corrupt
)

func (r Result) String() string {
	switch r {
	case Absent:
		return "absent"
	case Valid:
		return "valid"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Prober is the external probe collaborator.
type Prober interface {
	Probe(ctx context.Context, path string) (ffmpeg.ProbeInfo, error)
}

const (
	// DurationTolerance is the allowed drift between probed and expected
	// duration, in seconds.
	DurationTolerance = 2.0
	// minFileSize rejects stub files that cannot hold real audio.
	minFileSize = 1024
	// minDuration rejects streams that are effectively empty.
	minDuration = 1.0
)

// Verifier checks existing files against the expected item attributes.
type Verifier struct {
	prober  Prober
	enabled bool
}

// NewVerifier creates a verifier. When enabled is false the probe is
// skipped and any present non-empty file counts as Valid (fast-skip mode).
func NewVerifier(prober Prober, enabled bool) *Verifier {
	return &Verifier{prober: prober, enabled: enabled}
}

// Verify classifies the file at path. expectedDuration is the item duration
// in seconds; zero disables the duration check. The returned reason is
// empty unless the file is Corrupt.
func (v *Verifier) Verify(ctx context.Context, path string, expectedDuration int) (Result, string) {
	info, err := os.Stat(path)
	if err != nil {
		return Absent, ""
	}
	if info.Size() == 0 {
		return Corrupt, "file is empty"
	}

	if !v.enabled {
		// Fast-skip mode: presence is enough.
		return Valid, ""
	}

	if info.Size() < minFileSize {
		return Corrupt, fmt.Sprintf("file too small (%d bytes)", info.Size())
	}

	probed, err := v.prober.Probe(ctx, path)
	if err != nil {
		return Corrupt, fmt.Sprintf("unparseable container: %v", err)
	}
	if !probed.HasAudioStream {
		return Corrupt, "no audio stream"
	}
	if probed.DurationSeconds < minDuration {
		return Corrupt, fmt.Sprintf("duration too short (%.1fs)", probed.DurationSeconds)
	}
	if expectedDuration > 0 {
		drift := math.Abs(probed.DurationSeconds - float64(expectedDuration))
		if drift > DurationTolerance {
			return Corrupt, fmt.Sprintf("duration mismatch: expected %ds, got %.1fs", expectedDuration, probed.DurationSeconds)
		}
	}
	return Valid, ""
}
