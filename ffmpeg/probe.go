// Package ffmpeg wraps the external ffmpeg/ffprobe tools. All invocations
// go through os/exec with the caller's context.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeInfo is the subset of ffprobe output the verifier relies on.
type ProbeInfo struct {
	DurationSeconds float64
	HasAudioStream  bool
	Codec           string
	SampleRate      int
	BitDepth        int
	Channels        int
}

// Prober runs ffprobe against local files.
type Prober struct {
	binary string
}

// NewProber creates a prober using the ffprobe binary on PATH.
func NewProber() *Prober {
	return &Prober{binary: "ffprobe"}
}

type probeOutput struct {
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		SampleRate    string `json:"sample_rate"`
		Channels      int    `json:"channels"`
		BitsPerSample int    `json:"bits_per_raw_sample,string"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe parses the container at path. An unparseable container, a missing
// binary, or a file with no audio stream is a ProbeError.
func (p *Prober) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
			if len(detail) > 200 {
				detail = detail[:200]
			}
		}
		return ProbeInfo{}, &ProbeError{Message: fmt.Sprintf("ffprobe failed on %s: %s", path, detail), Original: err}
	}

	var parsed probeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return ProbeInfo{}, &ProbeError{Message: "parsing ffprobe output", Original: err}
	}

	info := ProbeInfo{}
	info.DurationSeconds, _ = strconv.ParseFloat(parsed.Format.Duration, 64)
	for _, stream := range parsed.Streams {
		if stream.CodecType != "audio" || stream.CodecName == "" {
			continue
		}
		info.HasAudioStream = true
		info.Codec = stream.CodecName
		info.Channels = stream.Channels
		info.BitDepth = stream.BitsPerSample
		info.SampleRate, _ = strconv.Atoi(stream.SampleRate)
		break
	}
	return info, nil
}

// Installed reports whether ffprobe can be invoked.
func (p *Prober) Installed() bool {
	return exec.Command(p.binary, "-version").Run() == nil
}
