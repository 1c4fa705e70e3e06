package ffmpeg

import "fmt"

// ProbeError represents a probe failure: the tool is missing, timed out, or
// could not parse the container.
type ProbeError struct {
	Message  string
	Original error
}

func (e *ProbeError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("probe error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("probe error: %s", e.Message)
}

func (e *ProbeError) Unwrap() error {
	return e.Original
}

// TranscodeError represents a transcoding failure. It is fatal to the item
// being processed.
type TranscodeError struct {
	Message  string
	Original error
}

func (e *TranscodeError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("transcode error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("transcode error: %s", e.Message)
}

func (e *TranscodeError) Unwrap() error {
	return e.Original
}
