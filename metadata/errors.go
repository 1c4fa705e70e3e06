package metadata

import "fmt"

// TagError represents a metadata embedding error.
type TagError struct {
	Message  string
	Original error
}

func (e *TagError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

func (e *TagError) Unwrap() error {
	return e.Original
}
