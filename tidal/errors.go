package tidal

import "fmt"

// NotFoundError reports an unresolvable reference (404 or invalid id).
// It is fatal to the whole resolution.
type NotFoundError struct {
	Reference string
	Original  error
}

func (e *NotFoundError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("reference not found: %s: %v", e.Reference, e.Original)
	}
	return fmt.Sprintf("reference not found: %s", e.Reference)
}

func (e *NotFoundError) Unwrap() error {
	return e.Original
}

// APIError represents a general streaming-service API error.
type APIError struct {
	Message  string
	Original error
}

func (e *APIError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("tidal API error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("tidal API error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Original
}
