package enrich

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals that a source has no data for the queried track.
// It is not a failure; the source is simply silent for that item.
var ErrNotFound = errors.New("track not found")

// UnavailableError reports sources that failed during an enrichment pass.
// It is always non-fatal; the record carries whatever the surviving
// sources supplied.
type UnavailableError struct {
	Sources  []Source
	Original error
}

func (e *UnavailableError) Error() string {
	names := make([]string, len(e.Sources))
	for i, src := range e.Sources {
		names[i] = string(src)
	}
	return fmt.Sprintf("enrichment unavailable from %s: %v", strings.Join(names, ", "), e.Original)
}

func (e *UnavailableError) Unwrap() error {
	return e.Original
}
