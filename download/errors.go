package download

import (
	"fmt"

	"github.com/sv4u/tidaldl/tidal"
)

// UnsupportedQualityError means no tier at or below the requested one is
// available for an item. Fatal to that item only.
type UnsupportedQualityError struct {
	ID        string
	Title     string
	Requested tidal.Quality
}

func (e *UnsupportedQualityError) Error() string {
	return fmt.Sprintf("no quality at or below %s available for %s (%s)", e.Requested, e.Title, e.ID)
}
