package download

import "fmt"

// Status is the per-item processing state. Every item starts Pending;
// Written and Failed are terminal. Items cancelled before starting stay
// Pending and are reported as not attempted.
type Status int

const (
	StatusPending Status = iota
	StatusVerifying
	StatusSkipped
	StatusFetching
	StatusEnriching
	StatusTagging
	StatusWritten
	StatusFailed
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusVerifying: "verifying",
	StatusSkipped:   "skipped",
	StatusFetching:  "fetching",
	StatusEnriching: "enriching",
	StatusTagging:   "tagging",
	StatusWritten:   "written",
	StatusFailed:    "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusWritten || s == StatusFailed || s == StatusSkipped
}
