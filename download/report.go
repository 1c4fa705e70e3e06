package download

import "github.com/sv4u/tidaldl/tidal"

// Outcome is the final result for one item.
type Outcome struct {
	ID       string
	Title    string
	Artist   string
	Status   Status
	Duration int           // seconds, carried through to playlist entries
	Path     string        // destination path for written and skipped items
	Quality  tidal.Quality // tier actually used
	Reason   string        // failure reason, empty otherwise
	Warning  string        // non-fatal problem, e.g. tagging failed
}

// Report aggregates per-item outcomes for one invocation, in collection
// order.
type Report struct {
	Written      []Outcome
	Skipped      []Outcome
	Failed       []Outcome
	NotAttempted []Outcome
}

// Total returns the number of items the invocation covered.
func (r *Report) Total() int {
	return len(r.Written) + len(r.Skipped) + len(r.Failed) + len(r.NotAttempted)
}

func buildReport(outcomes []Outcome) *Report {
	report := &Report{}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case StatusWritten:
			report.Written = append(report.Written, outcome)
		case StatusSkipped:
			report.Skipped = append(report.Skipped, outcome)
		case StatusFailed:
			report.Failed = append(report.Failed, outcome)
		default:
			report.NotAttempted = append(report.NotAttempted, outcome)
		}
	}
	return report
}
