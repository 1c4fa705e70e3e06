package enrich

import (
	"context"
	"errors"
	"log"

	"github.com/sv4u/tidaldl/tidal"
)

// Query describes the track a source should look up.
type Query struct {
	Title      string
	Artist     string
	ISRC       string
	DurationMS int
}

// Lookup is one external metadata source.
type Lookup interface {
	Lookup(ctx context.Context, query Query) (Partial, error)
}

type sourceEntry struct {
	name   Source
	client Lookup
}

// Service merges enrichment data from registered sources. Sources are
// consulted in registration order, which defines field priority.
type Service struct {
	sources []sourceEntry
}

// NewService creates an empty enrichment service.
func NewService() *Service {
	return &Service{}
}

// AddSource appends a source. Earlier sources win field conflicts.
func (s *Service) AddSource(name Source, client Lookup) {
	s.sources = append(s.sources, sourceEntry{name: name, client: client})
}

// Enrich builds the merged record for an item. Catalog data claims its
// fields first, then each source in priority order. Source failures are
// collected into an UnavailableError but never abort the pass; the
// returned record is always usable.
func (s *Service) Enrich(ctx context.Context, item *tidal.Item) (Record, error) {
	var record Record
	record.Merge(Partial{BPM: item.BPM}, SourceTidal)

	query := Query{
		Title:      item.Title,
		Artist:     item.ArtistName(),
		ISRC:       item.ISRC,
		DurationMS: item.Duration * 1000,
	}

	var failed []Source
	var firstErr error
	for _, entry := range s.sources {
		partial, err := entry.client.Lookup(ctx, query)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			log.Printf("WARN: enrichment_source_failed source=%s track=%s error=%v", entry.name, item.Title, err)
			failed = append(failed, entry.name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		record.Merge(partial, entry.name)
	}

	if len(failed) > 0 {
		return record, &UnavailableError{Sources: failed, Original: firstErr}
	}
	return record, nil
}
