// Package download schedules collection downloads over a bounded worker
// pool. Workers verify, fetch, transcode, enrich, and tag items in
// parallel; outcomes are reported back in collection order.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sv4u/tidaldl/enrich"
	"github.com/sv4u/tidaldl/m3u"
	"github.com/sv4u/tidaldl/metadata"
	"github.com/sv4u/tidaldl/template"
	"github.com/sv4u/tidaldl/tidal"
	"github.com/sv4u/tidaldl/verify"
)

// DefaultConcurrency bounds the worker pool when the caller does not.
const DefaultConcurrency = 4

// Streamer opens media streams.
type Streamer interface {
	GetStream(ctx context.Context, id string, kind tidal.ItemKind, quality tidal.Quality) (io.ReadCloser, error)
}

// Finalizer converts a raw downloaded stream into its target container.
type Finalizer interface {
	Finalize(ctx context.Context, rawPath string, quality tidal.Quality) (string, error)
}

// TagEmbedder writes tags into a finished file.
type TagEmbedder interface {
	Embed(ctx context.Context, path string, tags metadata.Tags) error
}

// Enricher resolves supplementary tags for an item.
type Enricher interface {
	Enrich(ctx context.Context, item *tidal.Item) (enrich.Record, error)
}

// AlbumLoader fetches full album attributes by id, collapsing concurrent
// lookups for the same key.
type AlbumLoader interface {
	Get(ctx context.Context, id string) (*tidal.Album, error)
}

// Options control one download invocation.
type Options struct {
	Quality     tidal.Quality
	Template    *template.Template
	Root        string // library root the template renders under
	PlaylistDir string // empty disables playlist emission
	SkipErrors  bool   // continue past failed items
	Verify      bool   // probe existing files instead of trusting presence
	Enrich      bool   // consult external metadata sources
	Concurrency int

	// OnStatus, when set, observes every per-item state transition.
	OnStatus func(item *tidal.Item, status Status)
}

// Coordinator drives the download pipeline.
type Coordinator struct {
	api       Streamer
	prober    verify.Prober
	finalizer Finalizer
	embedder  TagEmbedder
	enricher  Enricher
	albums    AlbumLoader
}

// NewCoordinator wires the pipeline collaborators. enricher may be nil to
// disable enrichment entirely.
func NewCoordinator(api Streamer, prober verify.Prober, finalizer Finalizer, embedder TagEmbedder, enricher Enricher, albums AlbumLoader) *Coordinator {
	return &Coordinator{
		api:       api,
		prober:    prober,
		finalizer: finalizer,
		embedder:  embedder,
		enricher:  enricher,
		albums:    albums,
	}
}

// Download processes every item of a collection and returns the aggregated
// report. Under stop-on-error the first failure cancels all not-yet-started
// items and the invocation returns an error; under skip-errors failures are
// recorded and the invocation succeeds.
func (c *Coordinator) Download(ctx context.Context, collection *tidal.Collection, opts Options) (*Report, error) {
	workers := opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	verifier := verify.NewVerifier(c.prober, opts.Verify)

	log.Printf("INFO: download_start collection=%s kind=%s items=%d quality=%s workers=%d",
		collection.Title, collection.Kind, len(collection.Items), opts.Quality, workers)

	outcomes := make([]Outcome, len(collection.Items))
	stop := make(chan struct{})
	var stopOnce sync.Once

	// Work queue seeded in collection order; workers drain it in parallel.
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				item := collection.Items[index]

				// Cooperative cancellation: checked before starting an
				// item, in-flight items always run to completion. Context
				// cancellation counts even when SkipErrors leaves the
				// stop channel open.
				select {
				case <-stop:
					outcomes[index] = notAttempted(item)
					continue
				case <-ctx.Done():
					outcomes[index] = notAttempted(item)
					continue
				default:
				}

				outcome := c.processItem(ctx, collection, item, index, opts, verifier)
				outcomes[index] = outcome
				if outcome.Status == StatusFailed && !opts.SkipErrors {
					stopOnce.Do(func() { close(stop) })
				}
			}
		}()
	}
	for i := range collection.Items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := buildReport(outcomes)
	log.Printf("INFO: download_complete collection=%s written=%d skipped=%d failed=%d not_attempted=%d",
		collection.Title, len(report.Written), len(report.Skipped), len(report.Failed), len(report.NotAttempted))

	if !opts.SkipErrors && len(report.Failed) > 0 {
		first := report.Failed[0]
		return report, fmt.Errorf("download failed: %s (%s): %s", first.Title, first.ID, first.Reason)
	}

	if opts.PlaylistDir != "" {
		if err := c.writePlaylist(collection, outcomes, opts.PlaylistDir); err != nil {
			log.Printf("WARN: playlist_write_failed collection=%s error=%v", collection.Title, err)
		}
	}
	return report, nil
}

// processItem runs the full pipeline for one item and never panics or
// returns an error; every problem becomes a per-item outcome.
func (c *Coordinator) processItem(ctx context.Context, collection *tidal.Collection, item *tidal.Item, index int, opts Options, verifier *verify.Verifier) Outcome {
	outcome := Outcome{ID: item.ID, Title: item.Title, Artist: item.ArtistName(), Duration: item.Duration}
	setStatus := func(status Status) {
		outcome.Status = status
		if opts.OnStatus != nil {
			opts.OnStatus(item, status)
		}
	}

	fail := func(reason string, err error) Outcome {
		if err != nil {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		log.Printf("ERROR: item_failed id=%s track=%s reason=%s", item.ID, item.Title, reason)
		outcome.Reason = reason
		setStatus(StatusFailed)
		return outcome
	}

	quality, ok := pickQuality(item, opts.Quality)
	if !ok {
		return fail((&UnsupportedQualityError{ID: item.ID, Title: item.Title, Requested: opts.Quality}).Error(), nil)
	}
	outcome.Quality = quality

	base := filepath.Join(opts.Root, opts.Template.Render(c.templateValues(ctx, collection, item, index, opts)))
	final := base + quality.Ext()
	outcome.Path = final

	setStatus(StatusVerifying)
	switch result, reason := verifier.Verify(ctx, final, item.Duration); result {
	case verify.Valid:
		log.Printf("INFO: item_skipped id=%s track=%s path=%s reason=exists", item.ID, item.Title, final)
		setStatus(StatusSkipped)
		return outcome
	case verify.Corrupt:
		log.Printf("WARN: corrupt_file_removed id=%s path=%s reason=%s", item.ID, final, reason)
		if err := os.Remove(final); err != nil {
			return fail("removing corrupt file", err)
		}
	}

	setStatus(StatusFetching)
	raw := base + ".part.raw"
	if err := c.fetch(ctx, item, quality, raw); err != nil {
		return fail("fetching stream", err)
	}

	staged, err := c.finalizer.Finalize(ctx, raw, quality)
	if err != nil {
		_ = os.Remove(raw)
		return fail("transcoding", err)
	}

	tags := metadata.FromItem(item)
	if opts.Enrich && c.enricher != nil {
		setStatus(StatusEnriching)
		record, err := c.enricher.Enrich(ctx, item)
		if err != nil {
			log.Printf("WARN: enrichment_unavailable id=%s track=%s error=%v", item.ID, item.Title, err)
		}
		applyRecord(&tags, record)
	}

	setStatus(StatusTagging)
	if err := c.embedder.Embed(ctx, staged, tags); err != nil {
		// The file is complete, only untagged. Keep it.
		log.Printf("WARN: tagging_failed id=%s track=%s error=%v", item.ID, item.Title, err)
		outcome.Warning = fmt.Sprintf("tagging failed: %v", err)
	}

	if err := os.Rename(staged, final); err != nil {
		_ = os.Remove(staged)
		return fail("moving file into place", err)
	}

	log.Printf("INFO: item_written id=%s track=%s path=%s quality=%s", item.ID, item.Title, final, quality)
	setStatus(StatusWritten)
	return outcome
}

// fetch streams the item into a raw staging file.
func (c *Coordinator) fetch(ctx context.Context, item *tidal.Item, quality tidal.Quality, rawPath string) error {
	if err := os.MkdirAll(filepath.Dir(rawPath), 0755); err != nil {
		return err
	}
	stream, err := c.api.GetStream(ctx, item.ID, item.Kind, quality)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	file, err := os.Create(rawPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, stream); err != nil {
		_ = file.Close()
		_ = os.Remove(rawPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(rawPath)
		return err
	}
	return nil
}

// templateValues assembles the render context, fetching album attributes
// on demand when the template references them.
func (c *Coordinator) templateValues(ctx context.Context, collection *tidal.Collection, item *tidal.Item, index int, opts Options) template.Values {
	values := template.Values{Item: item, Album: item.Album}

	if item.Album == nil && item.AlbumID != "" && c.albums != nil && opts.Template.References("album") {
		album, err := c.albums.Get(ctx, item.AlbumID)
		if err != nil {
			log.Printf("WARN: album_fetch_failed id=%s album=%s error=%v", item.ID, item.AlbumID, err)
		} else {
			item.Album = album
			values.Album = album
		}
	}

	if collection.Kind == tidal.CollectionPlaylist || collection.Kind == tidal.CollectionMix {
		playlist := &template.PlaylistContext{
			UUID:  collection.ID,
			Title: collection.Title,
			Index: index + 1,
			Total: len(collection.Items),
		}
		if collection.Creator != nil {
			playlist.Owner = collection.Creator.Name
		}
		values.Playlist = playlist
	}
	return values
}

// writePlaylist emits the collection M3U file. Outcomes arrive indexed by
// collection position, so entry order matches collection order regardless
// of worker completion order.
func (c *Coordinator) writePlaylist(collection *tidal.Collection, outcomes []Outcome, dir string) error {
	var entries []m3u.Entry
	for _, outcome := range outcomes {
		if outcome.Status != StatusWritten && outcome.Status != StatusSkipped {
			continue
		}
		entries = append(entries, m3u.Entry{
			Path:     outcome.Path,
			Artist:   outcome.Artist,
			Title:    outcome.Title,
			Duration: outcome.Duration,
		})
	}

	owner := ""
	if collection.Creator != nil {
		owner = collection.Creator.Name
	}
	_, err := m3u.Write(filepath.Join(dir, m3u.SafeName(collection.Title)+".m3u"), owner, entries)
	return err
}

// pickQuality walks down from the requested tier to the best supported one.
// notAttempted records an item skipped by cancellation before any work ran.
func notAttempted(item *tidal.Item) Outcome {
	return Outcome{
		ID:       item.ID,
		Title:    item.Title,
		Artist:   item.ArtistName(),
		Duration: item.Duration,
		Status:   StatusPending,
		Reason:   "cancelled before start",
	}
}

func pickQuality(item *tidal.Item, requested tidal.Quality) (tidal.Quality, bool) {
	for q := requested; q >= tidal.QualityLow; q-- {
		if item.SupportsQuality(q) {
			return q, true
		}
	}
	return 0, false
}

// applyRecord folds enrichment values into tags, keeping catalog data.
func applyRecord(tags *metadata.Tags, record enrich.Record) {
	if tags.BPM == 0 && record.BPM > 0 {
		tags.BPM = record.BPM
	}
	if tags.Genre == "" && len(record.Genres) > 0 {
		tags.Genre = record.Genres[0]
	}
	if tags.Mood == "" && record.Mood != "" {
		tags.Mood = record.Mood
	}
	if tags.MusicalKey == "" && record.Key != "" {
		tags.MusicalKey = record.Key
	}
}
