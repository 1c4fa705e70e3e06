// Package migrate converts Spotify playlists into native playlists by
// matching tracks across catalogs. The flow is intentionally sequential
// so playlist order is preserved; each conversion call waits on the rate
// limiter before touching the network.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/sv4u/tidaldl/ratelimit"
	"github.com/sv4u/tidaldl/tidal"
)

// LimiterSource is the rate limiter registration key for catalog search
// calls issued by the migration flow.
const LimiterSource = "migrate"

// durationToleranceSec bounds the duration drift accepted by fuzzy match.
const durationToleranceSec = 2

// SourceTrack is one track from the source playlist, reduced to the
// attributes matching needs.
type SourceTrack struct {
	ID         string
	Title      string
	Artists    []string
	DurationMS int
	ISRC       string
}

// SourcePlaylist is the playlist being migrated.
type SourcePlaylist struct {
	ID          string
	Name        string
	Description string
	Tracks      []SourceTrack
}

// Source fetches playlists from the service being migrated away from.
type Source interface {
	Playlist(ctx context.Context, ref string) (*SourcePlaylist, error)
}

// TrackStatus classifies one migrated track.
type TrackStatus string

const (
	StatusMatchedLink  TrackStatus = "matched_link"
	StatusMatchedISRC  TrackStatus = "matched_isrc"
	StatusMatchedFuzzy TrackStatus = "matched_fuzzy"
	StatusNotFound     TrackStatus = "not_found"
	StatusFailed       TrackStatus = "failed"
)

// IDConverter resolves a Spotify track ID to a catalog track ID through a
// cross-platform link service. An empty ID with a nil error means the
// service knows no counterpart.
type IDConverter interface {
	ConvertTrack(ctx context.Context, spotifyTrackID string) (string, error)
}

// TrackResult is the per-track migration outcome.
type TrackResult struct {
	Position int
	Source   SourceTrack
	Status   TrackStatus
	TidalID  string
	Reason   string
}

// Result summarizes one migration run.
type Result struct {
	RunID        string
	PlaylistUUID string
	Title        string
	Tracks       []TrackResult
	Matched      int
	Missing      int
}

// Options control a migration run.
type Options struct {
	// DryRun matches tracks but creates no playlist.
	DryRun bool
	// ReportDir, when non-empty, receives a CSV report of the run.
	ReportDir string
}

// Migrator drives the migration flow.
type Migrator struct {
	source    Source
	library   tidal.Library
	limiter   *ratelimit.Registry
	converter IDConverter
}

// NewMigrator wires the migration collaborators.
func NewMigrator(source Source, library tidal.Library, limiter *ratelimit.Registry) *Migrator {
	return &Migrator{source: source, library: library, limiter: limiter}
}

// UseConverter enables direct ID conversion as the first match step.
func (m *Migrator) UseConverter(converter IDConverter) {
	m.converter = converter
}

// Migrate converts one source playlist. Unmatched tracks never abort the
// run; they are recorded and reported.
func (m *Migrator) Migrate(ctx context.Context, ref string, opts Options) (*Result, error) {
	playlist, err := m.source.Playlist(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching source playlist: %w", err)
	}

	result := &Result{
		RunID: uuid.NewString(),
		Title: playlist.Name,
	}
	log.Printf("INFO: migrate_start run=%s playlist=%s tracks=%d dry_run=%v",
		result.RunID, playlist.Name, len(playlist.Tracks), opts.DryRun)

	var trackIDs []string
	for i, track := range playlist.Tracks {
		trackResult := TrackResult{Position: i + 1, Source: track}

		item, status, err := m.match(ctx, track)
		switch {
		case err != nil:
			trackResult.Status = StatusFailed
			trackResult.Reason = err.Error()
			log.Printf("WARN: migrate_track_failed run=%s track=%s error=%v", result.RunID, track.Title, err)
		case item == nil:
			trackResult.Status = StatusNotFound
			result.Missing++
			log.Printf("INFO: migrate_track_missing run=%s track=%s artist=%s", result.RunID, track.Title, firstArtist(track))
		default:
			trackResult.Status = status
			trackResult.TidalID = item.ID
			trackIDs = append(trackIDs, item.ID)
			result.Matched++
		}
		result.Tracks = append(result.Tracks, trackResult)
	}

	if !opts.DryRun && len(trackIDs) > 0 {
		uuid, err := m.targetPlaylist(ctx, playlist)
		if err != nil {
			return result, err
		}
		result.PlaylistUUID = uuid
		if err := m.library.AddPlaylistTracks(ctx, uuid, trackIDs); err != nil {
			return result, fmt.Errorf("adding tracks to playlist: %w", err)
		}
	}

	if opts.ReportDir != "" {
		path, err := writeReport(opts.ReportDir, result)
		if err != nil {
			log.Printf("WARN: migrate_report_failed run=%s error=%v", result.RunID, err)
		} else {
			log.Printf("INFO: migrate_report_written run=%s file=%s", result.RunID, path)
		}
	}

	log.Printf("INFO: migrate_complete run=%s matched=%d missing=%d playlist=%s",
		result.RunID, result.Matched, result.Missing, result.PlaylistUUID)
	return result, nil
}

// targetPlaylist returns the uuid of an existing playlist with the source
// playlist's name, creating one when none exists. Re-running a migration
// therefore tops up the same playlist instead of duplicating it.
func (m *Migrator) targetPlaylist(ctx context.Context, playlist *SourcePlaylist) (string, error) {
	if err := m.limiter.Acquire(ctx, LimiterSource); err != nil {
		return "", err
	}
	existing, err := m.library.UserPlaylists(ctx)
	if err != nil {
		return "", fmt.Errorf("listing playlists: %w", err)
	}
	for _, p := range existing {
		if p.Title == playlist.Name {
			log.Printf("INFO: migrate_playlist_reused playlist=%s uuid=%s", p.Title, p.UUID)
			return p.UUID, nil
		}
	}
	created, err := m.library.CreatePlaylist(ctx, playlist.Name, playlist.Description)
	if err != nil {
		return "", fmt.Errorf("creating playlist: %w", err)
	}
	return created.UUID, nil
}

// match finds the catalog item for a source track. Direct link conversion
// is tried first when a converter is wired, then ISRC lookup, then a fuzzy
// title/artist search. Converter failures fall through to the search path
// instead of failing the track.
func (m *Migrator) match(ctx context.Context, track SourceTrack) (*tidal.Item, TrackStatus, error) {
	if m.converter != nil && track.ID != "" {
		id, err := m.converter.ConvertTrack(ctx, track.ID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, StatusFailed, err
			}
			log.Printf("WARN: migrate_convert_failed track=%s error=%v", track.Title, err)
		case id != "":
			return &tidal.Item{ID: id, Title: track.Title}, StatusMatchedLink, nil
		}
	}

	if track.ISRC != "" {
		if err := m.limiter.Acquire(ctx, LimiterSource); err != nil {
			return nil, StatusFailed, err
		}
		item, err := m.library.SearchByISRC(ctx, track.ISRC)
		if err == nil {
			return item, StatusMatchedISRC, nil
		}
		var notFound *tidal.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, StatusFailed, err
		}
	}

	if track.Title == "" || len(track.Artists) == 0 {
		return nil, StatusNotFound, nil
	}

	if err := m.limiter.Acquire(ctx, LimiterSource); err != nil {
		return nil, StatusFailed, err
	}
	query := simplifyName(track.Title) + " " + simplifyName(firstArtist(track))
	candidates, err := m.library.Search(ctx, query)
	if err != nil {
		return nil, StatusFailed, err
	}

	for i, candidate := range candidates {
		if i == 10 {
			break
		}
		if track.ISRC != "" && candidate.ISRC == track.ISRC {
			return candidate, StatusMatchedISRC, nil
		}
		if fuzzyMatch(track, candidate) {
			return candidate, StatusMatchedFuzzy, nil
		}
	}
	return nil, StatusNotFound, nil
}

// fuzzyMatch requires duration within tolerance, a simplified-name overlap,
// and at least one shared artist.
func fuzzyMatch(track SourceTrack, candidate *tidal.Item) bool {
	drift := candidate.Duration - track.DurationMS/1000
	if drift < -durationToleranceSec || drift > durationToleranceSec {
		return false
	}
	if !nameMatch(track.Title, candidate.Title) {
		return false
	}
	candidateArtists := make([]string, 0, len(candidate.Artists))
	for _, artist := range candidate.Artists {
		candidateArtists = append(candidateArtists, artist.Name)
	}
	return artistMatch(track.Artists, candidateArtists)
}

// simplifyName strips version suffixes: everything after a hyphen,
// parenthesis, or bracket.
func simplifyName(name string) string {
	for _, sep := range []string{"-", "(", "["} {
		if idx := strings.Index(name, sep); idx >= 0 {
			name = name[:idx]
		}
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func nameMatch(a, b string) bool {
	simpleA, simpleB := simplifyName(a), simplifyName(b)
	if simpleA == "" || simpleB == "" {
		return false
	}
	return strings.Contains(simpleA, simpleB) || strings.Contains(simpleB, simpleA)
}

// artistMatch splits collaboration credits and checks for any overlap.
func artistMatch(a, b []string) bool {
	setA := artistNameSet(a)
	for name := range artistNameSet(b) {
		if setA[name] {
			return true
		}
	}
	return false
}

func artistNameSet(artists []string) map[string]bool {
	names := make(map[string]bool)
	for _, artist := range artists {
		split := strings.NewReplacer("&", ",", " x ", ",", " X ", ",").Replace(artist)
		for _, part := range strings.Split(split, ",") {
			if name := simplifyName(part); name != "" {
				names[name] = true
			}
		}
	}
	return names
}

func firstArtist(track SourceTrack) string {
	if len(track.Artists) == 0 {
		return ""
	}
	return track.Artists[0]
}
