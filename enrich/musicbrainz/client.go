// Package musicbrainz looks up recording genres and tags from the
// MusicBrainz web service. The service enforces one request per second,
// so every call goes through the shared rate limiter.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sv4u/tidaldl/enrich"
	"github.com/sv4u/tidaldl/ratelimit"
)

const (
	baseURL = "https://musicbrainz.org/ws/2"
	// MusicBrainz requires a descriptive User-Agent for API access.
	userAgent = "tidaldl/1.0 (https://github.com/sv4u/tidaldl)"
	// LimiterSource is the rate limiter registration key.
	LimiterSource = "musicbrainz"

	maxGenres = 5
	maxTags   = 10
)

// RegisterLimit registers the documented one request per second budget.
func RegisterLimit(registry *ratelimit.Registry) {
	registry.Register(LimiterSource, 1, time.Second)
}

// Client queries the MusicBrainz recording endpoints.
type Client struct {
	base    string
	http    *http.Client
	limiter *ratelimit.Registry
}

// NewClient creates a MusicBrainz client using the given rate limiter
// registry.
func NewClient(registry *ratelimit.Registry) *Client {
	return &Client{
		base:    baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: registry,
	}
}

type countedName struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type recordingPayload struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Genres []countedName `json:"genres"`
	Tags   []countedName `json:"tags"`
}

type recordingList struct {
	Recordings []recordingPayload `json:"recordings"`
}

// Lookup finds genre and tag data for a track. ISRC lookup is tried first,
// then a title/artist search. Implements enrich.Lookup.
func (c *Client) Lookup(ctx context.Context, query enrich.Query) (enrich.Partial, error) {
	if query.ISRC != "" {
		partial, err := c.lookupISRC(ctx, query.ISRC)
		if err == nil {
			return partial, nil
		}
		if err != enrich.ErrNotFound {
			return enrich.Partial{}, err
		}
	}
	return c.search(ctx, query)
}

func (c *Client) lookupISRC(ctx context.Context, isrc string) (enrich.Partial, error) {
	var list recordingList
	params := url.Values{"inc": {"genres+tags+artists"}}
	if err := c.get(ctx, "/isrc/"+url.PathEscape(isrc), params, &list); err != nil {
		return enrich.Partial{}, err
	}
	if len(list.Recordings) == 0 {
		return enrich.Partial{}, enrich.ErrNotFound
	}
	return toPartial(list.Recordings[0]), nil
}

func (c *Client) search(ctx context.Context, query enrich.Query) (enrich.Partial, error) {
	if query.Title == "" || query.Artist == "" {
		return enrich.Partial{}, enrich.ErrNotFound
	}

	lucene := fmt.Sprintf("recording:%q AND artist:%q", query.Title, query.Artist)
	if query.DurationMS > 0 {
		low := query.DurationMS - 3000
		if low < 0 {
			low = 0
		}
		lucene += fmt.Sprintf(" AND dur:[%d TO %d]", low, query.DurationMS+3000)
	}

	var list recordingList
	params := url.Values{"query": {lucene}, "limit": {"5"}}
	if err := c.get(ctx, "/recording", params, &list); err != nil {
		return enrich.Partial{}, err
	}
	if len(list.Recordings) == 0 {
		return enrich.Partial{}, enrich.ErrNotFound
	}

	// Search results omit genres and tags, so fetch the full recording.
	first := list.Recordings[0]
	if first.ID == "" {
		return toPartial(first), nil
	}
	var full recordingPayload
	params = url.Values{"inc": {"genres+tags+artists"}}
	if err := c.get(ctx, "/recording/"+first.ID, params, &full); err != nil {
		return toPartial(first), nil
	}
	return toPartial(full), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Acquire(ctx, LimiterSource); err != nil {
		return err
	}

	params.Set("fmt", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return enrich.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("musicbrainz: status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// toPartial extracts genres and tags sorted by vote count.
func toPartial(recording recordingPayload) enrich.Partial {
	return enrich.Partial{
		Genres: topNames(recording.Genres, maxGenres),
		Tags:   topNames(recording.Tags, maxTags),
	}
}

func topNames(entries []countedName, limit int) []string {
	sorted := append([]countedName(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	var names []string
	for _, entry := range sorted {
		if entry.Name == "" {
			continue
		}
		names = append(names, entry.Name)
		if len(names) == limit {
			break
		}
	}
	return names
}
