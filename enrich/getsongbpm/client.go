// Package getsongbpm looks up tempo, musical key, and Camelot notation
// from the GetSongBPM API. Requires an API key; calls go through the
// shared rate limiter to stay polite.
package getsongbpm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sv4u/tidaldl/enrich"
	"github.com/sv4u/tidaldl/ratelimit"
)

const (
	baseURL = "https://api.getsongbpm.com"
	// LimiterSource is the rate limiter registration key.
	LimiterSource = "getsongbpm"
)

// RegisterLimit registers a polite two requests per second budget. The
// service publishes no hard limit.
func RegisterLimit(registry *ratelimit.Registry) {
	registry.Register(LimiterSource, 2, time.Second)
}

// Client queries the GetSongBPM song endpoints.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.Registry
}

// NewClient creates a GetSongBPM client. The API key must be non-empty.
func NewClient(apiKey string, registry *ratelimit.Registry) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("getsongbpm: API key is required")
	}
	return &Client{
		base:    baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: registry,
	}, nil
}

type artistPayload struct {
	Name   string          `json:"name"`
	Genres json.RawMessage `json:"genres"`
}

type songPayload struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Artist  artistPayload `json:"artist"`
	Tempo   string        `json:"tempo"`
	KeyOf   string        `json:"key_of"`
	OpenKey string        `json:"open_key"`
	TimeSig string        `json:"time_sig"`
}

// Lookup finds tempo and key data by title/artist search. Implements
// enrich.Lookup.
func (c *Client) Lookup(ctx context.Context, query enrich.Query) (enrich.Partial, error) {
	if query.Title == "" {
		return enrich.Partial{}, enrich.ErrNotFound
	}

	search := query.Title
	if query.Artist != "" {
		search = query.Title + " " + query.Artist
	}

	var searchResp struct {
		Search []songPayload `json:"search"`
	}
	params := url.Values{"lookup": {"song"}, "search": {search}}
	if err := c.get(ctx, "/song/search/", params, &searchResp); err != nil {
		return enrich.Partial{}, err
	}
	if len(searchResp.Search) == 0 {
		return enrich.Partial{}, enrich.ErrNotFound
	}

	best := bestMatch(searchResp.Search, query)

	// The search payload carries no artist genres; fetch the full song.
	if best.ID != "" {
		var songResp struct {
			Song songPayload `json:"song"`
		}
		params = url.Values{"id": {best.ID}}
		if err := c.get(ctx, "/song/", params, &songResp); err == nil && songResp.Song.ID != "" {
			best = songResp.Song
		}
	}
	return toPartial(best), nil
}

// bestMatch prefers a result whose title and artist both match the query,
// falling back to the first result.
func bestMatch(results []songPayload, query enrich.Query) songPayload {
	title := strings.ToLower(query.Title)
	artist := strings.ToLower(query.Artist)
	for _, result := range results {
		resultTitle := strings.ToLower(result.Title)
		if !strings.Contains(resultTitle, title) && !strings.Contains(title, resultTitle) {
			continue
		}
		resultArtist := strings.ToLower(result.Artist.Name)
		if artist == "" || strings.Contains(resultArtist, artist) || strings.Contains(artist, resultArtist) {
			return result
		}
	}
	return results[0]
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Acquire(ctx, LimiterSource); err != nil {
		return err
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		return enrich.ErrNotFound
	case http.StatusUnauthorized:
		return fmt.Errorf("getsongbpm: invalid API key")
	default:
		return fmt.Errorf("getsongbpm: status %d for %s", resp.StatusCode, path)
	}
}

func toPartial(song songPayload) enrich.Partial {
	partial := enrich.Partial{
		Key:           song.KeyOf,
		Camelot:       song.OpenKey,
		TimeSignature: song.TimeSig,
		Genres:        parseGenres(song.Artist.Genres),
	}
	if tempo, err := strconv.ParseFloat(song.Tempo, 64); err == nil && tempo > 0 {
		partial.BPM = int(tempo)
	}
	return partial
}

// parseGenres tolerates both the string list and object list shapes the
// API returns for artist genres.
func parseGenres(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return nonEmpty(plain)
	}
	var objects []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil {
		names := make([]string, 0, len(objects))
		for _, obj := range objects {
			names = append(names, obj.Name)
		}
		return nonEmpty(names)
	}
	return nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, value := range values {
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
