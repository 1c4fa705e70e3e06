package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sv4u/tidaldl/ratelimit"
)

const (
	odesliBaseURL = "https://api.song.link/v1-alpha.1/links"
	// OdesliLimiterSource is the rate limiter registration key.
	OdesliLimiterSource = "odesli"
)

// RegisterOdesliLimit registers the documented ten requests per minute
// budget.
func RegisterOdesliLimit(registry *ratelimit.Registry) {
	registry.Register(OdesliLimiterSource, 10, time.Minute)
}

// OdesliClient converts Spotify track ids to catalog track ids through
// the song.link cross-platform index.
type OdesliClient struct {
	base    string
	http    *http.Client
	limiter *ratelimit.Registry
}

// NewOdesliClient creates an Odesli client over the shared rate limiter.
func NewOdesliClient(registry *ratelimit.Registry) *OdesliClient {
	return &OdesliClient{
		base:    odesliBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: registry,
	}
}

type odesliPayload struct {
	LinksByPlatform map[string]struct {
		EntityUniqueID string `json:"entityUniqueId"`
	} `json:"linksByPlatform"`
}

// ConvertTrack looks up the catalog id for a Spotify track. A track the
// index does not know returns an empty id and no error.
func (c *OdesliClient) ConvertTrack(ctx context.Context, spotifyTrackID string) (string, error) {
	if err := c.limiter.Acquire(ctx, OdesliLimiterSource); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("url", "https://open.spotify.com/track/"+spotifyTrackID)
	params.Set("userCountry", "US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("odesli: building request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("odesli: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("odesli: lookup returned %d", resp.StatusCode)
	}

	var payload odesliPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("odesli: decoding response: %w", err)
	}

	tidal, ok := payload.LinksByPlatform["tidal"]
	if !ok {
		return "", nil
	}
	// entityUniqueId carries the platform id after a "::" separator,
	// e.g. "TIDAL_SONG::123456".
	_, id, found := strings.Cut(tidal.EntityUniqueID, "::")
	if !found || id == "" {
		return "", nil
	}
	return id, nil
}
