package tidal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sv4u/tidaldl/ratelimit"
)

const (
	apiBaseURL = "https://api.tidal.com/v1"
	pageLimit  = 100
)

// tierNames maps engine tiers to the service's audioquality parameter.
var tierNames = map[Quality]string{
	QualityLow:    "LOW",
	QualityNormal: "HIGH",
	QualityHigh:   "LOSSLESS",
	QualityMax:    "HI_RES_LOSSLESS",
}

// Client is the HTTP implementation of API and Library. Authentication is a
// collaborator concern; the client is handed a ready access token.
type Client struct {
	http        *http.Client
	token       string
	userID      string
	countryCode string
	limiter     *ratelimit.Limiter
}

// NewClient creates an API client with an already-acquired access token.
func NewClient(token, userID, countryCode string) *Client {
	if countryCode == "" {
		countryCode = "US"
	}
	return &Client{
		http:        &http.Client{Timeout: 30 * time.Second},
		token:       token,
		userID:      userID,
		countryCode: countryCode,
	}
}

// SetLimiter throttles every API call through the given limiter. A nil
// limiter leaves the client unthrottled.
func (c *Client) SetLimiter(limiter *ratelimit.Limiter) {
	c.limiter = limiter
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return &APIError{Message: "rate limit wait", Original: err}
		}
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("countryCode", c.countryCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return &APIError{Message: "building request", Original: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: "request failed", Original: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Reference: endpoint}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Message: fmt.Sprintf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Message: "decoding response", Original: err}
	}
	return nil
}

// Wire payloads.

type artistPayload struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type albumPayload struct {
	ID              json.Number     `json:"id"`
	Title           string          `json:"title"`
	ReleaseDate     string          `json:"releaseDate"`
	NumberOfTracks  int             `json:"numberOfTracks"`
	NumberOfVolumes int             `json:"numberOfVolumes"`
	Cover           string          `json:"cover"`
	Explicit        bool            `json:"explicit"`
	Copyright       string          `json:"copyright"`
	UPC             string          `json:"upc"`
	Artist          *artistPayload  `json:"artist"`
	Artists         []artistPayload `json:"artists"`
}

func (p *albumPayload) toAlbum() *Album {
	album := &Album{
		ID:              p.ID.String(),
		Title:           p.Title,
		ReleaseDate:     p.ReleaseDate,
		NumberOfTracks:  p.NumberOfTracks,
		NumberOfVolumes: p.NumberOfVolumes,
		Explicit:        p.Explicit,
		Copyright:       p.Copyright,
		UPC:             p.UPC,
	}
	if p.Artist != nil {
		album.Artist = p.Artist.Name
	} else if len(p.Artists) > 0 {
		album.Artist = p.Artists[0].Name
	}
	if p.Cover != "" {
		album.CoverURL = coverURL(p.Cover)
	}
	return album
}

type trackPayload struct {
	ID            json.Number     `json:"id"`
	Title         string          `json:"title"`
	Version       string          `json:"version"`
	Duration      int             `json:"duration"`
	TrackNumber   int             `json:"trackNumber"`
	VolumeNumber  int             `json:"volumeNumber"`
	Explicit      bool            `json:"explicit"`
	ISRC          string          `json:"isrc"`
	BPM           int             `json:"bpm"`
	AudioQuality  string          `json:"audioQuality"`
	Artists       []artistPayload `json:"artists"`
	Album         *albumPayload   `json:"album"`
	MediaMetadata *struct {
		Tags []string `json:"tags"`
	} `json:"mediaMetadata"`
}

func (p *trackPayload) toItem(kind ItemKind) *Item {
	item := &Item{
		ID:           p.ID.String(),
		Kind:         kind,
		Title:        p.Title,
		Version:      p.Version,
		Duration:     p.Duration,
		TrackNumber:  p.TrackNumber,
		VolumeNumber: p.VolumeNumber,
		Explicit:     p.Explicit,
		ISRC:         p.ISRC,
		BPM:          p.BPM,
		Qualities:    availableQualities(p.AudioQuality, p.MediaMetadata != nil && contains(p.MediaMetadata.Tags, "HIRES_LOSSLESS")),
	}
	if p.MediaMetadata != nil {
		item.DolbyAtmos = contains(p.MediaMetadata.Tags, "DOLBY_ATMOS")
	}
	for _, a := range p.Artists {
		item.Artists = append(item.Artists, Artist{ID: a.ID.String(), Name: a.Name})
	}
	if p.Album != nil {
		item.AlbumID = p.Album.ID.String()
		// Only the id is reliable in listing payloads; full attributes come
		// from the album endpoint.
		if p.Album.Title != "" && p.Album.Artist != nil {
			item.Album = p.Album.toAlbum()
		}
	}
	return item
}

// availableQualities derives the supported tier list from the track's top
// advertised quality.
func availableQualities(audioQuality string, hires bool) []Quality {
	top := QualityNormal
	switch audioQuality {
	case "LOW":
		top = QualityLow
	case "HIGH":
		top = QualityNormal
	case "LOSSLESS":
		top = QualityHigh
	case "HI_RES", "HI_RES_LOSSLESS":
		top = QualityMax
	}
	if hires {
		top = QualityMax
	}
	qualities := make([]Quality, 0, int(top)+1)
	for q := QualityLow; q <= top; q++ {
		qualities = append(qualities, q)
	}
	return qualities
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func coverURL(coverID string) string {
	return fmt.Sprintf("https://resources.tidal.com/images/%s/1280x1280.jpg", strings.ReplaceAll(coverID, "-", "/"))
}

// GetTrack implements API.
func (c *Client) GetTrack(ctx context.Context, id string) (*Item, error) {
	var payload trackPayload
	if err := c.get(ctx, "/tracks/"+id, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toItem(ItemKindTrack), nil
}

// GetVideo implements API.
func (c *Client) GetVideo(ctx context.Context, id string) (*Item, error) {
	var payload trackPayload
	if err := c.get(ctx, "/videos/"+id, nil, &payload); err != nil {
		return nil, err
	}
	item := payload.toItem(ItemKindVideo)
	item.ISRC = ""
	return item, nil
}

// GetAlbum implements API.
func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var payload albumPayload
	if err := c.get(ctx, "/albums/"+id, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toAlbum(), nil
}

type pagedItems struct {
	Items []struct {
		Type string       `json:"type"`
		Item trackPayload `json:"item"`
	} `json:"items"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
}

func (c *Client) listItems(ctx context.Context, endpoint string) ([]*Item, error) {
	var all []*Item
	for offset := 0; ; offset += pageLimit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set("offset", strconv.Itoa(offset))
		var page pagedItems
		if err := c.get(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}
		for _, entry := range page.Items {
			kind := ItemKindTrack
			if strings.EqualFold(entry.Type, "video") {
				kind = ItemKindVideo
			}
			all = append(all, entry.Item.toItem(kind))
		}
		if offset+pageLimit >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}
	return all, nil
}

// GetAlbumItems implements API.
func (c *Client) GetAlbumItems(ctx context.Context, id string) ([]*Item, error) {
	return c.listItems(ctx, "/albums/"+id+"/items")
}

// GetArtistAlbums implements API.
func (c *Client) GetArtistAlbums(ctx context.Context, id string) ([]*Album, error) {
	var all []*Album
	for offset := 0; ; offset += pageLimit {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageLimit))
		params.Set("offset", strconv.Itoa(offset))
		var page struct {
			Items              []albumPayload `json:"items"`
			TotalNumberOfItems int            `json:"totalNumberOfItems"`
		}
		if err := c.get(ctx, "/artists/"+id+"/albums", params, &page); err != nil {
			return nil, err
		}
		for i := range page.Items {
			all = append(all, page.Items[i].toAlbum())
		}
		if offset+pageLimit >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}
	return all, nil
}

type playlistPayload struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	PublicPlaylist bool   `json:"publicPlaylist"`
	Creator        struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"creator"`
}

func (p *playlistPayload) toPlaylist() *Playlist {
	return &Playlist{
		UUID:           p.UUID,
		Title:          p.Title,
		Description:    p.Description,
		NumberOfTracks: p.NumberOfTracks,
		Public:         p.PublicPlaylist,
		Creator:        Creator{ID: p.Creator.ID.String(), Name: p.Creator.Name},
	}
}

// GetPlaylist implements API.
func (c *Client) GetPlaylist(ctx context.Context, uuid string) (*Playlist, error) {
	var payload playlistPayload
	if err := c.get(ctx, "/playlists/"+uuid, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toPlaylist(), nil
}

// GetPlaylistItems implements API.
func (c *Client) GetPlaylistItems(ctx context.Context, uuid string) ([]*Item, error) {
	return c.listItems(ctx, "/playlists/"+uuid+"/items")
}

// GetMixItems implements API.
func (c *Client) GetMixItems(ctx context.Context, id string) ([]*Item, error) {
	return c.listItems(ctx, "/mixes/"+id+"/items")
}

// GetUser implements API.
func (c *Client) GetUser(ctx context.Context, userID string) (*Creator, error) {
	var payload struct {
		ID       json.Number `json:"id"`
		Nickname string      `json:"nickname"`
	}
	if err := c.get(ctx, "/users/"+userID, nil, &payload); err != nil {
		return nil, err
	}
	name := payload.Nickname
	if name == "" {
		name = "user-" + payload.ID.String()
	}
	return &Creator{ID: payload.ID.String(), Name: name}, nil
}

// GetStream implements API. The playback endpoint returns a base64 manifest
// holding the actual media urls.
func (c *Client) GetStream(ctx context.Context, id string, kind ItemKind, quality Quality) (io.ReadCloser, error) {
	endpoint := "/tracks/" + id + "/playbackinfopostpaywall"
	params := url.Values{}
	params.Set("playbackmode", "STREAM")
	params.Set("assetpresentation", "FULL")
	if kind == ItemKindVideo {
		endpoint = "/videos/" + id + "/playbackinfopostpaywall"
		params.Set("videoquality", "HIGH")
	} else {
		params.Set("audioquality", tierNames[quality])
	}

	var payload struct {
		Manifest         string `json:"manifest"`
		ManifestMimeType string `json:"manifestMimeType"`
	}
	if err := c.get(ctx, endpoint, params, &payload); err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Manifest)
	if err != nil {
		return nil, &APIError{Message: "decoding stream manifest", Original: err}
	}
	var manifest struct {
		URLs []string `json:"urls"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil || len(manifest.URLs) == 0 {
		return nil, &APIError{Message: "stream manifest has no urls", Original: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifest.URLs[0], nil)
	if err != nil {
		return nil, &APIError{Message: "building stream request", Original: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: "fetching stream", Original: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &APIError{Message: fmt.Sprintf("stream fetch returned %d", resp.StatusCode)}
	}
	return resp.Body, nil
}

// Search implements Library.
func (c *Client) Search(ctx context.Context, query string) ([]*Item, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("types", "TRACKS")
	params.Set("limit", "20")
	var payload struct {
		Tracks struct {
			Items []trackPayload `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}
	items := make([]*Item, 0, len(payload.Tracks.Items))
	for i := range payload.Tracks.Items {
		items = append(items, payload.Tracks.Items[i].toItem(ItemKindTrack))
	}
	return items, nil
}

// SearchByISRC implements Library. The search endpoint indexes ISRC codes,
// but results still need an exact match on the code.
func (c *Client) SearchByISRC(ctx context.Context, isrc string) (*Item, error) {
	items, err := c.Search(ctx, isrc)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if strings.EqualFold(item.ISRC, isrc) {
			return item, nil
		}
	}
	return nil, &NotFoundError{Reference: "isrc/" + isrc}
}

// UserPlaylists implements Library.
func (c *Client) UserPlaylists(ctx context.Context) ([]*Playlist, error) {
	var all []*Playlist
	for offset := 0; ; offset += 50 {
		params := url.Values{}
		params.Set("limit", "50")
		params.Set("offset", strconv.Itoa(offset))
		var page struct {
			Items              []playlistPayload `json:"items"`
			TotalNumberOfItems int               `json:"totalNumberOfItems"`
		}
		if err := c.get(ctx, "/users/"+c.userID+"/playlists", params, &page); err != nil {
			return nil, err
		}
		for i := range page.Items {
			all = append(all, page.Items[i].toPlaylist())
		}
		if offset+50 >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}
	return all, nil
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values, etag string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return &APIError{Message: "rate limit wait", Original: err}
		}
	}
	form.Set("countryCode", c.countryCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return &APIError{Message: "building request", Original: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: "request failed", Original: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Message: fmt.Sprintf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{Message: "decoding response", Original: err}
		}
	}
	return nil
}

// CreatePlaylist implements Library.
func (c *Client) CreatePlaylist(ctx context.Context, title, description string) (*Playlist, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("description", description)
	var payload playlistPayload
	if err := c.post(ctx, "/users/"+c.userID+"/playlists", form, "", &payload); err != nil {
		return nil, err
	}
	return payload.toPlaylist(), nil
}

// playlistETag fetches the current etag; the add endpoint rejects writes
// without one.
func (c *Client) playlistETag(ctx context.Context, uuid string) (string, error) {
	params := url.Values{}
	params.Set("countryCode", c.countryCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"/playlists/"+uuid+"?"+params.Encode(), nil)
	if err != nil {
		return "", &APIError{Message: "building request", Original: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &APIError{Message: "request failed", Original: err}
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.Header.Get("ETag"), nil
}

// AddPlaylistTracks implements Library.
func (c *Client) AddPlaylistTracks(ctx context.Context, uuid string, trackIDs []string) error {
	etag, err := c.playlistETag(ctx, uuid)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("trackIds", strings.Join(trackIDs, ","))
	form.Set("onDupes", "SKIP")
	return c.post(ctx, "/playlists/"+uuid+"/items", form, etag, nil)
}
