package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv4u/tidaldl/enrich"
	"github.com/sv4u/tidaldl/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	registry := ratelimit.NewRegistry()
	registry.Register(LimiterSource, 100, time.Second)
	client := NewClient(registry)
	client.base = server.URL
	return client
}

func TestLookupByISRC(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Contains(t, r.Header.Get("User-Agent"), "tidaldl")
		_, _ = w.Write([]byte(`{"recordings":[{
			"id":"mbid-1","title":"One More Time",
			"genres":[{"name":"house","count":10},{"name":"disco","count":3}],
			"tags":[{"name":"euphoric","count":5},{"name":"french house","count":7}]
		}]}`))
	})

	partial, err := client.Lookup(context.Background(), enrich.Query{
		Title: "One More Time", Artist: "Daft Punk", ISRC: "GBDUW0000059",
	})
	require.NoError(t, err)

	assert.Equal(t, "/isrc/GBDUW0000059", gotPath)
	assert.Equal(t, []string{"house", "disco"}, partial.Genres)
	assert.Equal(t, []string{"french house", "euphoric"}, partial.Tags, "tags sorted by count")
}

func TestLookupFallsBackToSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/isrc/XX000":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/recording":
			query := r.URL.Query().Get("query")
			assert.Contains(t, query, `recording:"One More Time"`)
			assert.Contains(t, query, "dur:[221000 TO 227000]")
			_, _ = w.Write([]byte(`{"recordings":[{"id":"mbid-2","title":"One More Time"}]}`))
		case r.URL.Path == "/recording/mbid-2":
			_, _ = w.Write([]byte(`{"id":"mbid-2","title":"One More Time","genres":[{"name":"house","count":1}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	partial, err := client.Lookup(context.Background(), enrich.Query{
		Title: "One More Time", Artist: "Daft Punk", ISRC: "XX000", DurationMS: 224000,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"house"}, partial.Genres)
}

func TestLookupNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recordings":[]}`))
	})

	_, err := client.Lookup(context.Background(), enrich.Query{Title: "Nope", Artist: "Nobody"})
	assert.ErrorIs(t, err, enrich.ErrNotFound)
}

func TestLookupServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Lookup(context.Background(), enrich.Query{Title: "x", Artist: "y"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, enrich.ErrNotFound)
}
