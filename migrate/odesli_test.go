package migrate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv4u/tidaldl/ratelimit"
)

func newTestOdesliClient(t *testing.T, handler http.HandlerFunc) *OdesliClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	registry := ratelimit.NewRegistry()
	registry.Register(OdesliLimiterSource, 100, time.Second)
	client := NewOdesliClient(registry)
	client.base = server.URL
	return client
}

func TestConvertTrackResolvesCatalogID(t *testing.T) {
	client := newTestOdesliClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://open.spotify.com/track/s1", r.URL.Query().Get("url"))
		assert.Equal(t, "US", r.URL.Query().Get("userCountry"))
		_, _ = w.Write([]byte(`{"linksByPlatform":{
			"spotify":{"entityUniqueId":"SPOTIFY_SONG::s1"},
			"tidal":{"entityUniqueId":"TIDAL_SONG::123456"}
		}}`))
	})

	id, err := client.ConvertTrack(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "123456", id)
}

func TestConvertTrackUnknownTrack(t *testing.T) {
	client := newTestOdesliClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	id, err := client.ConvertTrack(context.Background(), "missing")
	require.NoError(t, err, "an unindexed track is not an error")
	assert.Empty(t, id)
}

func TestConvertTrackNoTidalEntry(t *testing.T) {
	client := newTestOdesliClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"linksByPlatform":{
			"spotify":{"entityUniqueId":"SPOTIFY_SONG::s1"}
		}}`))
	})

	id, err := client.ConvertTrack(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestConvertTrackServerError(t *testing.T) {
	client := newTestOdesliClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ConvertTrack(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
