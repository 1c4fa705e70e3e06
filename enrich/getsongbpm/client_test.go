package getsongbpm

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
	client, err := NewClient("test-key", registry)
	require.NoError(t, err)
	client.base = server.URL
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", ratelimit.NewRegistry())
	assert.Error(t, err)
}

func TestLookupFetchesSongDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		switch r.URL.Path {
		case "/song/search/":
			assert.Equal(t, "song", r.URL.Query().Get("lookup"))
			assert.Equal(t, "Around the World Daft Punk", r.URL.Query().Get("search"))
			_, _ = w.Write([]byte(`{"search":[
				{"id":"s1","title":"Around the World (Cover)","artist":{"name":"Some Band"}},
				{"id":"s2","title":"Around the World","artist":{"name":"Daft Punk"}}
			]}`))
		case "/song/":
			assert.Equal(t, "s2", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"song":{
				"id":"s2","title":"Around the World","artist":{"name":"Daft Punk","genres":["house","electronic"]},
				"tempo":"121.3","key_of":"Am","open_key":"8A","time_sig":"4/4"
			}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	partial, err := client.Lookup(context.Background(), enrich.Query{
		Title: "Around the World", Artist: "Daft Punk",
	})
	require.NoError(t, err)

	assert.Equal(t, 121, partial.BPM)
	assert.Equal(t, "Am", partial.Key)
	assert.Equal(t, "8A", partial.Camelot)
	assert.Equal(t, "4/4", partial.TimeSignature)
	assert.Equal(t, []string{"house", "electronic"}, partial.Genres)
}

func TestLookupGenresObjectShape(t *testing.T) {
	partial := toPartial(songPayload{
		Artist: artistPayload{Genres: []byte(`[{"name":"house"},{"name":""}]`)},
	})
	assert.Equal(t, []string{"house"}, partial.Genres)
}

func TestLookupNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search":[]}`))
	})

	_, err := client.Lookup(context.Background(), enrich.Query{Title: "Nope"})
	assert.ErrorIs(t, err, enrich.ErrNotFound)
}

func TestLookupInvalidKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Lookup(context.Background(), enrich.Query{Title: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, enrich.ErrNotFound)
}
