package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sv4u/spotigo"
)

func strptr(s string) *string { return &s }

func TestReducePlaylist(t *testing.T) {
	playlist := &spotigo.Playlist{Description: strptr("summer songs")}
	playlist.ID = "sp-1"
	playlist.Name = "Road Trip"

	out := reducePlaylist(playlist)
	assert.Equal(t, "sp-1", out.ID)
	assert.Equal(t, "Road Trip", out.Name)
	assert.Equal(t, "summer songs", out.Description)
}

func TestReducePlaylistNoDescription(t *testing.T) {
	playlist := &spotigo.Playlist{}
	playlist.ID = "sp-2"
	playlist.Name = "Untitled"

	out := reducePlaylist(playlist)
	assert.Equal(t, "sp-2", out.ID)
	assert.Empty(t, out.Description)
}

func TestReduceTrackShapes(t *testing.T) {
	full := spotigo.Track{}
	full.ID = "t1"
	full.Name = "One More Time"
	full.DurationMs = 320000
	full.ExternalIDs = &spotigo.ExternalIDs{ISRC: strptr("ISRC1")}

	track, ok := reduceTrack(spotigo.PlaylistTrack{Track: &full})
	assert.True(t, ok)
	assert.Equal(t, "t1", track.ID)
	assert.Equal(t, "ISRC1", track.ISRC)
	assert.Equal(t, 320000, track.DurationMS)

	local := spotigo.Track{}
	local.ID = "t2"
	local.IsLocal = true
	_, ok = reduceTrack(spotigo.PlaylistTrack{Track: &local})
	assert.False(t, ok, "local tracks cannot be migrated")

	_, ok = reduceTrack(spotigo.PlaylistTrack{Track: nil})
	assert.False(t, ok)
}
