package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sv4u/tidaldl/tidal"
)

type fakeTagger struct {
	path  string
	tags  map[string]string
	cover string
	err   error
}

func (f *fakeTagger) EmbedTags(ctx context.Context, path string, tags map[string]string, coverPath string) error {
	f.path = path
	f.tags = tags
	f.cover = coverPath
	return f.err
}

func sampleItem() *tidal.Item {
	return &tidal.Item{
		ID:           "101",
		Kind:         tidal.ItemKindTrack,
		Title:        "One More Time",
		Artists:      []tidal.Artist{{ID: "9", Name: "Daft Punk"}},
		TrackNumber:  1,
		VolumeNumber: 1,
		Duration:     320,
		ISRC:         "GBDUW0000059",
		Album: &tidal.Album{
			ID:              "201",
			Title:           "Discovery",
			Artist:          "Daft Punk",
			ReleaseDate:     "2001-03-07",
			NumberOfTracks:  14,
			NumberOfVolumes: 1,
			Copyright:       "Daft Life Ltd.",
		},
	}
}

func TestFromItem(t *testing.T) {
	tags := FromItem(sampleItem())

	assert.Equal(t, "One More Time", tags.Title)
	assert.Equal(t, "Daft Punk", tags.Artist)
	assert.Equal(t, "Discovery", tags.Album)
	assert.Equal(t, "Daft Punk", tags.AlbumArtist)
	assert.Equal(t, 1, tags.TrackNumber)
	assert.Equal(t, 14, tags.TrackTotal)
	assert.Equal(t, "2001-03-07", tags.Date)
	assert.Equal(t, "GBDUW0000059", tags.ISRC)
}

func TestFromItemVersionSuffix(t *testing.T) {
	item := sampleItem()
	item.Version = "Radio Edit"
	tags := FromItem(item)
	assert.Equal(t, "One More Time (Radio Edit)", tags.Title)
}

func TestContainerTagsDropsEmpty(t *testing.T) {
	tags := containerTags(Tags{Title: "Song", Artist: "Artist", BPM: 123})

	assert.Equal(t, "Song", tags["title"])
	assert.Equal(t, "123", tags["bpm"])
	_, hasAlbum := tags["album"]
	assert.False(t, hasAlbum, "empty fields must not produce keys")
}

func TestEmbedContainerDispatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.flac")
	require.NoError(t, os.WriteFile(path, []byte("flacdata"), 0644))

	tagger := &fakeTagger{}
	embedder := NewEmbedder(tagger)
	tags := FromItem(sampleItem())
	require.NoError(t, embedder.Embed(context.Background(), path, tags))

	assert.Equal(t, path, tagger.path)
	assert.Equal(t, "One More Time", tagger.tags["title"])
	assert.Equal(t, "1/14", tagger.tags["track"])
	assert.Empty(t, tagger.cover)
}

func TestEmbedMissingFile(t *testing.T) {
	embedder := NewEmbedder(&fakeTagger{})
	err := embedder.Embed(context.Background(), filepath.Join(t.TempDir(), "nope.flac"), Tags{})
	var tagErr *TagError
	require.ErrorAs(t, err, &tagErr)
}

func TestEmbedUnsupportedFormatIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(path, []byte("wav"), 0644))

	tagger := &fakeTagger{}
	embedder := NewEmbedder(tagger)
	require.NoError(t, embedder.Embed(context.Background(), path, Tags{Title: "x"}))
	assert.Empty(t, tagger.path, "unsupported formats bypass the tagger")
}

func TestEmbedMP3RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0644))

	embedder := NewEmbedder(&fakeTagger{})
	tags := FromItem(sampleItem())
	tags.Genre = "House"
	tags.CoverURL = ""
	require.NoError(t, embedder.Embed(context.Background(), path, tags))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "One More Time", got.Title)
	assert.Equal(t, "Daft Punk", got.Artist)
	assert.Equal(t, "Discovery", got.Album)
	assert.Equal(t, "Daft Punk", got.AlbumArtist)
	assert.Equal(t, 1, got.TrackNumber)
	assert.Equal(t, 14, got.TrackTotal)
	assert.Equal(t, "House", got.Genre)
}

func TestTrackString(t *testing.T) {
	assert.Equal(t, "3/12", trackString(3, 12))
	assert.Equal(t, "3", trackString(3, 0))
	assert.Equal(t, "", trackString(0, 12))
}
