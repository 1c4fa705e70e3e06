package metadata

import (
	"fmt"
	"strings"

	"github.com/sv4u/tidaldl/tidal"
)

// Tags holds everything that can be written into an audio file.
type Tags struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	TrackTotal  int
	VolumeNum   int
	VolumeTotal int
	Date        string
	Copyright   string
	ISRC        string
	BPM         int
	Genre       string
	Mood        string
	MusicalKey  string
	CoverURL    string
}

// FromItem builds the base tag set from catalog data. Enrichment fields
// (BPM, Genre, Mood, MusicalKey) are filled in separately.
func FromItem(item *tidal.Item) Tags {
	tags := Tags{
		Title:       item.Title,
		Artist:      item.ArtistName(),
		TrackNumber: item.TrackNumber,
		VolumeNum:   item.VolumeNumber,
		ISRC:        item.ISRC,
		BPM:         item.BPM,
	}
	if item.Version != "" {
		tags.Title = fmt.Sprintf("%s (%s)", item.Title, item.Version)
	}
	if album := item.Album; album != nil {
		tags.Album = album.Title
		tags.AlbumArtist = album.Artist
		tags.TrackTotal = album.NumberOfTracks
		tags.VolumeTotal = album.NumberOfVolumes
		tags.Date = album.ReleaseDate
		tags.Copyright = album.Copyright
		tags.CoverURL = album.CoverURL
	}
	return tags
}

// trackString renders "n" or "n/total" for track and disc frames.
func trackString(number, total int) string {
	if number <= 0 {
		return ""
	}
	if total > 0 {
		return fmt.Sprintf("%d/%d", number, total)
	}
	return fmt.Sprintf("%d", number)
}

// containerTags maps the tag set onto ffmpeg -metadata keys, used for FLAC
// and MP4 containers. Empty values are dropped by the transcoder.
func containerTags(tags Tags) map[string]string {
	out := map[string]string{
		"title":        tags.Title,
		"artist":       tags.Artist,
		"album":        tags.Album,
		"album_artist": tags.AlbumArtist,
		"track":        trackString(tags.TrackNumber, tags.TrackTotal),
		"disc":         trackString(tags.VolumeNum, tags.VolumeTotal),
		"date":         tags.Date,
		"copyright":    tags.Copyright,
		"isrc":         tags.ISRC,
		"genre":        tags.Genre,
		"mood":         tags.Mood,
		"initialkey":   tags.MusicalKey,
	}
	if tags.BPM > 0 {
		out["bpm"] = fmt.Sprintf("%d", tags.BPM)
	}
	for key, value := range out {
		if strings.TrimSpace(value) == "" {
			delete(out, key)
		}
	}
	return out
}
