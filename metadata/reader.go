package metadata

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Read parses the tags already present in an audio file. Used to inspect
// existing library files without rewriting them.
func Read(path string) (Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return Tags{}, &TagError{Message: fmt.Sprintf("opening file: %s", path), Original: err}
	}
	defer func() { _ = file.Close() }()

	parsed, err := tag.ReadFrom(file)
	if err != nil {
		return Tags{}, &TagError{Message: fmt.Sprintf("reading tags: %s", path), Original: err}
	}

	number, total := parsed.Track()
	volume, volumeTotal := parsed.Disc()
	tags := Tags{
		Title:       parsed.Title(),
		Artist:      parsed.Artist(),
		AlbumArtist: parsed.AlbumArtist(),
		Album:       parsed.Album(),
		TrackNumber: number,
		TrackTotal:  total,
		VolumeNum:   volume,
		VolumeTotal: volumeTotal,
		Genre:       parsed.Genre(),
	}
	if year := parsed.Year(); year > 0 {
		tags.Date = fmt.Sprintf("%d", year)
	}
	return tags, nil
}
