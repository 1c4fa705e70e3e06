package metadata

import (
	"context"
	"fmt"
	"log"

	"github.com/bogem/id3v2/v2"
)

// embedMP3 writes ID3v2 frames into an MP3 file.
func (e *Embedder) embedMP3(ctx context.Context, path string, tags Tags) error {
	file, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		// No existing tag, start fresh
		file, err = id3v2.Open(path, id3v2.Options{Parse: false})
		if err != nil {
			return &TagError{Message: fmt.Sprintf("opening MP3 file: %s", path), Original: err}
		}
	}
	defer func() { _ = file.Close() }()

	file.SetDefaultEncoding(id3v2.EncodingUTF8)
	file.SetTitle(tags.Title)
	file.SetArtist(tags.Artist)
	if tags.Album != "" {
		file.SetAlbum(tags.Album)
	}
	if tags.AlbumArtist != "" {
		file.AddTextFrame(file.CommonID("TPE2"), id3v2.EncodingUTF8, tags.AlbumArtist)
	}
	if track := trackString(tags.TrackNumber, tags.TrackTotal); track != "" {
		file.AddTextFrame(file.CommonID("TRCK"), id3v2.EncodingUTF8, track)
	}
	if disc := trackString(tags.VolumeNum, tags.VolumeTotal); disc != "" {
		file.AddTextFrame(file.CommonID("TPOS"), id3v2.EncodingUTF8, disc)
	}
	if tags.Date != "" {
		file.AddTextFrame(file.CommonID("TDRC"), id3v2.EncodingUTF8, tags.Date)
	}
	if tags.Copyright != "" {
		file.AddTextFrame(file.CommonID("TCOP"), id3v2.EncodingUTF8, tags.Copyright)
	}
	if tags.ISRC != "" {
		file.AddTextFrame(file.CommonID("TSRC"), id3v2.EncodingUTF8, tags.ISRC)
	}
	if tags.BPM > 0 {
		file.AddTextFrame(file.CommonID("TBPM"), id3v2.EncodingUTF8, fmt.Sprintf("%d", tags.BPM))
	}
	if tags.Genre != "" {
		file.SetGenre(tags.Genre)
	}
	if tags.Mood != "" {
		file.AddTextFrame("TMOO", id3v2.EncodingUTF8, tags.Mood)
	}
	if tags.MusicalKey != "" {
		file.AddTextFrame(file.CommonID("TKEY"), id3v2.EncodingUTF8, tags.MusicalKey)
	}

	if tags.CoverURL != "" {
		if err := e.embedCoverMP3(ctx, file, tags.CoverURL); err != nil {
			log.Printf("WARN: cover_art_download_failed file=%s cover_url=%s error=%v", path, tags.CoverURL, err)
		}
	}

	if err := file.Save(); err != nil {
		return &TagError{Message: fmt.Sprintf("saving MP3 metadata: %s", path), Original: err}
	}
	return nil
}

// embedCoverMP3 downloads and attaches front cover art.
func (e *Embedder) embedCoverMP3(ctx context.Context, file *id3v2.Tag, coverURL string) error {
	data, err := e.fetchCoverData(ctx, coverURL)
	if err != nil {
		return err
	}

	mimeType := "image/jpeg"
	if len(data) > 4 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		mimeType = "image/png"
	}

	file.DeleteFrames(file.CommonID("APIC"))
	file.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     data,
	})
	return nil
}
