package tidal

// ItemKind distinguishes the two downloadable media types.
type ItemKind string

const (
	ItemKindTrack ItemKind = "track"
	ItemKindVideo ItemKind = "video"
)

// CollectionKind is the kind of reference a collection was resolved from.
type CollectionKind string

const (
	CollectionTrack    CollectionKind = "track"
	CollectionVideo    CollectionKind = "video"
	CollectionAlbum    CollectionKind = "album"
	CollectionArtist   CollectionKind = "artist"
	CollectionPlaylist CollectionKind = "playlist"
	CollectionMix      CollectionKind = "mix"
)

// Artist is a credited artist on an item or album.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album holds full album attributes. For playlist items the listing call
// returns only the album id; full attributes are fetched on demand through
// the album cache.
type Album struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Artist         string `json:"artist"`
	ReleaseDate    string `json:"releaseDate"` // YYYY-MM-DD
	NumberOfTracks int    `json:"numberOfTracks"`
	NumberOfVolumes int   `json:"numberOfVolumes"`
	CoverURL       string `json:"coverUrl"`
	Explicit       bool   `json:"explicit"`
	Copyright      string `json:"copyright"`
	UPC            string `json:"upc"`
}

// Item describes a single downloadable track or video. Items are created by
// the resolver and read-only afterwards, except for the lazily attached Album.
type Item struct {
	ID           string    `json:"id"`
	Kind         ItemKind  `json:"kind"`
	Title        string    `json:"title"`
	Version      string    `json:"version"`
	Artists      []Artist  `json:"artists"`
	AlbumID      string    `json:"albumId"`
	Album        *Album    `json:"album,omitempty"`
	TrackNumber  int       `json:"trackNumber"`
	VolumeNumber int       `json:"volumeNumber"`
	Duration     int       `json:"duration"` // seconds
	Qualities    []Quality `json:"qualities"`
	Explicit     bool      `json:"explicit"`
	DolbyAtmos   bool      `json:"dolbyAtmos"`
	ISRC         string    `json:"isrc,omitempty"` // tracks only
	BPM          int       `json:"bpm,omitempty"`
}

// ArtistName returns the primary artist name, empty when uncredited.
func (i *Item) ArtistName() string {
	if len(i.Artists) == 0 {
		return ""
	}
	return i.Artists[0].Name
}

// SupportsQuality reports whether the item offers the given tier.
func (i *Item) SupportsQuality(q Quality) bool {
	for _, have := range i.Qualities {
		if have == q {
			return true
		}
	}
	return false
}

// Creator identifies the owner of a playlist.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Playlist holds playlist attributes from the listing call.
type Playlist struct {
	UUID           string  `json:"uuid"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Creator        Creator `json:"creator"`
	NumberOfTracks int     `json:"numberOfTracks"`
	Public         bool    `json:"public"`
}

// Collection is an ordered group of items resolved from a single reference.
// Item order is stable and defines playlist order.
type Collection struct {
	Kind    CollectionKind
	ID      string
	Title   string
	Creator *Creator // playlists only
	Items   []*Item
}
