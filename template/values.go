package template

import (
	"strings"
	"time"

	"github.com/sv4u/tidaldl/tidal"
)

type valueKind int

const (
	kindNone valueKind = iota
	kindString
	kindInt
	kindBool
	kindDate
)

type value struct {
	kind    valueKind
	str     string
	number  int
	boolean bool
}

func strValue(s string) value {
	if s == "" {
		return value{}
	}
	return value{kind: kindString, str: s}
}

func intValue(n int) value   { return value{kind: kindInt, number: n} }
func boolValue(b bool) value { return value{kind: kindBool, boolean: b} }
func dateValue(d string) value {
	if d == "" {
		return value{}
	}
	return value{kind: kindDate, str: d}
}

// PlaylistContext carries the playlist-scope attributes for one rendered
// item: collection metadata plus the item's 1-based position.
type PlaylistContext struct {
	UUID   string
	Title  string
	Owner  string
	Index  int
	Total  int
	Public bool
}

// Values is the data a template renders against. Any member may be nil;
// placeholders over a missing member render empty.
type Values struct {
	Item     *tidal.Item
	Album    *tidal.Album
	Playlist *PlaylistContext
	// Extra maps a caller-supplied namespace to its fields.
	Extra map[string]map[string]string
}

// Field registries: a closed set of typed accessors per scope. Unknown
// field names are a defined empty render, not an error.

var itemFields = map[string]func(*tidal.Item) value{
	"id":      func(i *tidal.Item) value { return strValue(i.ID) },
	"title":   func(i *tidal.Item) value { return strValue(i.Title) },
	"version": func(i *tidal.Item) value { return strValue(i.Version) },
	"artist":  func(i *tidal.Item) value { return strValue(i.ArtistName()) },
	"artists": func(i *tidal.Item) value {
		names := make([]string, 0, len(i.Artists))
		for _, a := range i.Artists {
			names = append(names, a.Name)
		}
		return strValue(strings.Join(names, ", "))
	},
	"number":      func(i *tidal.Item) value { return intValue(i.TrackNumber) },
	"volume":      func(i *tidal.Item) value { return intValue(i.VolumeNumber) },
	"duration":    func(i *tidal.Item) value { return intValue(i.Duration) },
	"isrc":        func(i *tidal.Item) value { return strValue(i.ISRC) },
	"bpm":         func(i *tidal.Item) value { return intValue(i.BPM) },
	"explicit":    func(i *tidal.Item) value { return boolValue(i.Explicit) },
	"dolby-atmos": func(i *tidal.Item) value { return boolValue(i.DolbyAtmos) },
	"max-quality": func(i *tidal.Item) value { return boolValue(i.SupportsQuality(tidal.QualityMax)) },
}

var albumFields = map[string]func(*tidal.Album) value{
	"id":       func(a *tidal.Album) value { return strValue(a.ID) },
	"title":    func(a *tidal.Album) value { return strValue(a.Title) },
	"artist":   func(a *tidal.Album) value { return strValue(a.Artist) },
	"date":     func(a *tidal.Album) value { return dateValue(a.ReleaseDate) },
	"year":     func(a *tidal.Album) value { return intValue(releaseYear(a.ReleaseDate)) },
	"tracks":   func(a *tidal.Album) value { return intValue(a.NumberOfTracks) },
	"volumes":  func(a *tidal.Album) value { return intValue(a.NumberOfVolumes) },
	"upc":      func(a *tidal.Album) value { return strValue(a.UPC) },
	"explicit": func(a *tidal.Album) value { return boolValue(a.Explicit) },
}

var playlistFields = map[string]func(*PlaylistContext) value{
	"uuid":   func(p *PlaylistContext) value { return strValue(p.UUID) },
	"title":  func(p *PlaylistContext) value { return strValue(p.Title) },
	"owner":  func(p *PlaylistContext) value { return strValue(p.Owner) },
	"number": func(p *PlaylistContext) value { return intValue(p.Index) },
	"total":  func(p *PlaylistContext) value { return intValue(p.Total) },
	"public": func(p *PlaylistContext) value { return boolValue(p.Public) },
}

func (v Values) lookup(scope, field string) value {
	switch scope {
	case ScopeItem:
		if v.Item == nil {
			return value{}
		}
		if accessor, ok := itemFields[field]; ok {
			return accessor(v.Item)
		}
	case ScopeAlbum:
		if v.Album == nil {
			return value{}
		}
		if accessor, ok := albumFields[field]; ok {
			return accessor(v.Album)
		}
	case ScopePlaylist:
		if v.Playlist == nil {
			return value{}
		}
		if accessor, ok := playlistFields[field]; ok {
			return accessor(v.Playlist)
		}
	default:
		if fields, ok := v.Extra[scope]; ok {
			return strValue(fields[field])
		}
	}
	return value{}
}

func parseDate(date string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Parse(time.RFC3339, date)
}

func releaseYear(date string) int {
	t, err := parseDate(date)
	if err != nil {
		return 0
	}
	return t.Year()
}
