package tidal

import (
	"fmt"
	"net/url"
	"strings"
)

// Reference is a parsed streaming-service reference: a kind plus an id.
type Reference struct {
	Kind CollectionKind
	ID   string
}

var referenceKinds = map[string]CollectionKind{
	"track":    CollectionTrack,
	"video":    CollectionVideo,
	"album":    CollectionAlbum,
	"artist":   CollectionArtist,
	"playlist": CollectionPlaylist,
	"mix":      CollectionMix,
}

// ParseReference parses a reference string. Accepted forms:
//
//	track/286266926             kind/id
//	286266926                   bare id, treated as a track
//	https://tidal.com/browse/album/1234
//	https://listen.tidal.com/playlist/<uuid>
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, fmt.Errorf("empty reference")
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return Reference{}, fmt.Errorf("invalid reference url %q: %w", s, err)
		}
		s = strings.Trim(u.Path, "/")
		s = strings.TrimPrefix(s, "browse/")
	}

	parts := strings.Split(strings.Trim(s, "/"), "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return Reference{}, fmt.Errorf("empty reference")
		}
		return Reference{Kind: CollectionTrack, ID: parts[0]}, nil
	case 2:
		kind, ok := referenceKinds[parts[0]]
		if !ok {
			return Reference{}, fmt.Errorf("unknown reference kind %q", parts[0])
		}
		if parts[1] == "" {
			return Reference{}, fmt.Errorf("reference %q has no id", s)
		}
		return Reference{Kind: kind, ID: parts[1]}, nil
	default:
		return Reference{}, fmt.Errorf("malformed reference %q", s)
	}
}
