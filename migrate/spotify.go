package migrate

import (
	"context"
	"fmt"
	"log"

	"github.com/sv4u/spotigo"
)

// SpotifySource fetches playlists from the Spotify Web API and reduces
// them to the shape the matcher needs.
type SpotifySource struct {
	client *spotigo.Client
}

// NewSpotifySource authenticates with the client-credentials flow.
func NewSpotifySource(clientID, clientSecret string) (*SpotifySource, error) {
	auth, err := spotigo.NewClientCredentials(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("spotify authentication: %w", err)
	}
	client, err := spotigo.NewClient(auth)
	if err != nil {
		return nil, fmt.Errorf("creating spotify client: %w", err)
	}
	return &SpotifySource{client: client}, nil
}

// Playlist fetches a playlist by id, URI, or URL, following pagination.
// Local tracks cannot be migrated and are dropped.
func (s *SpotifySource) Playlist(ctx context.Context, ref string) (*SourcePlaylist, error) {
	id, err := spotigo.GetID(ref, "playlist")
	if err != nil {
		return nil, fmt.Errorf("invalid playlist reference %q: %w", ref, err)
	}

	playlist, err := s.client.Playlist(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist %s: %w", id, err)
	}
	out := reducePlaylist(playlist)

	page, err := s.client.PlaylistTracks(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist tracks: %w", err)
	}
	for page != nil {
		for _, entry := range page.Items {
			if track, ok := reduceTrack(entry); ok {
				out.Tracks = append(out.Tracks, track)
			}
		}
		if page.GetNext() == nil {
			break
		}
		page, err = spotigo.NextGeneric[spotigo.PlaylistTrack](s.client, ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching playlist page: %w", err)
		}
	}

	log.Printf("INFO: spotify_playlist_fetched id=%s name=%s tracks=%d", out.ID, out.Name, len(out.Tracks))
	return out, nil
}

// reducePlaylist maps the playlist header. Description is optional in the
// wire payload.
func reducePlaylist(playlist *spotigo.Playlist) *SourcePlaylist {
	out := &SourcePlaylist{
		ID:   playlist.ID,
		Name: playlist.Name,
	}
	if playlist.Description != nil {
		out.Description = *playlist.Description
	}
	return out
}

// reduceTrack extracts the matching attributes from a playlist entry. The
// entry payload may be a full or simplified track, pointer or value.
func reduceTrack(entry spotigo.PlaylistTrack) (SourceTrack, bool) {
	switch t := entry.Track.(type) {
	case *spotigo.Track:
		if t == nil {
			return SourceTrack{}, false
		}
		return fromFullTrack(*t)
	case spotigo.Track:
		return fromFullTrack(t)
	case *spotigo.SimplifiedTrack:
		if t == nil {
			return SourceTrack{}, false
		}
		return fromSimplifiedTrack(*t)
	case spotigo.SimplifiedTrack:
		return fromSimplifiedTrack(t)
	default:
		return SourceTrack{}, false
	}
}

func fromFullTrack(t spotigo.Track) (SourceTrack, bool) {
	if t.IsLocal || t.ID == "" {
		return SourceTrack{}, false
	}
	track := SourceTrack{
		ID:         t.ID,
		Title:      t.Name,
		DurationMS: t.DurationMs,
	}
	for _, artist := range t.Artists {
		track.Artists = append(track.Artists, artist.Name)
	}
	if t.ExternalIDs != nil && t.ExternalIDs.ISRC != nil {
		track.ISRC = *t.ExternalIDs.ISRC
	}
	return track, true
}

func fromSimplifiedTrack(t spotigo.SimplifiedTrack) (SourceTrack, bool) {
	if t.IsLocal || t.ID == "" {
		return SourceTrack{}, false
	}
	track := SourceTrack{
		ID:         t.ID,
		Title:      t.Name,
		DurationMS: t.DurationMs,
	}
	for _, artist := range t.Artists {
		track.Artists = append(track.Artists, artist.Name)
	}
	return track, true
}
