package tidal

import (
	"context"
	"io"
)

// API is the typed surface of the streaming service consumed by the engine.
// Listing calls return items in service order; that order is preserved all
// the way to the playlist file.
type API interface {
	GetTrack(ctx context.Context, id string) (*Item, error)
	GetVideo(ctx context.Context, id string) (*Item, error)
	GetAlbum(ctx context.Context, id string) (*Album, error)
	GetAlbumItems(ctx context.Context, id string) ([]*Item, error)
	GetArtistAlbums(ctx context.Context, id string) ([]*Album, error)
	GetPlaylist(ctx context.Context, uuid string) (*Playlist, error)
	GetPlaylistItems(ctx context.Context, uuid string) ([]*Item, error)
	GetMixItems(ctx context.Context, id string) ([]*Item, error)
	GetUser(ctx context.Context, userID string) (*Creator, error)

	// GetStream opens the media stream for an item at the given tier.
	// The caller owns the returned reader.
	GetStream(ctx context.Context, id string, kind ItemKind, quality Quality) (io.ReadCloser, error)
}

// Library is the playlist-management surface used by the migration flow.
type Library interface {
	Search(ctx context.Context, query string) ([]*Item, error)
	SearchByISRC(ctx context.Context, isrc string) (*Item, error)
	UserPlaylists(ctx context.Context) ([]*Playlist, error)
	CreatePlaylist(ctx context.Context, title, description string) (*Playlist, error)
	AddPlaylistTracks(ctx context.Context, uuid string, trackIDs []string) error
}
