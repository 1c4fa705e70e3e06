package tidal

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// CreatorNamer resolves a user id to a display name. Implemented by the
// creator-name cache so repeated playlists from the same owner cost one
// lookup per day.
type CreatorNamer interface {
	GetName(ctx context.Context, userID string) (string, error)
}

// Resolver expands a reference into an ordered collection of items.
type Resolver struct {
	api      API
	creators CreatorNamer
}

// NewResolver creates a resolver. creators may be nil; playlist owners are
// then left unnamed.
func NewResolver(api API, creators CreatorNamer) *Resolver {
	return &Resolver{api: api, creators: creators}
}

// Resolve dispatches to the listing call for the reference kind and returns
// the resulting collection. An unresolvable reference fails the whole
// resolution with a NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (*Collection, error) {
	switch ref.Kind {
	case CollectionTrack:
		return r.resolveSingle(ctx, ref, ItemKindTrack)
	case CollectionVideo:
		return r.resolveSingle(ctx, ref, ItemKindVideo)
	case CollectionAlbum:
		return r.resolveAlbum(ctx, ref)
	case CollectionArtist:
		return r.resolveArtist(ctx, ref)
	case CollectionPlaylist:
		return r.resolvePlaylist(ctx, ref)
	case CollectionMix:
		return r.resolveMix(ctx, ref)
	default:
		return nil, fmt.Errorf("unknown collection kind %q", ref.Kind)
	}
}

func (r *Resolver) resolveSingle(ctx context.Context, ref Reference, kind ItemKind) (*Collection, error) {
	var (
		item *Item
		err  error
	)
	if kind == ItemKindVideo {
		item, err = r.api.GetVideo(ctx, ref.ID)
	} else {
		item, err = r.api.GetTrack(ctx, ref.ID)
	}
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	return &Collection{
		Kind:  CollectionKind(kind),
		ID:    ref.ID,
		Title: item.Title,
		Items: []*Item{item},
	}, nil
}

func (r *Resolver) resolveAlbum(ctx context.Context, ref Reference) (*Collection, error) {
	album, err := r.api.GetAlbum(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	items, err := r.api.GetAlbumItems(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	// Album listings carry full album attributes; attach them up front.
	for _, item := range items {
		if item.Album == nil {
			item.Album = album
		}
	}
	log.Printf("INFO: resolved kind=album id=%s title=%s items=%d", ref.ID, album.Title, len(items))
	return &Collection{Kind: CollectionAlbum, ID: ref.ID, Title: album.Title, Items: items}, nil
}

func (r *Resolver) resolveArtist(ctx context.Context, ref Reference) (*Collection, error) {
	albums, err := r.api.GetArtistAlbums(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	collection := &Collection{Kind: CollectionArtist, ID: ref.ID}
	for _, album := range albums {
		items, err := r.api.GetAlbumItems(ctx, album.ID)
		if err != nil {
			return nil, wrapNotFound(Reference{Kind: CollectionAlbum, ID: album.ID}, err)
		}
		for _, item := range items {
			if item.Album == nil {
				item.Album = album
			}
		}
		collection.Items = append(collection.Items, items...)
	}
	if len(albums) > 0 {
		collection.Title = albums[0].Artist
	}
	log.Printf("INFO: resolved kind=artist id=%s albums=%d items=%d", ref.ID, len(albums), len(collection.Items))
	return collection, nil
}

func (r *Resolver) resolvePlaylist(ctx context.Context, ref Reference) (*Collection, error) {
	playlist, err := r.api.GetPlaylist(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	items, err := r.api.GetPlaylistItems(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}

	creator := playlist.Creator
	if creator.Name == "" && creator.ID != "" && r.creators != nil {
		// Owner display name is not included in the playlist payload.
		name, err := r.creators.GetName(ctx, creator.ID)
		if err != nil {
			log.Printf("WARN: creator_lookup_failed playlist=%s user=%s error=%v", ref.ID, creator.ID, err)
		} else {
			creator.Name = name
		}
	}

	log.Printf("INFO: resolved kind=playlist id=%s title=%s items=%d", ref.ID, playlist.Title, len(items))
	return &Collection{
		Kind:    CollectionPlaylist,
		ID:      ref.ID,
		Title:   playlist.Title,
		Creator: &creator,
		Items:   items,
	}, nil
}

func (r *Resolver) resolveMix(ctx context.Context, ref Reference) (*Collection, error) {
	items, err := r.api.GetMixItems(ctx, ref.ID)
	if err != nil {
		return nil, wrapNotFound(ref, err)
	}
	log.Printf("INFO: resolved kind=mix id=%s items=%d", ref.ID, len(items))
	return &Collection{Kind: CollectionMix, ID: ref.ID, Title: "Mix " + ref.ID, Items: items}, nil
}

// wrapNotFound rewrites a 404 with the reference the caller asked for.
// Transport and server errors pass through untouched.
func wrapNotFound(ref Reference, err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &NotFoundError{Reference: string(ref.Kind) + "/" + ref.ID, Original: err}
	}
	return err
}
