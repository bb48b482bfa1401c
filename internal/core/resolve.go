package core

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"spotsweep/pkg/page"
)

// ErrPlaylistNotFound reports a name lookup that matched no playlist. The
// workflow exits without mutating anything.
var ErrPlaylistNotFound = errors.New("playlist not found")

// FindPlaylistByName pages through the user's playlists and returns the
// first one with the given name.
func FindPlaylistByName(ctx context.Context, service PlaylistService, pacer *rate.Limiter, name string) (*Playlist, error) {
	playlists, err := page.Collect(ctx, PlaylistPageSize, pacer, service.PlaylistsPage)
	if err != nil {
		return nil, fmt.Errorf("listing playlists: %w", err)
	}

	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i], nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
}

// CollectTrackRefs pages through a playlist and returns its track refs in
// playlist order, dropping entries the API returned without a track object.
func CollectTrackRefs(ctx context.Context, service PlaylistService, pacer *rate.Limiter, playlistID string) ([]TrackRef, error) {
	refs, err := page.Collect(ctx, TrackPageSize, pacer,
		func(ctx context.Context, offset int) ([]TrackRef, int, error) {
			return service.TracksPage(ctx, playlistID, offset)
		})
	if err != nil {
		return nil, fmt.Errorf("listing playlist tracks: %w", err)
	}

	tracks := refs[:0]
	for _, ref := range refs {
		if ref.ID != "" {
			tracks = append(tracks, ref)
		}
	}

	return tracks, nil
}
