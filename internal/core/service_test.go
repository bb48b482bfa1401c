package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spotsweep/internal/backoff"
)

// Mock implementations for testing

type fakeService struct {
	playlists    []Playlist
	tracks       map[string][]TrackRef
	trackDetails map[string]*Track
	labels       map[string]string

	addedBatches   [][]string
	removedBatches [][]TrackRef
	created        []*Playlist

	addErr    error
	removeErr error
	// removeFailures fails that many RemoveTracks calls before succeeding.
	removeFailures int
}

func (f *fakeService) PlaylistsPage(_ context.Context, offset int) ([]Playlist, int, error) {
	return pageOf(f.playlists, offset, PlaylistPageSize), len(f.playlists), nil
}

func (f *fakeService) TracksPage(_ context.Context, playlistID string, offset int) ([]TrackRef, int, error) {
	refs, ok := f.tracks[playlistID]
	if !ok {
		return nil, 0, fmt.Errorf("no such playlist: %s", playlistID)
	}
	return pageOf(refs, offset, TrackPageSize), len(refs), nil
}

func (f *fakeService) CreatePlaylist(_ context.Context, name, _ string) (*Playlist, error) {
	playlist := &Playlist{ID: fmt.Sprintf("created-%d", len(f.created)), Name: name}
	f.created = append(f.created, playlist)
	f.playlists = append(f.playlists, *playlist)
	return playlist, nil
}

func (f *fakeService) GetTrack(_ context.Context, trackID string) (*Track, error) {
	if track, exists := f.trackDetails[trackID]; exists {
		return track, nil
	}
	return nil, fmt.Errorf("no such track: %s", trackID)
}

func (f *fakeService) AlbumLabel(_ context.Context, albumID string) (string, error) {
	if label, exists := f.labels[albumID]; exists {
		return label, nil
	}
	return "", fmt.Errorf("no such album: %s", albumID)
}

func (f *fakeService) AddTracks(_ context.Context, _ string, trackIDs []string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addedBatches = append(f.addedBatches, append([]string(nil), trackIDs...))
	return nil
}

func (f *fakeService) RemoveTracks(_ context.Context, _ string, refs []TrackRef) error {
	if f.removeFailures > 0 {
		f.removeFailures--
		return fmt.Errorf("transient removal failure")
	}
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removedBatches = append(f.removedBatches, append([]TrackRef(nil), refs...))
	return nil
}

func (f *fakeService) removedRefs() []TrackRef {
	var all []TrackRef
	for _, chunk := range f.removedBatches {
		all = append(all, chunk...)
	}
	return all
}

func (f *fakeService) addedIDs() []string {
	var all []string
	for _, chunk := range f.addedBatches {
		all = append(all, chunk...)
	}
	return all
}

func pageOf[T any](items []T, offset, size int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type fakeWriter struct {
	tracks   []Track
	writeErr error
}

func (f *fakeWriter) WriteTracks(tracks []Track) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.tracks = append(f.tracks, tracks...)
	return nil
}

// testPolicy classifies nothing as rate limiting, so failures surface on
// the first attempt and tests never sleep.
func testPolicy() *backoff.Policy {
	return backoff.NewPolicy(1, time.Millisecond,
		func(error) (time.Duration, bool) { return 0, false },
		zap.NewNop())
}

// testApp disables pacing so workflow tests run at full speed.
func testApp() AppConfig {
	return AppConfig{
		MaxRetries:     1,
		RateLimitDelay: time.Millisecond,
		BatchSize:      WriteBatchSize,
	}
}

func trackRefs(ids ...string) []TrackRef {
	refs := make([]TrackRef, len(ids))
	for i, id := range ids {
		refs[i] = NewTrackRef(id)
	}
	return refs
}
