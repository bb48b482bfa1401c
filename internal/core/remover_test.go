package core

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestRemoverIntersectsWithPlaylist(t *testing.T) {
	service := &fakeService{
		playlists: []Playlist{{ID: "pl1", Name: "Mixtape"}},
		tracks: map[string][]TrackRef{
			"pl1": trackRefs("a", "b", "c"),
		},
	}

	remover := NewRemover(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := remover.Run(context.Background(), "Mixtape", []string{"b", "d"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Requested != 2 || summary.Matched != 1 || summary.Removed != 1 {
		t.Errorf("summary = %+v, expected 2 requested, 1 matched, 1 removed", summary)
	}

	removed := service.removedRefs()
	if len(removed) != 1 || removed[0].ID != "b" {
		t.Errorf("removed = %+v, expected only b", removed)
	}
	if removed[0].URI != "spotify:track:b" {
		t.Errorf("removal URI = %q, expected spotify:track:b", removed[0].URI)
	}
}

func TestRemoverPreservesRequestOrder(t *testing.T) {
	service := &fakeService{
		playlists: []Playlist{{ID: "pl1", Name: "Mixtape"}},
		tracks: map[string][]TrackRef{
			"pl1": trackRefs("a", "b", "c"),
		},
	}

	remover := NewRemover(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	_, err := remover.Run(context.Background(), "Mixtape", []string{"c", "a"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	removed := service.removedRefs()
	if len(removed) != 2 || removed[0].ID != "c" || removed[1].ID != "a" {
		t.Errorf("removed = %+v, expected request order c then a", removed)
	}
}

func TestRemoverNothingMatches(t *testing.T) {
	service := &fakeService{
		playlists: []Playlist{{ID: "pl1", Name: "Mixtape"}},
		tracks: map[string][]TrackRef{
			"pl1": trackRefs("a", "b"),
		},
	}

	remover := NewRemover(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := remover.Run(context.Background(), "Mixtape", []string{"x", "y"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Matched != 0 || summary.Removed != 0 {
		t.Errorf("summary = %+v, expected nothing matched", summary)
	}
	if len(service.removedBatches) != 0 {
		t.Errorf("RemoveTracks called %d times, expected none", len(service.removedBatches))
	}
}

func TestRemoverPlaylistNotFound(t *testing.T) {
	service := &fakeService{}

	remover := NewRemover(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	_, err := remover.Run(context.Background(), "Mixtape", []string{"a"})
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("Run() error = %v, expected ErrPlaylistNotFound", err)
	}
}
