package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestFindPlaylistByNameAcrossPages(t *testing.T) {
	service := &fakeService{}
	for i := 0; i < 120; i++ {
		service.playlists = append(service.playlists, Playlist{
			ID:   fmt.Sprintf("pl%d", i),
			Name: fmt.Sprintf("Playlist %d", i),
		})
	}

	playlist, err := FindPlaylistByName(context.Background(), service, testApp().PagePacer(), "Playlist 110")
	if err != nil {
		t.Fatalf("FindPlaylistByName() error = %v", err)
	}
	if playlist.ID != "pl110" {
		t.Errorf("ID = %q, expected pl110", playlist.ID)
	}
}

func TestFindPlaylistByNameFirstMatchWins(t *testing.T) {
	service := &fakeService{
		playlists: []Playlist{
			{ID: "pl1", Name: "Mixtape"},
			{ID: "pl2", Name: "Mixtape"},
		},
	}

	playlist, err := FindPlaylistByName(context.Background(), service, testApp().PagePacer(), "Mixtape")
	if err != nil {
		t.Fatalf("FindPlaylistByName() error = %v", err)
	}
	if playlist.ID != "pl1" {
		t.Errorf("ID = %q, expected the first match pl1", playlist.ID)
	}
}

func TestFindPlaylistByNameNotFound(t *testing.T) {
	service := &fakeService{
		playlists: []Playlist{{ID: "pl1", Name: "Mixtape"}},
	}

	_, err := FindPlaylistByName(context.Background(), service, testApp().PagePacer(), "Missing")
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("error = %v, expected ErrPlaylistNotFound", err)
	}
}

func TestCollectTrackRefsAcrossPages(t *testing.T) {
	var refs []TrackRef
	for i := 0; i < 250; i++ {
		refs = append(refs, NewTrackRef(fmt.Sprintf("t%d", i)))
	}
	service := &fakeService{
		tracks: map[string][]TrackRef{"pl1": refs},
	}

	collected, err := CollectTrackRefs(context.Background(), service, testApp().PagePacer(), "pl1")
	if err != nil {
		t.Fatalf("CollectTrackRefs() error = %v", err)
	}
	if len(collected) != 250 {
		t.Fatalf("collected %d refs, expected 250", len(collected))
	}
	if collected[0].ID != "t0" || collected[249].ID != "t249" {
		t.Errorf("order lost: first %q, last %q", collected[0].ID, collected[249].ID)
	}
}
