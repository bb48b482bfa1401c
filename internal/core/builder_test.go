package core

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func buildTestService() *fakeService {
	return &fakeService{
		trackDetails: map[string]*Track{
			"t1": {ID: "t1", Name: "Midnight Drive", Album: "Lofi Beats", AlbumID: "al1", Artists: []string{"Chill Collective"}},
			"t2": {ID: "t2", Name: "Sunrise", Album: "Daybreak", AlbumID: "al2", Artists: []string{"Morning Band"}},
			"t3": {ID: "t3", Name: "Falling", Album: "Gravity", AlbumID: "al3", Artists: []string{"Lofi Girl"}},
			"t4": {ID: "t4", Name: "Deep Water", Album: "Ocean", AlbumID: "al4", Artists: []string{"Blue Trio"}},
		},
		labels: map[string]string{
			"al2": "Daybreak Records",
			"al4": "Lofi International",
		},
	}
}

func TestBuilderExcludesByKeyword(t *testing.T) {
	service := buildTestService()

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Clean Mix", "no lofi", "lofi", []string{"t1", "t2", "t3", "t4"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// t1 matches by album, t3 by artist, t4 by record label. Only t2
	// survives.
	if summary.Requested != 4 || summary.Excluded != 3 || summary.Added != 1 {
		t.Errorf("summary = %+v, expected 4 requested, 3 excluded, 1 added", summary)
	}

	added := service.addedIDs()
	if len(added) != 1 || added[0] != "t2" {
		t.Errorf("added = %v, expected only t2", added)
	}
}

func TestBuilderKeywordMatchingIsCaseAndAccentInsensitive(t *testing.T) {
	service := &fakeService{
		trackDetails: map[string]*Track{
			"t1": {ID: "t1", Name: "Halo", Album: "I Am", AlbumID: "al1", Artists: []string{"Beyoncé"}},
			"t2": {ID: "t2", Name: "Other", Album: "Album", AlbumID: "al2", Artists: []string{"Someone"}},
		},
		labels: map[string]string{"al1": "Columbia", "al2": "Columbia"},
	}

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Mix", "", "BEYONCE", []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Excluded != 1 || summary.Added != 1 {
		t.Errorf("summary = %+v, expected accented artist excluded", summary)
	}
	if added := service.addedIDs(); len(added) != 1 || added[0] != "t2" {
		t.Errorf("added = %v, expected only t2", added)
	}
}

func TestBuilderCreatesMissingPlaylist(t *testing.T) {
	service := buildTestService()

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Brand New", "freshly built", "lofi", []string{"t2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Created {
		t.Error("summary.Created = false, expected a new playlist")
	}
	if len(service.created) != 1 || service.created[0].Name != "Brand New" {
		t.Errorf("created = %+v, expected one playlist named Brand New", service.created)
	}
	if summary.PlaylistID != service.created[0].ID {
		t.Errorf("PlaylistID = %q, expected %q", summary.PlaylistID, service.created[0].ID)
	}
}

func TestBuilderReusesExistingPlaylist(t *testing.T) {
	service := buildTestService()
	service.playlists = []Playlist{{ID: "pl1", Name: "Clean Mix"}}
	service.tracks = map[string][]TrackRef{"pl1": nil}

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Clean Mix", "", "lofi", []string{"t2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Created {
		t.Error("summary.Created = true, expected the existing playlist reused")
	}
	if summary.PlaylistID != "pl1" {
		t.Errorf("PlaylistID = %q, expected pl1", summary.PlaylistID)
	}
	if len(service.created) != 0 {
		t.Errorf("CreatePlaylist called %d times, expected none", len(service.created))
	}
}

func TestBuilderRequiresKeyword(t *testing.T) {
	builder := NewBuilder(buildTestService(), testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	if _, err := builder.Run(context.Background(), "Mix", "", "", []string{"t2"}); err == nil {
		t.Error("Run() expected error for empty keyword")
	}
}

func TestBuilderSkipsFailedFetches(t *testing.T) {
	service := buildTestService()

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Mix", "", "lofi", []string{"gone", "t2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Skipped != 1 || summary.Added != 1 {
		t.Errorf("summary = %+v, expected 1 skipped, 1 added", summary)
	}
}

func TestBuilderKeepsTrackWhenLabelLookupFails(t *testing.T) {
	service := buildTestService()
	delete(service.labels, "al2")

	builder := NewBuilder(service, testPolicy(), testApp(), NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Mix", "", "lofi", []string{"t2"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Added != 1 || summary.Excluded != 0 {
		t.Errorf("summary = %+v, expected the track kept when the label is unavailable", summary)
	}
}

func TestBuilderPacesLookupAndWritesTogether(t *testing.T) {
	service := buildTestService()
	service.playlists = []Playlist{{ID: "pl1", Name: "Clean Mix"}}
	service.tracks = map[string][]TrackRef{"pl1": nil}

	app := testApp()
	app.PaceInterval = 30 * time.Millisecond

	builder := NewBuilder(service, testPolicy(), app, NopMetrics{}, zap.NewNop())

	start := time.Now()
	summary, err := builder.Run(context.Background(), "Clean Mix", "", "lofi", []string{"t2"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Added != 1 {
		t.Fatalf("Added = %d, expected 1", summary.Added)
	}

	// The name lookup takes the pacer's initial token, so the add batch
	// has to wait out one interval. Independent limiters would both start
	// full and finish immediately.
	if elapsed < 25*time.Millisecond {
		t.Errorf("Run() finished in %v, expected at least one pace interval between lookup and write", elapsed)
	}
}

func TestBuilderBatchesAdds(t *testing.T) {
	service := &fakeService{
		trackDetails: map[string]*Track{},
	}
	var ids []string
	for _, id := range []string{"x1", "x2", "x3", "x4", "x5"} {
		service.trackDetails[id] = &Track{ID: id, Name: "Track " + id, Album: "Album", AlbumID: ""}
		ids = append(ids, id)
	}

	app := testApp()
	app.BatchSize = 2

	builder := NewBuilder(service, testPolicy(), app, NopMetrics{}, zap.NewNop())
	summary, err := builder.Run(context.Background(), "Mix", "", "lofi", ids)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Added != 5 {
		t.Errorf("Added = %d, expected 5", summary.Added)
	}
	if len(service.addedBatches) != 3 {
		t.Fatalf("got %d batches, expected 3", len(service.addedBatches))
	}
	for i, wantLen := range []int{2, 2, 1} {
		if len(service.addedBatches[i]) != wantLen {
			t.Errorf("batch %d has %d tracks, expected %d", i, len(service.addedBatches[i]), wantLen)
		}
	}
}
