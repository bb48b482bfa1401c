package core

import (
	"context"
	"math"
	"strings"
	"time"
)

const (
	// PlaylistPageSize is the user-playlist listing endpoint's page cap.
	PlaylistPageSize = 50
	// TrackPageSize is the playlist-items endpoint's page cap.
	TrackPageSize = 100
	// WriteBatchSize is the playlist add/remove endpoints' per-call cap.
	WriteBatchSize = 100
)

const trackURIPrefix = "spotify:track:"

// TrackRef is the pair of addressing forms a playlist entry carries: the
// bare ID used for reads and the URI form mutation calls address. A zero
// TrackRef marks an entry whose track object the API returned empty.
type TrackRef struct {
	ID  string
	URI string
}

// NewTrackRef derives the URI form from a track ID.
func NewTrackRef(id string) TrackRef {
	if id == "" {
		return TrackRef{}
	}
	return TrackRef{ID: id, URI: trackURIPrefix + id}
}

// Track is a read-only metadata snapshot fetched on demand; it is never
// persisted beyond the current run.
type Track struct {
	ID          string
	Name        string
	Artists     []string
	Album       string
	AlbumID     string
	AlbumType   string
	ReleaseDate string
	Duration    time.Duration
	Popularity  int
	PreviewURL  string
	ExternalURL string
	TrackNumber int
}

// ArtistLine joins the artist names for display and matching.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// DurationMinutes returns the track length in minutes, rounded to two
// decimal places.
func (t Track) DurationMinutes() float64 {
	return math.Round(t.Duration.Minutes()*100) / 100
}

// Playlist identifies a named track collection. Names are not unique on
// the remote service; lookups resolve to the first match.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	TrackCount int
}

// PlaylistService is the remote collection client the workflows run
// against. Reads are page-granular so the paginator drives them; writes
// are batch-granular so the batcher caps them. Implementations own
// authentication, transport, and serialization.
type PlaylistService interface {
	// PlaylistsPage returns one page of the current user's playlists
	// starting at offset, plus the collection total.
	PlaylistsPage(ctx context.Context, offset int) ([]Playlist, int, error)

	// TracksPage returns one page of a playlist's track refs starting at
	// offset, plus the playlist total. Entries whose track object the API
	// returned empty come back as zero TrackRefs so page arithmetic stays
	// intact; callers skip them.
	TracksPage(ctx context.Context, playlistID string, offset int) ([]TrackRef, int, error)

	// CreatePlaylist creates a private playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error)

	// GetTrack fetches one track's detail record.
	GetTrack(ctx context.Context, trackID string) (*Track, error)

	// AlbumLabel fetches the record label of an album.
	AlbumLabel(ctx context.Context, albumID string) (string, error)

	// AddTracks appends up to WriteBatchSize tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveTracks removes all occurrences of up to WriteBatchSize tracks
	// from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, refs []TrackRef) error
}

// Metrics receives counters from the workflows and the API client. The
// metrics server implements it; NopMetrics stands in when none runs.
type Metrics interface {
	RecordAPICall(endpoint string)
	RecordRateLimit()
	RecordBatch(operation string)
	RecordSkip(component string)
	SetPlaylistSize(size int)
}

// NopMetrics discards all recordings.
type NopMetrics struct{}

func (NopMetrics) RecordAPICall(string) {}
func (NopMetrics) RecordRateLimit()     {}
func (NopMetrics) RecordBatch(string)   {}
func (NopMetrics) RecordSkip(string)    {}
func (NopMetrics) SetPlaylistSize(int)  {}

// TrackWriter receives the analyze workflow's tabular snapshot.
type TrackWriter interface {
	WriteTracks(tracks []Track) error
}
