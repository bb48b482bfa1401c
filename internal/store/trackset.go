// Package store provides the in-memory track-ID sets the workflows scan
// against: the first-occurrence seen-set for duplicate detection and the
// membership set for removal intersection. A Bloom filter fronts the map so
// misses on large playlists stay cheap.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// defaultCapacity sizes the Bloom filter when callers give no estimate.
	defaultCapacity = 10000
	// falsePositiveRate is the Bloom filter's target false positive rate.
	// Misses that pass the filter are still resolved against the map, so
	// set answers are always exact.
	falsePositiveRate = 0.001
)

// TrackSet is a set of track IDs rebuilt from the remote source each run.
type TrackSet struct {
	ids   map[string]struct{}
	bloom *bloom.BloomFilter
	mutex sync.RWMutex
}

// NewTrackSet creates an empty set sized for roughly capacity IDs. A
// non-positive capacity selects a default suitable for large playlists.
func NewTrackSet(capacity int) *TrackSet {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &TrackSet{
		ids:   make(map[string]struct{}, capacity),
		bloom: bloom.NewWithEstimates(uint(capacity), falsePositiveRate),
	}
}

// Has checks whether a track ID is in the set.
func (ts *TrackSet) Has(trackID string) bool {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	if !ts.bloom.TestString(trackID) {
		return false
	}

	_, exists := ts.ids[trackID]
	return exists
}

// Add inserts a track ID. Empty IDs are ignored; the API marks unplayable
// playlist entries with empty track objects.
func (ts *TrackSet) Add(trackID string) {
	if trackID == "" {
		return
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if _, exists := ts.ids[trackID]; exists {
		return
	}

	ts.ids[trackID] = struct{}{}
	ts.bloom.AddString(trackID)
}

// Load bulk-inserts track IDs into the set.
func (ts *TrackSet) Load(trackIDs []string) {
	for _, trackID := range trackIDs {
		ts.Add(trackID)
	}
}

// Size returns the number of distinct track IDs in the set.
func (ts *TrackSet) Size() int {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()
	return len(ts.ids)
}
