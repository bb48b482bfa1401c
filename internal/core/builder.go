package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"spotsweep/internal/backoff"
	"spotsweep/pkg/batch"
	"spotsweep/pkg/fuzzy"
)

// buildProgressEvery controls how often the builder logs progress during
// the per-track filter loop.
const buildProgressEvery = 50

// Builder assembles a filtered playlist: every configured track whose
// metadata does not match the exclusion keyword is added to a playlist
// resolved — or created — by name.
type Builder struct {
	service    PlaylistService
	retry      *backoff.Policy
	app        AppConfig
	normalizer *fuzzy.Normalizer
	metrics    Metrics
	logger     *zap.Logger
}

type BuildSummary struct {
	PlaylistID    string
	Created       bool
	Requested     int
	Excluded      int
	Skipped       int
	Added         int
	FailedBatches int
}

func NewBuilder(service PlaylistService, retry *backoff.Policy, app AppConfig, metrics Metrics, logger *zap.Logger) *Builder {
	return &Builder{
		service:    service,
		retry:      retry,
		app:        app,
		normalizer: fuzzy.NewNormalizer(),
		metrics:    metrics,
		logger:     logger,
	}
}

// Run filters trackIDs against the exclusion keyword and adds the
// survivors to the named playlist in capped batches.
func (b *Builder) Run(ctx context.Context, name, description, keyword string, trackIDs []string) (BuildSummary, error) {
	if keyword == "" {
		return BuildSummary{}, fmt.Errorf("exclusion keyword is required")
	}

	pacer := b.app.PagePacer()

	playlist, created, err := b.getOrCreatePlaylist(ctx, pacer, name, description)
	if err != nil {
		return BuildSummary{}, err
	}

	summary := BuildSummary{
		PlaylistID: playlist.ID,
		Created:    created,
		Requested:  len(trackIDs),
	}

	b.logger.Info("Filtering tracks",
		zap.String("playlist", playlist.Name),
		zap.String("keyword", keyword),
		zap.Int("tracks", len(trackIDs)))

	keep := b.filterTracks(ctx, keyword, trackIDs, &summary)
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if len(keep) == 0 {
		b.logger.Info("No tracks to add, every track matched the exclusion keyword or failed to fetch")
		return summary, nil
	}

	b.logger.Info("Adding tracks",
		zap.Int("tracks", len(keep)),
		zap.Int("batches", batch.Count(len(keep), b.app.BatchSize)))

	for i, chunk := range batch.Chunks(keep, b.app.BatchSize) {
		if err := pacer.Wait(ctx); err != nil {
			return summary, err
		}

		err := b.retry.Do(ctx, "add tracks batch", func() error {
			return b.service.AddTracks(ctx, playlist.ID, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			b.metrics.RecordSkip("build")
			summary.FailedBatches++
			b.logger.Warn("Skipping batch, add failed",
				zap.Int("batchIndex", i),
				zap.Int("batchSize", len(chunk)),
				zap.Error(err))
			continue
		}

		summary.Added += len(chunk)
		b.metrics.RecordBatch("add")
		b.logger.Info("Added batch",
			zap.Int("batchIndex", i),
			zap.Int("batchSize", len(chunk)))
	}

	b.logger.Info("Playlist build complete",
		zap.String("playlist", playlist.Name),
		zap.Int("added", summary.Added),
		zap.Int("excluded", summary.Excluded),
		zap.Int("skipped", summary.Skipped))

	return summary, nil
}

// filterTracks fetches each track's detail record under retry and keeps
// the IDs that do not match the exclusion keyword. Fetch failures are
// skipped with a log line, never fatal.
func (b *Builder) filterTracks(ctx context.Context, keyword string, trackIDs []string, summary *BuildSummary) []string {
	pacer := b.app.FetchPacer()
	var keep []string

	for i, trackID := range trackIDs {
		if err := pacer.Wait(ctx); err != nil {
			return keep
		}

		track, err := backoff.DoValue(ctx, b.retry, fmt.Sprintf("fetch track %s", trackID), func() (*Track, error) {
			return b.service.GetTrack(ctx, trackID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return keep
			}
			summary.Skipped++
			b.metrics.RecordSkip("build")
			b.logger.Warn("Skipping track, detail fetch failed",
				zap.String("trackID", trackID),
				zap.Error(err))
			continue
		}

		if b.shouldExclude(ctx, track, keyword) {
			summary.Excluded++
			b.logger.Debug("Excluding track",
				zap.String("trackID", trackID),
				zap.String("name", track.Name))
		} else {
			keep = append(keep, trackID)
		}

		if (i+1)%buildProgressEvery == 0 {
			b.logger.Info("Filter progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(trackIDs)))
		}
	}

	return keep
}

// shouldExclude tests the keyword against the track name, album name,
// concatenated artist names, and the album's record label. Matching is
// case- and diacritic-insensitive. A failed label lookup degrades to an
// empty label rather than skipping the track.
func (b *Builder) shouldExclude(ctx context.Context, track *Track, keyword string) bool {
	if b.normalizer.Contains(track.Name, keyword) ||
		b.normalizer.Contains(track.Album, keyword) ||
		b.normalizer.Contains(track.ArtistLine(), keyword) {
		return true
	}

	if track.AlbumID == "" {
		return false
	}

	label, err := backoff.DoValue(ctx, b.retry, fmt.Sprintf("fetch album %s", track.AlbumID), func() (string, error) {
		return b.service.AlbumLabel(ctx, track.AlbumID)
	})
	if err != nil {
		b.logger.Debug("Label lookup failed, matching without label",
			zap.String("albumID", track.AlbumID),
			zap.Error(err))
		return false
	}

	return b.normalizer.Contains(label, keyword)
}

func (b *Builder) getOrCreatePlaylist(ctx context.Context, pacer *rate.Limiter, name, description string) (*Playlist, bool, error) {
	playlist, err := FindPlaylistByName(ctx, b.service, pacer, name)
	if err == nil {
		b.logger.Info("Found existing playlist",
			zap.String("playlist", name),
			zap.String("playlistID", playlist.ID))
		return playlist, false, nil
	}
	if !errors.Is(err, ErrPlaylistNotFound) {
		return nil, false, err
	}

	b.logger.Info("Creating playlist", zap.String("playlist", name))

	playlist, err = backoff.DoValue(ctx, b.retry, "create playlist", func() (*Playlist, error) {
		return b.service.CreatePlaylist(ctx, name, description)
	})
	if err != nil {
		return nil, false, fmt.Errorf("creating playlist %q: %w", name, err)
	}

	return playlist, true, nil
}
