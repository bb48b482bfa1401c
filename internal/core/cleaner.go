package core

import (
	"context"

	"go.uber.org/zap"

	"spotsweep/internal/backoff"
	"spotsweep/internal/store"
	"spotsweep/pkg/batch"
)

// Cleaner removes duplicate tracks from a playlist, keeping the first
// occurrence of each track ID.
type Cleaner struct {
	service PlaylistService
	retry   *backoff.Policy
	app     AppConfig
	metrics Metrics
	logger  *zap.Logger
}

type CleanSummary struct {
	Total         int
	Duplicates    int
	Removed       int
	FailedBatches int
}

func NewCleaner(service PlaylistService, retry *backoff.Policy, app AppConfig, metrics Metrics, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		service: service,
		retry:   retry,
		app:     app,
		metrics: metrics,
		logger:  logger,
	}
}

// Run resolves the playlist by name, scans its tracks in order, and
// removes every repeat occurrence in capped batches.
func (c *Cleaner) Run(ctx context.Context, playlistName string) (CleanSummary, error) {
	pacer := c.app.PagePacer()

	playlist, err := FindPlaylistByName(ctx, c.service, pacer, playlistName)
	if err != nil {
		return CleanSummary{}, err
	}

	refs, err := CollectTrackRefs(ctx, c.service, pacer, playlist.ID)
	if err != nil {
		return CleanSummary{}, err
	}

	summary := CleanSummary{Total: len(refs)}
	c.metrics.SetPlaylistSize(len(refs))

	seen := store.NewTrackSet(len(refs))
	var duplicates []TrackRef
	for _, ref := range refs {
		if seen.Has(ref.ID) {
			duplicates = append(duplicates, ref)
			continue
		}
		seen.Add(ref.ID)
	}
	summary.Duplicates = len(duplicates)

	if len(duplicates) == 0 {
		c.logger.Info("No duplicate tracks found",
			zap.String("playlist", playlist.Name),
			zap.Int("tracks", len(refs)))
		return summary, nil
	}

	c.logger.Info("Removing duplicate tracks",
		zap.String("playlist", playlist.Name),
		zap.Int("duplicates", len(duplicates)),
		zap.Int("batches", batch.Count(len(duplicates), c.app.BatchSize)))

	for i, chunk := range batch.Chunks(duplicates, c.app.BatchSize) {
		if err := pacer.Wait(ctx); err != nil {
			return summary, err
		}

		err := c.retry.Do(ctx, "remove duplicates batch", func() error {
			return c.service.RemoveTracks(ctx, playlist.ID, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			c.metrics.RecordSkip("dedupe")
			summary.FailedBatches++
			c.logger.Warn("Skipping batch, removal failed",
				zap.Int("batchIndex", i),
				zap.Int("batchSize", len(chunk)),
				zap.Error(err))
			continue
		}

		summary.Removed += len(chunk)
		c.metrics.RecordBatch("remove")
		c.logger.Info("Removed duplicate batch",
			zap.Int("batchIndex", i),
			zap.Int("batchSize", len(chunk)))
	}

	c.logger.Info("Duplicate removal complete",
		zap.Int("removed", summary.Removed),
		zap.Int("failedBatches", summary.FailedBatches))

	return summary, nil
}
