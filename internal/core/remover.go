package core

import (
	"context"

	"go.uber.org/zap"

	"spotsweep/internal/backoff"
	"spotsweep/internal/store"
	"spotsweep/pkg/batch"
)

// Remover removes a caller-supplied list of tracks from a playlist.
// Requested IDs not present in the playlist are silently dropped.
type Remover struct {
	service PlaylistService
	retry   *backoff.Policy
	app     AppConfig
	metrics Metrics
	logger  *zap.Logger
}

type RemoveSummary struct {
	Requested     int
	Matched       int
	Removed       int
	FailedBatches int
}

func NewRemover(service PlaylistService, retry *backoff.Policy, app AppConfig, metrics Metrics, logger *zap.Logger) *Remover {
	return &Remover{
		service: service,
		retry:   retry,
		app:     app,
		metrics: metrics,
		logger:  logger,
	}
}

// Run resolves the playlist by name, intersects the requested IDs against
// its current contents, and removes the survivors in capped batches.
func (r *Remover) Run(ctx context.Context, playlistName string, trackIDs []string) (RemoveSummary, error) {
	pacer := r.app.PagePacer()

	playlist, err := FindPlaylistByName(ctx, r.service, pacer, playlistName)
	if err != nil {
		return RemoveSummary{}, err
	}

	refs, err := CollectTrackRefs(ctx, r.service, pacer, playlist.ID)
	if err != nil {
		return RemoveSummary{}, err
	}

	summary := RemoveSummary{Requested: len(trackIDs)}
	r.metrics.SetPlaylistSize(len(refs))

	existing := store.NewTrackSet(len(refs))
	for _, ref := range refs {
		existing.Add(ref.ID)
	}

	var toRemove []TrackRef
	for _, id := range trackIDs {
		if existing.Has(id) {
			toRemove = append(toRemove, NewTrackRef(id))
		}
	}
	summary.Matched = len(toRemove)

	if len(toRemove) == 0 {
		r.logger.Info("No matching tracks to remove, playlist is already clean",
			zap.String("playlist", playlist.Name),
			zap.Int("requested", len(trackIDs)))
		return summary, nil
	}

	r.logger.Info("Removing tracks",
		zap.String("playlist", playlist.Name),
		zap.Int("matched", len(toRemove)),
		zap.Int("ignored", len(trackIDs)-len(toRemove)))

	for i, chunk := range batch.Chunks(toRemove, r.app.BatchSize) {
		if err := pacer.Wait(ctx); err != nil {
			return summary, err
		}

		err := r.retry.Do(ctx, "remove tracks batch", func() error {
			return r.service.RemoveTracks(ctx, playlist.ID, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.metrics.RecordSkip("remove")
			summary.FailedBatches++
			r.logger.Warn("Skipping batch, removal failed",
				zap.Int("batchIndex", i),
				zap.Int("batchSize", len(chunk)),
				zap.Error(err))
			continue
		}

		summary.Removed += len(chunk)
		r.metrics.RecordBatch("remove")
		r.logger.Info("Removed batch",
			zap.Int("batchIndex", i),
			zap.Int("batchSize", len(chunk)))
	}

	r.logger.Info("Track removal complete",
		zap.Int("removed", summary.Removed),
		zap.Int("failedBatches", summary.FailedBatches))

	return summary, nil
}
