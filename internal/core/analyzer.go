package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"spotsweep/internal/backoff"
)

// analyzeProgressEvery controls how often the analyzer logs progress
// during the per-track detail fetch loop.
const analyzeProgressEvery = 20

// Analyzer snapshots a playlist's track metadata into a tabular report.
// The detail endpoint has no batch form, so tracks are fetched one by one
// under pacing; individual fetch failures are skipped, not fatal.
type Analyzer struct {
	service PlaylistService
	writer  TrackWriter
	retry   *backoff.Policy
	app     AppConfig
	metrics Metrics
	logger  *zap.Logger
}

type AnalyzeSummary struct {
	Total    int
	Exported int
	Skipped  int
}

func NewAnalyzer(service PlaylistService, writer TrackWriter, retry *backoff.Policy, app AppConfig, metrics Metrics, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		service: service,
		writer:  writer,
		retry:   retry,
		app:     app,
		metrics: metrics,
		logger:  logger,
	}
}

// Run fetches every track in the playlist and writes one row per track
// that could be fetched.
func (a *Analyzer) Run(ctx context.Context, playlistID string) (AnalyzeSummary, error) {
	a.logger.Info("Starting playlist analysis", zap.String("playlistID", playlistID))

	refs, err := CollectTrackRefs(ctx, a.service, a.app.PagePacer(), playlistID)
	if err != nil {
		return AnalyzeSummary{}, err
	}

	summary := AnalyzeSummary{Total: len(refs)}
	a.metrics.SetPlaylistSize(len(refs))
	a.logger.Info("Fetching track details", zap.Int("tracks", len(refs)))

	pacer := a.app.FetchPacer()
	tracks := make([]Track, 0, len(refs))

	for i, ref := range refs {
		if err := pacer.Wait(ctx); err != nil {
			return summary, err
		}

		track, err := backoff.DoValue(ctx, a.retry, fmt.Sprintf("fetch track %s", ref.ID), func() (*Track, error) {
			return a.service.GetTrack(ctx, ref.ID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Skipped++
			a.metrics.RecordSkip("analyze")
			a.logger.Warn("Skipping track, detail fetch failed",
				zap.String("trackID", ref.ID),
				zap.Int("position", i),
				zap.Error(err))
			continue
		}

		tracks = append(tracks, *track)

		if (i+1)%analyzeProgressEvery == 0 {
			a.logger.Info("Analysis progress",
				zap.Int("processed", i+1),
				zap.Int("total", len(refs)))
		}
	}

	if err := a.writer.WriteTracks(tracks); err != nil {
		return summary, fmt.Errorf("writing analysis report: %w", err)
	}

	summary.Exported = len(tracks)
	a.logger.Info("Playlist analysis complete",
		zap.Int("exported", summary.Exported),
		zap.Int("skipped", summary.Skipped))

	return summary, nil
}
