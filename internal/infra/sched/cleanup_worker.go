package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-guard/internal/usecase"
)

// CleanupWorker periodically drops stale unverified membership records via
// the group use case.
type CleanupWorker struct {
	interval  time.Duration
	retention time.Duration
	groupUC   usecase.GroupUseCase
	log       *zerolog.Logger
}

func NewCleanupWorker(interval, retention time.Duration, groupUC usecase.GroupUseCase, logger *zerolog.Logger) *CleanupWorker {
	cleanLog := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval:  interval,
		retention: retention,
		groupUC:   groupUC,
		log:       &cleanLog,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.groupUC.PurgeStale(ctx, w.retention)
			if err != nil {
				w.log.Error().Err(err).Msg("cleanup worker error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("stale records purged")
			}
		}
	}
}
