package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fieldserve/booking-api/internal/repository"
)

// OutboxCleanupWorker prunes processed outbox events past their retention.
type OutboxCleanupWorker struct {
	repo          repository.OutboxRepository
	retentionDays int
	interval      time.Duration
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retentionDays int, interval time.Duration) *OutboxCleanupWorker {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &OutboxCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
			if err != nil {
				log.Error().Err(err).Msg("failed to prune outbox events")
				continue
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("pruned processed outbox events")
			}
		}
	}
}
