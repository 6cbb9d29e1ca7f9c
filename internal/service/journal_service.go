// internal/service/journal_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"serial-service/internal/model"
	"serial-service/internal/repository"
	"serial-service/internal/utils"
)

const journalWriteTimeout = 2 * time.Second

// JournalService records connection events and serves them back
type JournalService struct {
	repo   repository.JournalRepository
	logger *utils.ServiceLogger
}

// NewJournalService creates a journal over repo
func NewJournalService(repo repository.JournalRepository, logger *zap.Logger) *JournalService {
	return &JournalService{
		repo:   repo,
		logger: utils.NewServiceLogger(logger, "journal-service"),
	}
}

// Run records every event from events until ctx is done or events closes
func (js *JournalService) Run(ctx context.Context, events <-chan model.ConnectionEvent) {
	js.logger.Info("Journal recorder started")
	defer js.logger.Info("Journal recorder stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			js.record(ctx, event)
		}
	}
}

func (js *JournalService) record(ctx context.Context, event model.ConnectionEvent) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()

	if err := js.repo.Record(writeCtx, model.NewJournalEntry(event)); err != nil {
		js.logger.Warn("Failed to record connection event",
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}

// Recent returns the newest journal entries
func (js *JournalService) Recent(ctx context.Context, filter *repository.JournalFilter) ([]*model.JournalEntry, error) {
	return js.repo.ListRecent(ctx, filter)
}

// Prune removes entries older than maxAge
func (js *JournalService) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	removed, err := js.repo.Prune(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	js.logger.Info("Journal pruned", zap.Int64("removed", removed), zap.Duration("max_age", maxAge))
	return removed, nil
}
