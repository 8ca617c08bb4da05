package service

import (
	"context"
	"time"

	"jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// RefreshScheduler re-runs the aggregation refresh on a fixed interval.
// The next delay is armed only after the current refresh finishes, so two
// refreshes never overlap. The first refresh runs immediately.
type RefreshScheduler struct {
	aggregation service.AggregationService
	interval    time.Duration
	logger      *logger.Logger
}

// NewRefreshScheduler creates a new refresh scheduler
func NewRefreshScheduler(aggregation service.AggregationService, interval time.Duration, log *logger.Logger) *RefreshScheduler {
	return &RefreshScheduler{
		aggregation: aggregation,
		interval:    interval,
		logger:      log.WithComponent("refresh-scheduler"),
	}
}

// Run blocks until the context is cancelled. A failed refresh leaves the
// previous snapshot in place and the cycle continues on schedule.
func (s *RefreshScheduler) Run(ctx context.Context) {
	s.logger.Info("Starting refresh scheduler", zap.Duration("interval", s.interval))

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Refresh scheduler stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

// runOnce executes a single refresh, containing every failure so the
// schedule is never interrupted.
func (s *RefreshScheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Refresh panicked, keeping previous snapshot", zap.Any("panic", r))
		}
	}()

	if err := s.aggregation.Refresh(ctx); err != nil {
		s.logger.Error("Refresh failed, keeping previous snapshot", zap.Error(err))
	}
}
