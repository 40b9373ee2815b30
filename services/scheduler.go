package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NextRun returns the first hh:mm UTC strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// StartDailyRollover runs r every day at hour:minute UTC until ctx is cancelled.
func StartDailyRollover(ctx context.Context, r *Rollover, hour, minute int, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		for {
			next := NextRun(time.Now(), hour, minute)
			logger.Info("next rollover scheduled", zap.Time("at", next))
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Info("rollover scheduler stopped")
				return
			case <-timer.C:
			}
			if _, err := r.Run(ctx); err != nil {
				logger.Error("scheduled rollover finished with errors", zap.Error(err))
			}
		}
	}()
}
