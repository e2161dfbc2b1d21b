package service

import (
	"context"
	"time"

	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/logger"
)

// AlertSweeper runs ProcessAlertQueue on a fixed interval.
type AlertSweeper struct {
	alerts   AlertLifecycleService
	interval time.Duration
	logger   logger.Logger
}

// NewAlertSweeper creates a sweeper for alerts.
func NewAlertSweeper(alerts AlertLifecycleService, interval time.Duration, log logger.Logger) *AlertSweeper {
	if interval <= 0 {
		interval = constants.DefaultSweepInterval
	}
	return &AlertSweeper{
		alerts:   alerts,
		interval: interval,
		logger:   log.WithComponent("alert_sweeper"),
	}
}

// Run blocks until ctx is cancelled. A failed tick is logged and the next
// tick retries.
func (s *AlertSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "Alert sweeper started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(context.Background(), "Alert sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *AlertSweeper) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "Alert sweep panicked", nil, logger.Any("panic", r))
		}
	}()
	if _, err := s.alerts.ProcessAlertQueue(ctx); err != nil {
		s.logger.Warn(ctx, "Alert sweep failed, will retry on next tick", logger.Error(err))
	}
}
