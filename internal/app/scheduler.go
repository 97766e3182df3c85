package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/dailytrader/internal/service"
)

// DailyTrader runs the gated daily trade.
type DailyTrader interface {
	TryDailyTrade(ctx context.Context, force bool) (service.DailyOutcome, error)
}

// Scheduler attempts the daily trade once at start-up and then on every tick.
// The trade service decides whether an attempt actually trades.
type Scheduler struct {
	trades   DailyTrader
	notifier service.Notifier
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler. notifier may be nil.
func NewScheduler(trades DailyTrader, notifier service.Notifier, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		trades:   trades,
		notifier: notifier,
		interval: interval,
		logger:   logger.With(slog.String("component", "scheduler")),
	}
}

// Run blocks until ctx is cancelled. Failed attempts are logged and reported
// but never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scheduler started", slog.Duration("interval", s.interval))

	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	out, err := s.trades.TryDailyTrade(ctx, false)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.ErrorContext(ctx, "daily trade failed", slog.String("error", err.Error()))
		if s.notifier != nil {
			if nerr := s.notifier.Notify(ctx, service.EventError, "Daily Trade Failed", err.Error()); nerr != nil {
				s.logger.WarnContext(ctx, "report failure", slog.String("error", nerr.Error()))
			}
		}
		return
	}
	if !out.Traded {
		s.logger.DebugContext(ctx, "daily trade skipped", slog.String("reason", out.Reason))
	}
}
