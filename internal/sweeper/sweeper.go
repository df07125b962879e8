package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/cyberaid/internal/metrics"
	"github.com/robfig/cron/v3"
)

type tokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper clears expired reset tokens on a cron schedule. Expired tokens are
// already rejected on lookup; this only keeps the column tidy.
type Sweeper struct {
	repo     tokenPurger
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time
}

// ParseSchedule accepts a standard five-field cron expression or a descriptor
// such as "@hourly" or "@every 10m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

func New(repo tokenPurger, schedule cron.Schedule, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		repo:     repo,
		schedule: schedule,
		logger:   logger.With("component", "sweeper"),
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "next_run", s.schedule.Next(s.now()))

	for {
		timer := time.NewTimer(time.Until(s.schedule.Next(s.now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep", "error", err)
			}
		}
	}
}

// RunOnce purges every reset token that expired before now.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	n, err := s.repo.PurgeExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired reset tokens: %w", err)
	}
	metrics.ResetTokensPurgedTotal.Add(float64(n))
	if n > 0 {
		s.logger.InfoContext(ctx, "purged expired reset tokens", "count", n)
	}
	return n, nil
}
