// Package retention schedules history pruning. It never touches rooms
// itself: each due run is delivered as a cutoff on Ticks, and the goroutine
// that owns the registry prunes.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"shmchat/pkg/config"
	"shmchat/pkg/state/logger"
)

type Scheduler struct {
	cron   string
	period time.Duration
	ticks  chan time.Time

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New builds a scheduler for cfg. It returns nil, nil when retention is
// disabled.
func New(cfg config.RetentionConfig) (*Scheduler, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return nil, nil
	}
	if !gronx.New().IsValid(cfg.Cron) {
		return nil, fmt.Errorf("retention: invalid cron expression %q", cfg.Cron)
	}
	period, err := config.ParsePeriod(cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("retention: %w", err)
	}
	return &Scheduler{
		cron:   cfg.Cron,
		period: period,
		ticks:  make(chan time.Time, 1),
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Ticks delivers the cutoff of each due run: messages observed before it
// should be dropped. A nil Scheduler never ticks.
func (s *Scheduler) Ticks() <-chan time.Time {
	if s == nil {
		return nil
	}
	return s.ticks
}

func (s *Scheduler) Period() time.Duration { return s.period }

// Run waits for each cron tick until ctx is done. A run that comes due
// while the previous cutoff is still unconsumed is skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	logger.Info("retention_enabled", "cron", s.cron, "period", s.period.String())
	for {
		now := s.now()
		next, err := gronx.NextTickAfter(s.cron, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", s.cron, "error", err)
			select {
			case <-s.after(30 * time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-s.after(wait):
			s.fire()
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Scheduler) fire() {
	cutoff := s.now().Add(-s.period)
	select {
	case s.ticks <- cutoff:
		logger.Debug("retention_due", "cutoff", cutoff)
	default:
		logger.Warn("retention_run_skipped", "reason", "previous run still pending")
	}
}
