package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler registers the sweep to run every interval. A run still in
// progress when the next one is due makes the scheduler skip ahead.
func NewScheduler(ctx context.Context, sweep *ReminderSweep, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			if n := sweep.RunOnce(ctx); n > 0 {
				logger.Info("reminder sweep finished", "sent", n)
			}
		}, ctx),
		gocron.WithName("reminder-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("reminder scheduler started")
	s.scheduler.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
