package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobfeed/internal/poller"
)

// Sweeper polls every subscription once.
type Sweeper interface {
	Sweep(ctx context.Context) poller.SweepResult
}

// Scheduler triggers a sweep once at start and then on a fixed interval.
// A tick that arrives while the previous sweep is still running is skipped.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that sweeps at the given interval.
func NewScheduler(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the cron loop and one immediate sweep, then blocks until ctx is
// cancelled. It waits for an in-flight sweep to return before returning nil.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	spec := fmt.Sprintf("@every %s", s.interval)
	id, err := c.AddFunc(spec, func() { s.sweep(ctx) })
	if err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", spec, err)
	}

	s.logger.Info("starting scheduler", "interval", s.interval.String())
	c.Start()

	// go through the wrapped job so the first tick skips if this is still running
	first := make(chan struct{})
	go func() {
		defer close(first)
		c.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	<-first
	return nil
}

func (s *Scheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.sweeper.Sweep(ctx)
}

// cronLogger adapts slog to cron.Logger. Cron's own info messages are chatty
// so they go to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
