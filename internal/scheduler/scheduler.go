// Package scheduler wires up the cron job that periodically re-scores every
// open offer against fresh market data.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/offer"
)

// Rescorer is the slice of offer.Service the scheduler drives.
type Rescorer interface {
	RescoreOpen(ctx context.Context) (offer.RescoreSummary, error)
}

// Scheduler wraps robfig/cron and manages the rescore loop.
type Scheduler struct {
	cron     *cron.Cron
	rescorer Rescorer
	log      *logging.Logger
	spec     string // standard cron spec, e.g. "0 3 * * *"
}

// New creates a Scheduler firing on spec. Overlapping runs are skipped and a
// panicking run is logged instead of killing the process.
func New(r Rescorer, spec string, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.With("component", "scheduler")
	cl := cronLogger{log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		rescorer: r,
		log:      log,
		spec:     spec,
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so evaluations are fresh without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", "spec", s.spec)

	go s.RunOnce(ctx)
	return nil
}

// Stop shuts the scheduler down and waits up to timeout for a running pass.
func (s *Scheduler) Stop(timeout time.Duration) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		s.log.Warn("rescore still running at shutdown")
	}
	s.log.Info("cron stopped")
}

// RunOnce runs a single rescore pass and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	sum, err := s.rescorer.RescoreOpen(ctx)
	if err != nil {
		s.log.Error("rescore cycle failed", "err", err)
		return
	}
	s.log.Info("rescore cycle complete",
		"visited", sum.Visited,
		"rescored", sum.Rescored,
		"failed", sum.Failed,
		"duration", time.Since(start),
	)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct{ log *logging.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
