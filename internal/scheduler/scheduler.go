// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	CleanExpired() int
}

// Scheduler wraps a cron runner. Jobs that are still running when the next
// tick arrives are skipped.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler using standard 5-field specs and descriptors such as "@every 5m".
func New() *Scheduler {
	logger := cron.VerbosePrintfLogger(slogPrintf{})
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
	}
}

// AddCacheSweep runs s.CleanExpired on spec.
func (s *Scheduler) AddCacheSweep(spec string, sweeper Sweeper) error {
	_, err := s.cron.AddFunc(spec, func() {
		if n := sweeper.CleanExpired(); n > 0 {
			slog.Debug("Swept expired snapshots", "removed", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cache sweep %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("Scheduler stop timed out")
	}
}

// Len reports how many jobs are registered.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// slogPrintf adapts cron's Printf logger to slog.
type slogPrintf struct{}

func (slogPrintf) Printf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "cron")
}
