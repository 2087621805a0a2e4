package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweepFunc runs one SLA pass.
type SweepFunc func(ctx context.Context) error

// SweepScheduler triggers the SLA sweep on a cron schedule. Overlapping runs
// are skipped rather than queued.
type SweepScheduler struct {
	cron    *cron.Cron
	sweep   SweepFunc
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSweepScheduler parses schedule (standard five field cron) in loc.
func NewSweepScheduler(schedule string, loc *time.Location, timeout time.Duration, sweep SweepFunc, logger *zap.Logger) (*SweepScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SweepScheduler{
		sweep:   sweep,
		timeout: timeout,
		logger:  logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		s.cancel()
		return nil, err
	}
	return s, nil
}

// Start begins firing on schedule.
func (s *SweepScheduler) Start() {
	s.logger.Info("sla sweep scheduler started", zap.Int("entries", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep or ctx.
func (s *SweepScheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.cancel()
	}
	s.cancel()
}

// Next reports the next scheduled run.
func (s *SweepScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *SweepScheduler) runOnce() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.sweep(ctx); err != nil {
		s.logger.Error("scheduled sla sweep failed", zap.Error(err))
	}
}
