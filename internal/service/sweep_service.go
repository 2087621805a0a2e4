package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/observability"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/sla"
)

// DefaultSweepLockKey names the lease shared by every instance.
const DefaultSweepLockKey = "helpdesk:sla-sweep"

// Locker grants a lease on a key. ok is false when another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// SweepService walks open tickets and raises SLA warnings.
//
// A manual edit racing with the sweep can observe a warning decided just
// before its commit; at most one extra warning per ticket results.
type SweepService struct {
	store      repository.Store
	clock      sla.Clock
	locker     Locker
	lockKey    string
	lockTTL    time.Duration
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// SweepDependencies bundles collaborators for the sweep.
type SweepDependencies struct {
	Store      repository.Store
	Clock      sla.Clock
	Locker     Locker
	LockKey    string
	LockTTL    time.Duration
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SweepWarning describes one warning raised by a pass.
type SweepWarning struct {
	TicketID  string
	TicketNo  string
	SLAStatus domain.SLAStatus
	Remaining string
}

// SweepResult summarizes one pass. Skipped is set when another instance
// held the lease.
type SweepResult struct {
	Scanned  int
	Warned   int
	Failed   int
	Skipped  bool
	Warnings []SweepWarning
}

// NewSweepService constructs the service.
func NewSweepService(deps SweepDependencies) *SweepService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	key := deps.LockKey
	if key == "" {
		key = DefaultSweepLockKey
	}
	ttl := deps.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SweepService{
		store:      deps.Store,
		clock:      clock,
		locker:     deps.Locker,
		lockKey:    key,
		lockTTL:    ttl,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Run performs one pass over every open ticket.
func (s *SweepService) Run(ctx context.Context) (*SweepResult, error) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, s.lockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			s.logger.Info("sla sweep skipped: lock held elsewhere")
			return &SweepResult{Skipped: true, Warnings: []SweepWarning{}}, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	tickets, err := s.store.Repos().Tickets.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open tickets: %w", err)
	}

	result := &SweepResult{Warnings: []SweepWarning{}}
	for i := range tickets {
		if ctx.Err() != nil {
			break
		}
		result.Scanned++
		warning, err := s.checkTicket(ctx, tickets[i])
		if err != nil {
			result.Failed++
			s.logger.Error("sla check failed",
				zap.String("ticket_id", tickets[i].ID),
				zap.String("ticket_no", tickets[i].TicketNo),
				zap.Error(err))
			continue
		}
		if warning != nil {
			result.Warned++
			result.Warnings = append(result.Warnings, *warning)
		}
	}

	elapsed := time.Since(start)
	s.metrics.RecordSweep(result.Scanned, result.Warned, result.Failed, elapsed)
	s.logger.Info("sla sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("warned", result.Warned),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", elapsed))
	return result, nil
}

func (s *SweepService) checkTicket(ctx context.Context, t domain.Ticket) (warning *SweepWarning, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	now := s.clock.Now()
	if status := sla.ClassifyTicket(&t, now); status != t.SLAStatus {
		if err := s.store.Repos().Tickets.UpdateSLAStatus(ctx, t.ID, status); err != nil {
			s.logger.Warn("refresh cached sla status", zap.String("ticket_id", t.ID), zap.Error(err))
		}
	}
	if !sla.NeedsWarning(t.CreatedAt, t.SLADeadline, t.SLAWarnedAt, now) {
		return nil, nil
	}

	var warned *domain.Ticket
	var remaining sla.RemainingTime
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Tickets.GetForUpdate(ctx, t.ID)
		if err != nil {
			return err
		}
		if !locked.Status.IsOpen() || !sla.NeedsWarning(locked.CreatedAt, locked.SLADeadline, locked.SLAWarnedAt, now) {
			return nil
		}

		remaining = sla.Remaining(now, locked.SLADeadline)
		locked.SLAWarnedAt = &now
		locked.SLAStatus = sla.ClassifyTicket(locked, now)
		if err := repos.Tickets.Update(ctx, locked); err != nil {
			return err
		}
		note := domain.Note{
			TicketID:  locked.ID,
			Content:   fmt.Sprintf(slaWarningNoteFormat, remaining.DisplayText),
			CreatedBy: domain.ActorSystem,
			CreatedAt: now,
		}
		if err := repos.Notes.Append(ctx, &note); err != nil {
			return err
		}
		warned = locked
		return nil
	})
	if err != nil || warned == nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, now, events.Event{
		Type:     events.EventSLAWarning,
		TicketID: warned.ID,
		TicketNo: warned.TicketNo,
		Actor:    domain.ActorSystem,
		Payload: events.SLAWarningPayload{
			SLAStatus: warned.SLAStatus,
			Remaining: remaining.DisplayText,
			Overdue:   remaining.IsOverdue,
			Deadline:  warned.SLADeadline,
		},
	})
	return &SweepWarning{
		TicketID:  warned.ID,
		TicketNo:  warned.TicketNo,
		SLAStatus: warned.SLAStatus,
		Remaining: remaining.DisplayText,
	}, nil
}
