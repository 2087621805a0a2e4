package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/observability"
)

// ErrQueueClosed is returned by Enqueue after Stop.
var ErrQueueClosed = errors.New("notification queue closed")

// ErrQueueFull is returned when the queue has no free slot.
var ErrQueueFull = errors.New("notification queue full")

// DefaultJobTimeout bounds one job, retries included.
const DefaultJobTimeout = time.Minute

// Job is one outbound delivery. Kind labels metrics and logs.
type Job struct {
	Kind     string
	TicketID string
	Send     func(ctx context.Context) error
}

// NotificationPool delivers jobs on a fixed number of goroutines. Enqueue
// never blocks the caller; a full queue drops the job.
type NotificationPool struct {
	queue      chan Job
	workers    int
	jobTimeout time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewNotificationPool sizes the pool. Non-positive values fall back to one
// worker and a queue of 64.
func NewNotificationPool(workers, queueSize int, logger *zap.Logger, metrics *observability.Metrics) *NotificationPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationPool{
		queue:      make(chan Job, queueSize),
		workers:    workers,
		jobTimeout: DefaultJobTimeout,
		logger:     logger,
		metrics:    metrics,
	}
}

// WithJobTimeout replaces the per-job deadline. Call it before Start.
func (p *NotificationPool) WithJobTimeout(d time.Duration) *NotificationPool {
	if d > 0 {
		p.jobTimeout = d
	}
	return p
}

// Start launches the workers. Each job runs under ctx bounded by the job
// timeout.
func (p *NotificationPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Enqueue schedules job for delivery.
func (p *NotificationPool) Enqueue(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.queue <- job:
		return nil
	default:
		p.metrics.RecordQueueDrop()
		p.logger.Warn("notification dropped: queue full",
			zap.String("kind", job.Kind),
			zap.String("ticket_id", job.TicketID))
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued jobs to finish or ctx to end.
func (p *NotificationPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *NotificationPool) run(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.queue {
		p.deliver(ctx, job)
	}
}

func (p *NotificationPool) deliver(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.RecordNotification(job.Kind, "panic")
			p.logger.Error("notification job panicked",
				zap.String("kind", job.Kind),
				zap.String("ticket_id", job.TicketID),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()
	if err := job.Send(ctx); err != nil {
		p.metrics.RecordNotification(job.Kind, "failed")
		p.logger.Error("notification delivery failed",
			zap.String("kind", job.Kind),
			zap.String("ticket_id", job.TicketID),
			zap.Error(err))
		return
	}
	p.metrics.RecordNotification(job.Kind, "delivered")
	p.logger.Debug("notification delivered",
		zap.String("kind", job.Kind),
		zap.String("ticket_id", job.TicketID))
}
