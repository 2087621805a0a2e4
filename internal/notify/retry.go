package notify

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds delivery attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	AttemptTimeout time.Duration
}

// Retrying wraps a Notifier with exponential backoff. Only TransientError
// results are retried.
type Retrying struct {
	next   Notifier
	policy RetryPolicy
}

// NewRetrying wraps next.
func NewRetrying(next Notifier, policy RetryPolicy) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = 100 * time.Millisecond
	}
	return &Retrying{next: next, policy: policy}
}

// SendText implements Notifier.
func (r *Retrying) SendText(ctx context.Context, channel, text string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.SendText(ctx, channel, text)
	})
}

// SendStructuredMessage implements Notifier.
func (r *Retrying) SendStructuredMessage(ctx context.Context, channel, summary string, payload any) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.SendStructuredMessage(ctx, channel, summary, payload)
	})
}

func (r *Retrying) do(ctx context.Context, send func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(r.policy.MaxAttempts-1), retry.NewExponential(r.policy.InitialBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx := ctx
		if r.policy.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.policy.AttemptTimeout)
			defer cancel()
		}
		err := send(attemptCtx)
		if err != nil && IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
