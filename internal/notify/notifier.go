// Package notify delivers human readable ticket events to LINE groups.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Notifier sends one message to a channel. Implementations report delivery
// failures as TransientError or PermanentError.
type Notifier interface {
	SendText(ctx context.Context, channel, text string) error
	SendStructuredMessage(ctx context.Context, channel, summary string, payload any) error
}

// TransientError marks a failure worth retrying: network trouble, 5xx or 429.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient delivery failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient delivery failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a request the transport rejected outright.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent delivery failure (status %d): %v", e.StatusCode, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// Disabled drops every message. It is used when no access token is configured.
type Disabled struct {
	Logger *zap.Logger
}

// SendText implements Notifier.
func (d Disabled) SendText(_ context.Context, channel, text string) error {
	d.log(channel, text)
	return nil
}

// SendStructuredMessage implements Notifier.
func (d Disabled) SendStructuredMessage(_ context.Context, channel, summary string, _ any) error {
	d.log(channel, summary)
	return nil
}

func (d Disabled) log(channel, summary string) {
	if d.Logger != nil {
		d.Logger.Debug("notifier disabled; message dropped", zap.String("channel", channel), zap.String("summary", summary))
	}
}
