package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string

	d.Subscribe(EventTicketRouted, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketRouted, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketRouted, TicketID: "t1"}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	reached := false
	d.Subscribe(EventSLAWarning, func(context.Context, Event) error {
		panic("nil card")
	})
	d.Subscribe(EventSLAWarning, func(context.Context, Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		require.NoError(t, d.Publish(context.Background(), Event{Type: EventSLAWarning}))
	})
	assert.True(t, reached)
}

func TestEncodeMessage(t *testing.T) {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	event := Event{
		ID:        "e1",
		Type:      EventTicketRouted,
		TicketID:  "t1",
		TicketNo:  "TH-20250203-0001",
		Actor:     "Staff",
		Timestamp: ts,
		Payload:   TicketRoutedPayload{Department: domain.DepartmentDB3},
	}

	msg, err := EncodeMessage(event)
	require.NoError(t, err)
	assert.Equal(t, []byte("t1"), msg.Key)
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "ticket.routed", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "TH-20250203-0001", decoded["ticket_no"])
	assert.Equal(t, "DB3", decoded["payload"].(map[string]any)["department"])
}

func TestKafkaSinkDisabledWithoutBrokers(t *testing.T) {
	sink := NewKafkaSink(nil, "topic", nil)
	assert.False(t, sink.Enabled())
	assert.NoError(t, sink.Handle(context.Background(), Event{Type: EventSLAWarning}))
	assert.NoError(t, sink.Close())

	d := NewInMemoryDispatcher(nil)
	sink.Attach(d)
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventSLAWarning}))
}
