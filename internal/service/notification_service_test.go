package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

func TestSendTestPicksChannel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	channel, err := h.notifications.SendTest(ctx, "db2", "")
	require.NoError(t, err)
	assert.Equal(t, "G-DB2", channel)

	channel, err = h.notifications.SendTest(ctx, "DB5", "hello")
	require.NoError(t, err)
	assert.Equal(t, "G-DEFAULT", channel)

	_, err = h.notifications.SendTest(ctx, "DB9", "hello")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidArgument))

	sent := h.notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "hello", sent[1].Summary)
}

func TestNotificationSkippedWithoutChannel(t *testing.T) {
	store := repository.NewMemoryStore()
	notifier := &recordingNotifier{}
	h := newHarnessWith(t, store, &inlineQueue{}, notifier, nil)
	h.notifications = NewNotificationService(NotificationDependencies{
		Store:    store,
		Notifier: notifier,
		Queue:    &inlineQueue{},
	})

	id := h.create(t, nil).Ticket.ID
	err := h.notifications.deliver(context.Background(), events.Event{Type: events.EventTicketResolved, TicketID: id}, nil)
	require.NoError(t, err)

	err = h.notifications.deliver(context.Background(), events.Event{Type: events.EventTicketResolved, TicketID: "gone"}, nil)
	require.NoError(t, err)
	assert.Zero(t, notifier.Calls())
}

func TestCardLabelsOtherIssues(t *testing.T) {
	h := newHarness(t)
	dept := domain.DepartmentDB5
	card := h.notifications.card(&domain.Ticket{
		ID:             "t-1",
		TicketNo:       "TH-20250310-0007",
		IssueType:      domain.IssueOther,
		IssueTypeOther: "จ่าหน้าผิด",
		Priority:       domain.TicketPriorityMedium,
		Department:     &dept,
	}, &domain.Customer{Name: "สมชาย", Phone: "0812345678"})

	assert.Equal(t, "อื่นๆ: จ่าหน้าผิด", card.IssueLabel)
	assert.Equal(t, "นำจ่ายรถยนต์", card.DepartmentLabel)
	assert.Equal(t, "https://helpdesk.example/tickets/t-1", card.URL)
	assert.Equal(t, "สมชาย", card.CustomerName)
}
