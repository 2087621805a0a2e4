package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/notify"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/worker"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	Channel string
	Summary string
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentMessage
	calls int
	errs  []error
}

func (n *recordingNotifier) record(channel, summary string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.calls <= len(n.errs) && n.errs[n.calls-1] != nil {
		return n.errs[n.calls-1]
	}
	n.sent = append(n.sent, sentMessage{Channel: channel, Summary: summary})
	return nil
}

func (n *recordingNotifier) SendText(_ context.Context, channel, text string) error {
	return n.record(channel, text)
}

func (n *recordingNotifier) SendStructuredMessage(_ context.Context, channel, summary string, _ any) error {
	return n.record(channel, summary)
}

func (n *recordingNotifier) Sent() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func (n *recordingNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// inlineQueue runs jobs on the caller's goroutine.
type inlineQueue struct {
	mu   sync.Mutex
	errs []error
}

func (q *inlineQueue) Enqueue(job worker.Job) error {
	err := job.Send(context.Background())
	q.mu.Lock()
	q.errs = append(q.errs, err)
	q.mu.Unlock()
	return nil
}

type harness struct {
	store         repository.Store
	clock         *fakeClock
	notifier      *recordingNotifier
	dispatcher    events.Dispatcher
	tickets       *TicketService
	sweep         *SweepService
	notifications *NotificationService
}

var testRouting = domain.Routing{
	Channels: map[domain.Department]string{
		domain.DepartmentDB1: "G-DB1",
		domain.DepartmentDB2: "G-DB2",
	},
	DefaultChannel: "G-DEFAULT",
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, repository.NewMemoryStore(), &inlineQueue{}, &recordingNotifier{}, nil)
}

func newHarnessWith(t *testing.T, store repository.Store, queue Enqueuer, notifier notify.Notifier, locker Locker) *harness {
	t.Helper()
	h := &harness{
		store:      store,
		clock:      &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, bangkok)},
		dispatcher: events.NewInMemoryDispatcher(nil),
	}
	if rn, ok := notifier.(*recordingNotifier); ok {
		h.notifier = rn
	}
	h.tickets = NewTicketService(TicketDependencies{
		Store:      store,
		Clock:      h.clock,
		Dispatcher: h.dispatcher,
	})
	h.sweep = NewSweepService(SweepDependencies{
		Store:      store,
		Clock:      h.clock,
		Locker:     locker,
		Dispatcher: h.dispatcher,
	})
	h.notifications = NewNotificationService(NotificationDependencies{
		Dispatcher: h.dispatcher,
		Store:      store,
		Notifier:   notifier,
		Queue:      queue,
		Routing:    testRouting,
		BaseURL:    "https://helpdesk.example/",
	})
	h.notifications.RegisterHandlers()
	return h
}

func validCreate() TicketCreateInput {
	return TicketCreateInput{
		CustomerName:     "สมชาย ใจดี",
		CustomerPhone:    "081-234-5678",
		IssueType:        string(domain.IssueCheckDelivery),
		RecipientName:    "สมหญิง",
		RecipientPhone:   "0899999999",
		RecipientAddress: "99 ถนนสุขุมวิท กรุงเทพฯ",
		Description:      "พัสดุยังไม่ถึงผู้รับ",
	}
}

func (h *harness) create(t *testing.T, mutate func(*TicketCreateInput)) *TicketDetail {
	t.Helper()
	input := validCreate()
	if mutate != nil {
		mutate(&input)
	}
	detail, err := h.tickets.CreateTicket(context.Background(), input)
	require.NoError(t, err)
	return detail
}

func (h *harness) reload(t *testing.T, id string) *TicketDetail {
	t.Helper()
	detail, err := h.tickets.GetTicket(context.Background(), id)
	require.NoError(t, err)
	return detail
}

func summaries(sent []sentMessage) []string {
	out := make([]string, 0, len(sent))
	for _, m := range sent {
		out = append(out, m.Channel+" "+m.Summary)
	}
	return out
}
