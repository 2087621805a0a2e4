package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/notify"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/worker"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

// Enqueuer accepts delivery jobs without blocking.
type Enqueuer interface {
	Enqueue(job worker.Job) error
}

// NotificationService turns ticket events into chat messages and hands them
// to the delivery queue.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      repository.Store
	notifier   notify.Notifier
	queue      Enqueuer
	routing    domain.Routing
	policies   domain.PolicyTable
	baseURL    string
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Store      repository.Store
	Notifier   notify.Notifier
	Queue      Enqueuer
	Routing    domain.Routing
	Policies   domain.PolicyTable
	BaseURL    string
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policies := deps.Policies
	if policies == nil {
		policies = domain.DefaultPolicies
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		store:      deps.Store,
		notifier:   deps.Notifier,
		queue:      deps.Queue,
		routing:    deps.Routing,
		policies:   policies,
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
		logger:     logger,
	}
}

// RegisterHandlers subscribes to the events that produce chat messages.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketRouted, n.handleTicketRouted)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketResolved, n.handleTicketResolved)
	n.dispatcher.Subscribe(events.EventSLAWarning, n.handleSLAWarning)
}

func (n *NotificationService) handleTicketRouted(_ context.Context, event events.Event) error {
	return n.enqueue(event, notify.DepartmentRouted)
}

func (n *NotificationService) handleTicketAssigned(_ context.Context, event events.Event) error {
	return n.enqueue(event, notify.Assigned)
}

func (n *NotificationService) handleTicketResolved(_ context.Context, event events.Event) error {
	return n.enqueue(event, notify.Resolved)
}

func (n *NotificationService) handleSLAWarning(_ context.Context, event events.Event) error {
	return n.enqueue(event, notify.SLAWarning)
}

func (n *NotificationService) enqueue(event events.Event, render func(notify.TicketCard) notify.Message) error {
	if n.queue == nil || n.notifier == nil {
		return nil
	}
	return n.queue.Enqueue(worker.Job{
		Kind:     string(event.Type),
		TicketID: event.TicketID,
		Send: func(ctx context.Context) error {
			return n.deliver(ctx, event, render)
		},
	})
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, render func(notify.TicketCard) notify.Message) error {
	repos := n.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			n.logger.Info("ticket gone before notification", zap.String("ticket_id", event.TicketID))
			return nil
		}
		return fmt.Errorf("load ticket: %w", err)
	}

	channel, ok := n.routing.ChannelFor(ticket.Department)
	if !ok {
		n.logger.Warn("no notification channel configured",
			zap.String("ticket_id", ticket.ID),
			zap.String("event_type", string(event.Type)))
		return nil
	}

	var customer *domain.Customer
	if c, err := repos.Customers.GetByID(ctx, ticket.CustomerID); err == nil {
		customer = c
	}
	card := n.card(ticket, customer)
	if payload, ok := event.Payload.(events.SLAWarningPayload); ok {
		card.Remaining = payload.Remaining
	}

	msg := render(card)
	if err := n.notifier.SendStructuredMessage(ctx, channel, msg.Summary, msg.Payload); err != nil {
		return fmt.Errorf("send %s to %s: %w", event.Type, channel, err)
	}
	return nil
}

// SendTest pushes a plain text message to a department channel, or to the
// default channel when department is empty.
func (n *NotificationService) SendTest(ctx context.Context, department, text string) (string, error) {
	var dept *domain.Department
	if strings.TrimSpace(department) != "" {
		parsed, err := domain.ParseDepartment(department)
		if err != nil {
			return "", apperrors.NewInvalidArgument("department", err.Error())
		}
		dept = &parsed
	}
	channel, ok := n.routing.ChannelFor(dept)
	if !ok {
		return "", apperrors.NewInvalidArgument("department", "no LINE group configured")
	}
	if strings.TrimSpace(text) == "" {
		text = "🔔 ทดสอบการแจ้งเตือนจากระบบ Helpdesk"
	}
	if err := n.notifier.SendText(ctx, channel, text); err != nil {
		return channel, err
	}
	return channel, nil
}

// TicketURL is the deep link to the ticket page.
func (n *NotificationService) TicketURL(ticketID string) string {
	if n.baseURL == "" {
		return ""
	}
	return n.baseURL + "/tickets/" + ticketID
}

func (n *NotificationService) card(t *domain.Ticket, customer *domain.Customer) notify.TicketCard {
	card := notify.TicketCard{
		TicketNo:    t.TicketNo,
		IssueLabel:  n.policies.LabelFor(t.IssueType),
		Priority:    string(t.Priority),
		Description: t.Description,
		URL:         n.TicketURL(t.ID),
	}
	if t.IssueType == domain.IssueOther && t.IssueTypeOther != "" {
		card.IssueLabel += ": " + t.IssueTypeOther
	}
	if t.Department != nil {
		card.DepartmentLabel = n.routing.LabelFor(*t.Department)
	}
	if t.AssignedTo != nil {
		card.AssignedTo = *t.AssignedTo
	}
	if t.ResolvedBy != nil {
		card.ResolvedBy = *t.ResolvedBy
	}
	if customer != nil {
		card.CustomerName = customer.Name
		card.CustomerPhone = customer.Phone
	}
	return card
}
