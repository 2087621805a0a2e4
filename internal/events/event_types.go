package events

import (
	"time"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketRouted        EventType = "ticket.routed"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketResolved      EventType = "ticket.resolved"
	EventProblemReported     EventType = "ticket.problem_reported"
	EventSLAWarning          EventType = "ticket.sla_warning"
)

// AllEventTypes lists every type a sink may subscribe to.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketRouted,
	EventTicketAssigned,
	EventTicketStatusChanged,
	EventTicketResolved,
	EventProblemReported,
	EventSLAWarning,
}

// Event represents a domain event emitted after a ticket mutation commits.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	TicketNo  string    `json:"ticket_no"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	IssueType  domain.IssueType      `json:"issue_type"`
	Priority   domain.TicketPriority `json:"priority"`
	Department *domain.Department    `json:"department,omitempty"`
	CustomerID string                `json:"customer_id"`
	Deadline   time.Time             `json:"sla_deadline"`
}

// TicketRoutedPayload is emitted when a ticket gets its first department.
type TicketRoutedPayload struct {
	Department domain.Department `json:"department"`
}

// TicketAssignedPayload is emitted when a ticket gets its first assignee.
type TicketAssignedPayload struct {
	AssignedTo string `json:"assigned_to"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}

// TicketResolvedPayload is emitted on the first resolution only.
type TicketResolvedPayload struct {
	ResolvedBy string `json:"resolved_by"`
}

// ProblemReportedPayload payload.
type ProblemReportedPayload struct {
	NoteID      string `json:"note_id"`
	ImageCount  int    `json:"image_count"`
	MovedToWait bool   `json:"moved_to_pending"`
}

// SLAWarningPayload payload.
type SLAWarningPayload struct {
	SLAStatus domain.SLAStatus `json:"sla_status"`
	Remaining string           `json:"remaining"`
	Overdue   bool             `json:"overdue"`
	Deadline  time.Time        `json:"sla_deadline"`
}
