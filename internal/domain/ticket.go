package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
}

// IsOpen reports whether the status still counts against the SLA.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusPending:
		return true
	default:
		return false
	}
}

// ParseTicketStatus validates a raw status value.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	candidate := TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range TicketStatuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ParseTicketPriority validates a raw priority value.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	switch p := TicketPriority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return p, nil
	default:
		return "", fmt.Errorf("unknown ticket priority %q", raw)
	}
}

// SLAStatus is the classification of a ticket against its deadline.
type SLAStatus string

const (
	SLAStatusOnTrack  SLAStatus = "ON_TRACK"
	SLAStatusAtRisk   SLAStatus = "AT_RISK"
	SLAStatusBreached SLAStatus = "BREACHED"
)

// Actor labels written into history rows and notes.
const (
	ActorSystem        = "System"
	ActorStaff         = "Staff"
	ActorEndUserAuthor = "ลูกค้า"
)

// DefaultChannel is the intake channel used when none is given.
const DefaultChannel = "CEC"

// Ticket is the aggregate for a customer complaint.
type Ticket struct {
	ID               string
	TicketNo         string
	CustomerID       string
	Channel          string
	IssueType        IssueType
	IssueTypeOther   string
	Priority         TicketPriority
	Status           TicketStatus
	Department       *Department
	AssignedTo       *string
	TrackingNo       string
	ZoneID           string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	Description      string
	SalesforceID     *string
	SLAHours         int
	SLADeadline      time.Time
	SLAStatus        SLAStatus
	SLAWarnedAt      *time.Time
	ResolvedBy       *string
	ResolvedAt       *time.Time
	ClosedBy         *string
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsResolved reports whether SLA tracking is frozen for the ticket.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// Clone returns a deep copy so callers can diff before/after values.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Department = clonePtr(t.Department)
	cp.AssignedTo = clonePtr(t.AssignedTo)
	cp.SalesforceID = clonePtr(t.SalesforceID)
	cp.SLAWarnedAt = clonePtr(t.SLAWarnedAt)
	cp.ResolvedBy = clonePtr(t.ResolvedBy)
	cp.ResolvedAt = clonePtr(t.ResolvedAt)
	cp.ClosedBy = clonePtr(t.ClosedBy)
	cp.ClosedAt = clonePtr(t.ClosedAt)
	return &cp
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// FormatTicketNo renders the human facing number for the n-th ticket of a day.
func FormatTicketNo(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", TicketNoPrefix(day), seq)
}

// TicketNoPrefix is the part of a ticket number shared by one day.
func TicketNoPrefix(day time.Time) string {
	return "TH-" + day.Format("20060102") + "-"
}

// TicketSequence extracts the daily sequence from a number issued on day.
func TicketSequence(ticketNo string, day time.Time) (int, bool) {
	suffix, ok := strings.CutPrefix(ticketNo, TicketNoPrefix(day))
	if !ok || suffix == "" {
		return 0, false
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
