package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func newTicket(status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:          "t1",
		TicketNo:    "TH-20250310-0001",
		IssueType:   domain.IssueCheckDelivery,
		Priority:    domain.TicketPriorityMedium,
		Status:      status,
		SLAHours:    24,
		SLADeadline: t0.Add(24 * time.Hour),
		SLAStatus:   domain.SLAStatusOnTrack,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from, to domain.TicketStatus
		ok       bool
	}{
		{domain.TicketStatusNew, domain.TicketStatusInProgress, true},
		{domain.TicketStatusNew, domain.TicketStatusClosed, true},
		{domain.TicketStatusInProgress, domain.TicketStatusNew, false},
		{domain.TicketStatusPending, domain.TicketStatusInProgress, true},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, true},
		{domain.TicketStatusResolved, domain.TicketStatusPending, false},
		{domain.TicketStatusClosed, domain.TicketStatusResolved, false},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, isValidTransition(tc.from, tc.to))
		})
	}
}

func TestPlanChangeDepartmentOnNewAutoProgresses(t *testing.T) {
	plan, err := planChange(newTicket(domain.TicketStatusNew), ticketChange{Department: ptr(domain.DepartmentDB1)}, t0.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, plan.Routed)
	assert.Equal(t, domain.TicketStatusInProgress, plan.Ticket.Status)
	require.Len(t, plan.History, 1)
	assert.Equal(t, domain.ActorSystem, plan.History[0].ChangedBy)
	assert.Empty(t, plan.Notes, "automatic progress leaves no audit note")
}

func TestPlanChangeReassignmentIsNotRouting(t *testing.T) {
	current := newTicket(domain.TicketStatusInProgress)
	current.Department = ptr(domain.DepartmentDB1)

	plan, err := planChange(current, ticketChange{Department: ptr(domain.DepartmentDB2)}, t0)
	require.NoError(t, err)
	assert.False(t, plan.Routed)
	assert.False(t, plan.StatusChanged)
	assert.Equal(t, domain.DepartmentDB2, *plan.Ticket.Department)
}

func TestPlanChangeAssigneeEdges(t *testing.T) {
	plan, err := planChange(newTicket(domain.TicketStatusInProgress), ticketChange{AssignedTo: ptr(" Somchai ")}, t0)
	require.NoError(t, err)
	assert.True(t, plan.Assigned)
	assert.Equal(t, "Somchai", *plan.Ticket.AssignedTo)

	plan, err = planChange(plan.Ticket, ticketChange{AssignedTo: ptr("Malee")}, t0)
	require.NoError(t, err)
	assert.False(t, plan.Assigned)

	plan, err = planChange(plan.Ticket, ticketChange{AssignedTo: ptr("")}, t0)
	require.NoError(t, err)
	assert.False(t, plan.Assigned)
	assert.Nil(t, plan.Ticket.AssignedTo)
}

func TestPlanChangeManualStatusWritesHistoryAndNote(t *testing.T) {
	plan, err := planChange(newTicket(domain.TicketStatusInProgress), ticketChange{
		Status: ptr(domain.TicketStatusPending),
		Actor:  "Nok",
		Reason: "waiting for customer",
	}, t0)
	require.NoError(t, err)

	require.Len(t, plan.History, 1)
	assert.Equal(t, "Nok", plan.History[0].ChangedBy)
	assert.Equal(t, "waiting for customer", *plan.History[0].Note)
	require.Len(t, plan.Notes, 1)
	assert.Equal(t, "เปลี่ยนสถานะจาก IN_PROGRESS เป็น PENDING", plan.Notes[0].Content)
	assert.Equal(t, domain.ActorSystem, plan.Notes[0].CreatedBy)
}

func TestPlanChangeSameStatusIsNoop(t *testing.T) {
	plan, err := planChange(newTicket(domain.TicketStatusPending), ticketChange{Status: ptr(domain.TicketStatusPending)}, t0)
	require.NoError(t, err)
	assert.False(t, plan.StatusChanged)
	assert.Empty(t, plan.History)
	assert.Empty(t, plan.Notes)
}

func TestPlanChangeRejectsDisallowedEdge(t *testing.T) {
	_, err := planChange(newTicket(domain.TicketStatusClosed), ticketChange{Status: ptr(domain.TicketStatusResolved)}, t0)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
}

func TestPlanChangeResolutionIsSetOnce(t *testing.T) {
	first := t0.Add(2 * time.Hour)
	plan, err := planChange(newTicket(domain.TicketStatusInProgress), ticketChange{Status: ptr(domain.TicketStatusResolved)}, first)
	require.NoError(t, err)
	assert.True(t, plan.Resolved)
	assert.Equal(t, first, *plan.Ticket.ResolvedAt)
	assert.Equal(t, domain.ActorStaff, *plan.Ticket.ResolvedBy)
	assert.Equal(t, domain.SLAStatusOnTrack, plan.Ticket.SLAStatus)

	plan, err = planChange(plan.Ticket, ticketChange{Status: ptr(domain.TicketStatusInProgress)}, first.Add(time.Hour))
	require.NoError(t, err)
	plan, err = planChange(plan.Ticket, ticketChange{Status: ptr(domain.TicketStatusResolved), ResolvedBy: "Somchai"}, first.Add(2*time.Hour))
	require.NoError(t, err)

	assert.False(t, plan.Resolved)
	assert.Equal(t, first, *plan.Ticket.ResolvedAt)
	assert.Equal(t, domain.ActorStaff, *plan.Ticket.ResolvedBy)
}

func TestPlanChangeClosedStampsOnce(t *testing.T) {
	plan, err := planChange(newTicket(domain.TicketStatusResolved), ticketChange{Status: ptr(domain.TicketStatusClosed), ClosedBy: "Lead"}, t0)
	require.NoError(t, err)
	assert.Equal(t, "Lead", *plan.Ticket.ClosedBy)
	assert.Equal(t, t0, *plan.Ticket.ClosedAt)
}

func TestPlanReport(t *testing.T) {
	routed := newTicket(domain.TicketStatusInProgress)
	routed.Department = ptr(domain.DepartmentDB3)

	plan := planReport(routed, t0)
	assert.True(t, plan.StatusChanged)
	assert.Equal(t, domain.TicketStatusPending, plan.Ticket.Status)
	require.Len(t, plan.History, 1)
	assert.Equal(t, domain.ActorSystem, plan.History[0].ChangedBy)
	assert.Equal(t, historyReportPending, *plan.History[0].Note)

	for _, tc := range []struct {
		name   string
		ticket *domain.Ticket
	}{
		{"unrouted", newTicket(domain.TicketStatusInProgress)},
		{"already pending", func() *domain.Ticket { t := newTicket(domain.TicketStatusPending); t.Department = ptr(domain.DepartmentDB1); return t }()},
		{"resolved", func() *domain.Ticket { t := newTicket(domain.TicketStatusResolved); t.Department = ptr(domain.DepartmentDB1); return t }()},
		{"closed", func() *domain.Ticket { t := newTicket(domain.TicketStatusClosed); t.Department = ptr(domain.DepartmentDB1); return t }()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			plan := planReport(tc.ticket, t0)
			assert.False(t, plan.StatusChanged)
			assert.Empty(t, plan.History)
			assert.Equal(t, tc.ticket.Status, plan.Ticket.Status)
		})
	}
}
