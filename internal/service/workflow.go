package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/sla"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

const (
	noteSelectDepartment = "⚠️ โปรดเลือกแผนกรับผิดชอบ"
	historyReportPending = "สถานะเปลี่ยนเป็น PENDING เนื่องจากมีรายงานปัญหาจากพนักงาน"
	slaWarningNoteFormat = "⚠️ เตือน: ใกล้เกินเวลา SLA (เหลือเวลา: %s)"
)

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress, domain.TicketStatusPending, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusPending, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusPending:    {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ticketChange is a validated mutation request. Nil fields are left alone.
type ticketChange struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Department *domain.Department
	// AssignedTo set to "" unassigns.
	AssignedTo *string
	Actor      string
	ResolvedBy string
	ClosedBy   string
	Reason     string
}

// changePlan is the result of applying a ticketChange to the locked row:
// the new ticket, the rows to append, and which edges were crossed.
type changePlan struct {
	// At is when the change was decided; events carry it as their timestamp.
	At      time.Time
	Ticket  *domain.Ticket
	History []domain.StatusHistory
	Notes   []domain.Note

	StatusChanged bool
	FromStatus    domain.TicketStatus
	ToStatus      domain.TicketStatus
	Routed        bool
	Assigned      bool
	Resolved      bool
}

func planChange(current *domain.Ticket, change ticketChange, now time.Time) (*changePlan, error) {
	actor := strings.TrimSpace(change.Actor)
	if actor == "" {
		actor = domain.ActorStaff
	}

	next := current.Clone()
	plan := &changePlan{At: now, Ticket: next, FromStatus: current.Status, ToStatus: current.Status}

	if change.Priority != nil {
		next.Priority = *change.Priority
	}
	if change.Department != nil {
		dept := *change.Department
		plan.Routed = current.Department == nil
		next.Department = &dept
	}
	if change.AssignedTo != nil {
		if name := strings.TrimSpace(*change.AssignedTo); name == "" {
			next.AssignedTo = nil
		} else {
			plan.Assigned = current.AssignedTo == nil
			next.AssignedTo = &name
		}
	}

	target, historyActor, manual := current.Status, actor, false
	switch {
	case change.Status != nil && *change.Status != current.Status:
		target, manual = *change.Status, true
	case change.Department != nil && current.Status == domain.TicketStatusNew:
		target, historyActor = domain.TicketStatusInProgress, domain.ActorSystem
	}

	if target != current.Status {
		if !isValidTransition(current.Status, target) {
			return nil, apperrors.NewInvalidTransition(string(current.Status), string(target))
		}
		applyStatus(plan, target, change, actor, now)
		plan.History = append(plan.History, historyRow(next.ID, current.Status, target, historyActor, change.Reason, now))
		if manual {
			plan.Notes = append(plan.Notes, domain.Note{
				TicketID:  next.ID,
				Content:   fmt.Sprintf("เปลี่ยนสถานะจาก %s เป็น %s", current.Status, target),
				CreatedBy: domain.ActorSystem,
				CreatedAt: now,
			})
		}
	}

	next.SLAStatus = sla.ClassifyTicket(next, now)
	next.UpdatedAt = now
	return plan, nil
}

// planReport moves an open, routed ticket to PENDING after an end-user report.
// Anything else is left untouched and only the report note is kept.
func planReport(current *domain.Ticket, now time.Time) *changePlan {
	next := current.Clone()
	plan := &changePlan{At: now, Ticket: next, FromStatus: current.Status, ToStatus: current.Status}

	if !current.Status.IsOpen() || current.Department == nil || current.Status == domain.TicketStatusPending {
		return plan
	}
	next.Status = domain.TicketStatusPending
	next.SLAStatus = sla.ClassifyTicket(next, now)
	next.UpdatedAt = now
	plan.StatusChanged = true
	plan.ToStatus = domain.TicketStatusPending
	plan.History = append(plan.History, historyRow(next.ID, current.Status, domain.TicketStatusPending, domain.ActorSystem, historyReportPending, now))
	return plan
}

func applyStatus(plan *changePlan, target domain.TicketStatus, change ticketChange, actor string, now time.Time) {
	t := plan.Ticket
	t.Status = target
	plan.StatusChanged = true
	plan.ToStatus = target

	switch target {
	case domain.TicketStatusResolved:
		if t.ResolvedAt == nil {
			by := firstNonEmpty(change.ResolvedBy, actor)
			t.ResolvedAt = &now
			t.ResolvedBy = &by
			plan.Resolved = true
		}
	case domain.TicketStatusClosed:
		if t.ClosedAt == nil {
			by := firstNonEmpty(change.ClosedBy, actor)
			t.ClosedAt = &now
			t.ClosedBy = &by
		}
	}
}

func historyRow(ticketID string, from, to domain.TicketStatus, actor, note string, now time.Time) domain.StatusHistory {
	entry := domain.StatusHistory{
		TicketID:   ticketID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  actor,
		CreatedAt:  now,
	}
	if note = strings.TrimSpace(note); note != "" {
		entry.Note = &note
	}
	return entry
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
