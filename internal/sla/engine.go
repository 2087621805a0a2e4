// Package sla classifies tickets against their response deadline. Every
// function is pure; callers pass the current time explicitly.
package sla

import (
	"fmt"
	"math"
	"time"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

const (
	// AtRiskThreshold is the share of the budget after which a ticket is at risk.
	AtRiskThreshold = 0.8
	// WarningCooldown is the minimum gap between two warnings for one ticket.
	WarningCooldown = 30 * time.Minute

	overduePrefix = "เกิน "
)

// Policy exposes the budget lookup the engine needs.
type Policy interface {
	SLAHoursFor(issueType domain.IssueType) int
}

// ComputeDeadline returns createdAt plus the issue type budget.
func ComputeDeadline(createdAt time.Time, issueType domain.IssueType, policy Policy) time.Time {
	return DeadlineFor(createdAt, policy.SLAHoursFor(issueType))
}

// DeadlineFor adds a budget in whole hours.
func DeadlineFor(createdAt time.Time, hours int) time.Time {
	return createdAt.Add(time.Duration(hours) * time.Hour)
}

// Classify returns the SLA status of a ticket at now.
func Classify(createdAt, deadline, now time.Time, resolved bool) domain.SLAStatus {
	if resolved {
		return domain.SLAStatusOnTrack
	}
	if now.After(deadline) {
		return domain.SLAStatusBreached
	}

	budget := deadline.Sub(createdAt)
	elapsed := now.Sub(createdAt)
	if budget <= 0 {
		if elapsed >= 0 {
			return domain.SLAStatusBreached
		}
		return domain.SLAStatusOnTrack
	}

	used := float64(elapsed) / float64(budget)
	if used >= AtRiskThreshold {
		return domain.SLAStatusAtRisk
	}
	return domain.SLAStatusOnTrack
}

// ClassifyTicket is Classify applied to a stored ticket.
func ClassifyTicket(t *domain.Ticket, now time.Time) domain.SLAStatus {
	return Classify(t.CreatedAt, t.SLADeadline, now, t.IsResolved())
}

// RemainingTime describes the signed distance to a deadline.
type RemainingTime struct {
	Hours       float64
	IsOverdue   bool
	DisplayText string
}

// Remaining measures now against deadline and renders it for staff.
func Remaining(now, deadline time.Time) RemainingTime {
	hours := deadline.Sub(now).Hours()
	overdue := hours < 0

	text := formatHours(math.Abs(hours))
	if overdue {
		text = overduePrefix + text
	}
	return RemainingTime{Hours: hours, IsOverdue: overdue, DisplayText: text}
}

func formatHours(abs float64) string {
	if abs < 1 {
		minutes := int(math.Round(abs * 60))
		if minutes < 60 {
			return fmt.Sprintf("%d นาที", minutes)
		}
		return "1 ชั่วโมง"
	}
	if abs < 24 {
		hours := int(math.Round(abs))
		if hours < 24 {
			return fmt.Sprintf("%d ชั่วโมง", hours)
		}
		return "1 วัน 0 ชั่วโมง"
	}
	days := int(math.Floor(abs / 24))
	hours := int(math.Round(math.Mod(abs, 24)))
	if hours == 24 {
		days++
		hours = 0
	}
	return fmt.Sprintf("%d วัน %d ชั่วโมง", days, hours)
}

// NeedsWarning reports whether a warning is due: the ticket must be at risk
// or breached and the last warning, if any, older than WarningCooldown.
func NeedsWarning(createdAt, deadline time.Time, lastWarningAt *time.Time, now time.Time) bool {
	status := Classify(createdAt, deadline, now, false)
	if status != domain.SLAStatusAtRisk && status != domain.SLAStatusBreached {
		return false
	}
	if lastWarningAt == nil {
		return true
	}
	return now.Sub(*lastWarningAt) > WarningCooldown
}
