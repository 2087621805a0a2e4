package dto

import (
	"time"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

// CreateTicketRequest payload. Either customerId or the customer block is required.
type CreateTicketRequest struct {
	CustomerID       string `json:"customerId"`
	CustomerName     string `json:"customerName"`
	CustomerPhone    string `json:"customerPhone"`
	CustomerEmail    string `json:"customerEmail"`
	Channel          string `json:"channel"`
	IssueType        string `json:"issueType"`
	IssueTypeOther   string `json:"issueTypeOther"`
	Department       string `json:"department"`
	TrackingNo       string `json:"trackingNo"`
	ZoneID           string `json:"zoneId"`
	RecipientName    string `json:"recipientName"`
	RecipientPhone   string `json:"recipientPhone"`
	RecipientAddress string `json:"recipientAddress"`
	Description      string `json:"description"`
	SalesforceID     string `json:"salesforceId"`
}

// UpdateTicketRequest is a partial update. Omitted fields are untouched;
// assignedTo "" unassigns.
type UpdateTicketRequest struct {
	Status        *string `json:"status"`
	Priority      *string `json:"priority"`
	Department    *string `json:"department"`
	AssignedTo    *string `json:"assignedTo"`
	ChangedBy     string  `json:"changedBy"`
	ResolvedBy    string  `json:"resolvedBy"`
	ClosedBy      string  `json:"closedBy"`
	Note          string  `json:"note"`
	IsFromEndUser bool    `json:"isFromEndUser"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy"`
}

// LineTestRequest payload.
type LineTestRequest struct {
	Department string `json:"department"`
	Message    string `json:"message"`
}

// CustomerResponse is the customer block of a ticket.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// RemainingResponse is the signed distance to the SLA deadline.
type RemainingResponse struct {
	Hours       float64 `json:"hours"`
	IsOverdue   bool    `json:"isOverdue"`
	DisplayText string  `json:"displayText"`
}

// SLAResponse is the live SLA view.
type SLAResponse struct {
	Status    domain.SLAStatus  `json:"status"`
	Deadline  time.Time         `json:"deadline"`
	Hours     int               `json:"hours"`
	Remaining RemainingResponse `json:"remaining"`
}

// TicketResponse is a ticket row.
type TicketResponse struct {
	ID               string                `json:"id"`
	TicketNo         string                `json:"ticketNo"`
	Channel          string                `json:"channel"`
	IssueType        domain.IssueType      `json:"issueType"`
	IssueTypeOther   string                `json:"issueTypeOther,omitempty"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	Department       *domain.Department    `json:"department"`
	AssignedTo       *string               `json:"assignedTo"`
	TrackingNo       string                `json:"trackingNo,omitempty"`
	ZoneID           string                `json:"zoneId,omitempty"`
	RecipientName    string                `json:"recipientName"`
	RecipientPhone   string                `json:"recipientPhone"`
	RecipientAddress string                `json:"recipientAddress"`
	Description      string                `json:"description"`
	SalesforceID     *string               `json:"salesforceId"`
	SLA              SLAResponse           `json:"sla"`
	ResolvedBy       *string               `json:"resolvedBy"`
	ResolvedAt       *time.Time            `json:"resolvedAt"`
	ClosedBy         *string               `json:"closedBy"`
	ClosedAt         *time.Time            `json:"closedAt"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Customer         *CustomerResponse     `json:"customer,omitempty"`
}

// TicketDetailResponse adds the thread and the audit trail.
type TicketDetailResponse struct {
	TicketResponse
	Notes   []NoteResponse    `json:"notes"`
	History []HistoryResponse `json:"history"`
}

// NoteResponse is one note in a ticket thread.
type NoteResponse struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	CreatedBy     string    `json:"createdBy"`
	IsFromEndUser bool      `json:"isFromEndUser"`
	Images        []string  `json:"images"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HistoryResponse is one status transition.
type HistoryResponse struct {
	ID         string              `json:"id"`
	FromStatus domain.TicketStatus `json:"fromStatus"`
	ToStatus   domain.TicketStatus `json:"toStatus"`
	ChangedBy  string              `json:"changedBy"`
	Note       *string             `json:"note"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// ReportResponse is returned after an end-user report.
type ReportResponse struct {
	Note   NoteResponse   `json:"note"`
	Ticket TicketResponse `json:"ticket"`
}

// CustomerMatchResponse is one customer search hit.
type CustomerMatchResponse struct {
	CustomerResponse
	OpenTicketCount int              `json:"openTicketCount"`
	OpenTickets     []TicketResponse `json:"openTickets"`
}

// DashboardStatsResponse counts tickets per status.
type DashboardStatsResponse struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
	Open       int `json:"open"`

	CreatedToday int `json:"createdToday"`
}

// SweepWarningResponse is one warning raised by a sweep.
type SweepWarningResponse struct {
	TicketID  string           `json:"ticketId"`
	TicketNo  string           `json:"ticketNo"`
	SLAStatus domain.SLAStatus `json:"slaStatus"`
	Remaining string           `json:"remaining"`
}

// SweepResponse summarizes one sweep pass.
type SweepResponse struct {
	Scanned  int                    `json:"scanned"`
	Warned   int                    `json:"warned"`
	Failed   int                    `json:"failed"`
	Skipped  bool                   `json:"skipped"`
	Warnings []SweepWarningResponse `json:"warnings"`
}
