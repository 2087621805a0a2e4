package domain

import "time"

// StatusHistory is an immutable record of one status transition.
type StatusHistory struct {
	ID         string
	TicketID   string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	ChangedBy  string
	Note       *string
	CreatedAt  time.Time
}
