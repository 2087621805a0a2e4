package domain

import "time"

// Note is an append-only entry in a ticket thread. Staff comments, end-user
// reports and system audit messages all share this shape.
type Note struct {
	ID            string
	TicketID      string
	Content       string
	CreatedBy     string
	IsFromEndUser bool
	Images        []string
	CreatedAt     time.Time
}
