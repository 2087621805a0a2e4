package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

type noteRepository struct {
	db querier
}

// NewNoteRepository builds repository.
func NewNoteRepository(db querier) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Append(ctx context.Context, n *domain.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Images == nil {
		n.Images = []string{}
	}
	const query = `
        INSERT INTO notes (id, ticket_id, content, created_by, is_from_end_user, images, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Exec(ctx, query, n.ID, n.TicketID, n.Content, n.CreatedBy, n.IsFromEndUser, n.Images, n.CreatedAt)
	return err
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, content, created_by, is_from_end_user, images, created_at
        FROM notes WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.TicketID, &n.Content, &n.CreatedBy, &n.IsFromEndUser, &n.Images, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
