package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

type statusHistoryRepository struct {
	db querier
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(db querier) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) Append(ctx context.Context, h *domain.StatusHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO status_history (id, ticket_id, from_status, to_status, changed_by, note, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Exec(ctx, query,
		h.ID,
		h.TicketID,
		string(h.FromStatus),
		string(h.ToStatus),
		h.ChangedBy,
		h.Note,
		h.CreatedAt,
	)
	return err
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusHistory, error) {
	const query = `
        SELECT id, ticket_id, from_status, to_status, changed_by, note, created_at
        FROM status_history WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistory
	for rows.Next() {
		var (
			h        domain.StatusHistory
			from, to string
		)
		if err := rows.Scan(&h.ID, &h.TicketID, &from, &to, &h.ChangedBy, &h.Note, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.FromStatus = domain.TicketStatus(from)
		h.ToStatus = domain.TicketStatus(to)
		result = append(result, h)
	}
	return result, rows.Err()
}
