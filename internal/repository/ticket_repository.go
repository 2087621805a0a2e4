package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

const ticketColumns = `id, ticket_no, customer_id, channel, issue_type, issue_type_other, priority, status,
        department, assigned_to, tracking_no, zone_id, recipient_name, recipient_phone, recipient_address,
        description, salesforce_id, sla_hours, sla_deadline, sla_status, sla_warned_at,
        resolved_by, resolved_at, closed_by, closed_at, created_at, updated_at`

type ticketRepository struct {
	db querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db querier) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO tickets (id, ticket_no, customer_id, channel, issue_type, issue_type_other, priority, status,
            department, assigned_to, tracking_no, zone_id, recipient_name, recipient_phone, recipient_address,
            description, salesforce_id, sla_hours, sla_deadline, sla_status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.TicketNo,
		t.CustomerID,
		t.Channel,
		string(t.IssueType),
		t.IssueTypeOther,
		string(t.Priority),
		string(t.Status),
		departmentArg(t.Department),
		t.AssignedTo,
		t.TrackingNo,
		t.ZoneID,
		t.RecipientName,
		t.RecipientPhone,
		t.RecipientAddress,
		t.Description,
		t.SalesforceID,
		t.SLAHours,
		t.SLADeadline,
		string(t.SLAStatus),
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, status=$2, department=$3, assigned_to=$4, sla_status=$5,
            sla_warned_at=$6, resolved_by=$7, resolved_at=$8, closed_by=$9, closed_at=$10, updated_at=$11
        WHERE id=$12`
	cmd, err := r.db.Exec(ctx, query,
		string(t.Priority),
		string(t.Status),
		departmentArg(t.Department),
		t.AssignedTo,
		string(t.SLAStatus),
		t.SLAWarnedAt,
		t.ResolvedBy,
		t.ResolvedAt,
		t.ClosedBy,
		t.ClosedAt,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) UpdateSLAStatus(ctx context.Context, id string, status domain.SLAStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET sla_status=$1 WHERE id=$2`, string(status), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ('RESOLVED','CLOSED') ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, string(pr))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != nil {
		args = append(args, string(*filter.Department))
		clauses = append(clauses, fmt.Sprintf("t.department=$%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("t.customer_id=$%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.ticket_no) LIKE %s OR LOWER(t.description) LIKE %s OR LOWER(c.name) LIKE %s OR c.phone LIKE %s)",
			p, p, p, p))
	}

	limit := limitOrDefault(filter.Limit, 50)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets t JOIN customers c ON c.id = t.customer_id
        WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		prefixed("t.", ticketColumns), strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE created_at >= $1`, since).Scan(&count)
	return count, err
}

func (r *ticketRepository) MaxDailySequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(substr(ticket_no, length($1::text) + 1) AS INTEGER)), 0)
		FROM tickets
		WHERE starts_with(ticket_no, $1::text)
		  AND substr(ticket_no, length($1::text) + 1) ~ '^[0-9]+$'`,
		domain.TicketNoPrefix(day)).Scan(&seq)
	return seq, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TicketStatus(status)] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) LockDailySequence(ctx context.Context, day time.Time) error {
	key := int64(day.Year())*10000 + int64(day.Month())*100 + int64(day.Day())
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key)
	return err
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t          domain.Ticket
		issueType  string
		priority   string
		status     string
		slaStatus  string
		department *string
	)
	if err := row.Scan(
		&t.ID,
		&t.TicketNo,
		&t.CustomerID,
		&t.Channel,
		&issueType,
		&t.IssueTypeOther,
		&priority,
		&status,
		&department,
		&t.AssignedTo,
		&t.TrackingNo,
		&t.ZoneID,
		&t.RecipientName,
		&t.RecipientPhone,
		&t.RecipientAddress,
		&t.Description,
		&t.SalesforceID,
		&t.SLAHours,
		&t.SLADeadline,
		&slaStatus,
		&t.SLAWarnedAt,
		&t.ResolvedBy,
		&t.ResolvedAt,
		&t.ClosedBy,
		&t.ClosedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.IssueType = domain.IssueType(issueType)
	t.Priority = domain.TicketPriority(priority)
	t.Status = domain.TicketStatus(status)
	t.SLAStatus = domain.SLAStatus(slaStatus)
	if department != nil {
		d := domain.Department(*department)
		t.Department = &d
	}
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func departmentArg(d *domain.Department) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = prefix + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
