package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketFilter captures list parameters.
type TicketFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Department *domain.Department
	CustomerID *string
	Search     string
	Limit      int
	Offset     int
}

// CustomerQuery matches customers by any populated field.
type CustomerQuery struct {
	Phone string
	Name  string
	Email string
	Limit int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate reads the ticket and holds its row lock until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateSLAStatus(ctx context.Context, id string, status domain.SLAStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	// MaxDailySequence returns the highest sequence among the ticket numbers
	// issued for day, or 0 when none remain.
	MaxDailySequence(ctx context.Context, day time.Time) (int, error)
	CountByStatus(ctx context.Context) (map[domain.TicketStatus]int, error)
	// LockDailySequence serializes ticket number allocation for one day.
	LockDailySequence(ctx context.Context, day time.Time) error
}

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Customer, error)
	Search(ctx context.Context, query CustomerQuery) ([]domain.Customer, error)
}

// NoteRepository stores the append-only note thread.
type NoteRepository interface {
	Append(ctx context.Context, note *domain.Note) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
}

// StatusHistoryRepository stores status transitions.
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusHistory, error)
}

// Repositories groups repositories bound to one connection or transaction.
type Repositories struct {
	Tickets   TicketRepository
	Customers CustomerRepository
	Notes     NoteRepository
	History   StatusHistoryRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	Repos() Repositories
	// WithinTx runs fn in one transaction. Returning an error rolls back
	// every write made through the supplied repositories.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func limitOrDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
