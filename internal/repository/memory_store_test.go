package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

func seedTicket(t *testing.T, repos Repositories, no string, status domain.TicketStatus, created time.Time) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	customer := &domain.Customer{Name: "สมชาย ใจดี", Phone: "0812345678", CreatedAt: created, UpdatedAt: created}
	if existing, err := repos.Customers.GetByPhone(ctx, customer.Phone); err == nil {
		customer = existing
	} else {
		require.NoError(t, repos.Customers.Create(ctx, customer))
	}
	ticket := &domain.Ticket{
		TicketNo:    no,
		CustomerID:  customer.ID,
		IssueType:   domain.IssueLostParcel,
		Priority:    domain.TicketPriorityMedium,
		Status:      status,
		Description: "parcel missing " + no,
		SLAHours:    24,
		SLADeadline: created.Add(24 * time.Hour),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, repos.Tickets.Create(ctx, ticket))
	return ticket
}

func TestMemoryStoreRollbackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	created := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	ticket := seedTicket(t, store.Repos(), "TH-20250102-0001", domain.TicketStatusNew, created)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		locked, err := repos.Tickets.GetForUpdate(ctx, ticket.ID)
		require.NoError(t, err)
		locked.Status = domain.TicketStatusInProgress
		require.NoError(t, repos.Tickets.Update(ctx, locked))
		require.NoError(t, repos.History.Append(ctx, &domain.StatusHistory{
			TicketID: ticket.ID, FromStatus: domain.TicketStatusNew, ToStatus: domain.TicketStatusInProgress, ChangedBy: "System",
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, got.Status)

	history, err := store.Repos().History.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store.Repos(), "TH-20250102-0001", domain.TicketStatusNew, time.Now())

	got, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	dept := domain.DepartmentDB1
	got.Department = &dept

	again, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Department)
}

func TestMemoryStoreListOpenAndCounts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	repos := store.Repos()
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	seedTicket(t, repos, "TH-20250101-0001", domain.TicketStatusNew, day.Add(-2*time.Hour))
	seedTicket(t, repos, "TH-20250102-0001", domain.TicketStatusResolved, day.Add(time.Hour))
	seedTicket(t, repos, "TH-20250102-0002", domain.TicketStatusPending, day.Add(2*time.Hour))

	open, err := repos.Tickets.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "TH-20250101-0001", open[0].TicketNo)
	assert.Equal(t, "TH-20250102-0002", open[1].TicketNo)

	count, err := repos.Tickets.CountCreatedSince(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	byStatus, err := repos.Tickets.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, byStatus[domain.TicketStatusResolved])
	assert.Equal(t, 0, byStatus[domain.TicketStatusClosed])
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	repos := store.Repos()
	base := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)

	seedTicket(t, repos, "TH-20250102-0001", domain.TicketStatusNew, base)
	seedTicket(t, repos, "TH-20250102-0002", domain.TicketStatusClosed, base.Add(time.Minute))

	got, err := repos.Tickets.List(ctx, TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusClosed}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TH-20250102-0002", got[0].TicketNo)

	got, err = repos.Tickets.List(ctx, TicketFilter{Search: "สมชาย"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "TH-20250102-0002", got[0].TicketNo, "newest first")

	got, err = repos.Tickets.List(ctx, TicketFilter{Search: "0001"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repos.Tickets.List(ctx, TicketFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	repos := store.Repos()
	ticket := seedTicket(t, repos, "TH-20250102-0001", domain.TicketStatusNew, time.Now())
	require.NoError(t, repos.Notes.Append(ctx, &domain.Note{TicketID: ticket.ID, Content: "hello", CreatedBy: "Staff"}))

	require.NoError(t, repos.Tickets.Delete(ctx, ticket.ID))
	_, err := repos.Tickets.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	notes, err := repos.Notes.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.ErrorIs(t, repos.Notes.Append(ctx, &domain.Note{TicketID: ticket.ID}), ErrNotFound)
}

func TestMemoryCustomerSearch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	email := "Somsri@example.com"
	now := time.Now()
	require.NoError(t, store.Repos().Customers.Create(ctx, &domain.Customer{Name: "Somsri", Phone: "0899999999", Email: &email, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Repos().Customers.Create(ctx, &domain.Customer{Name: "Anan", Phone: "0811111111", CreatedAt: now, UpdatedAt: now}))

	found, err := store.Repos().Customers.Search(ctx, CustomerQuery{Email: "somsri@"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Somsri", found[0].Name)

	found, err = store.Repos().Customers.Search(ctx, CustomerQuery{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMemoryStoreMaxDailySequence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	repos := store.Repos()
	day := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	seq, err := repos.Tickets.MaxDailySequence(ctx, day)
	require.NoError(t, err)
	assert.Zero(t, seq)

	seedTicket(t, repos, "TH-20250101-0009", domain.TicketStatusNew, day.Add(-24*time.Hour))
	first := seedTicket(t, repos, "TH-20250102-0001", domain.TicketStatusNew, day)
	seedTicket(t, repos, "TH-20250102-0003", domain.TicketStatusNew, day)
	require.NoError(t, repos.Tickets.Delete(ctx, first.ID))

	seq, err = repos.Tickets.MaxDailySequence(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3, seq)
}

func TestMemoryStoreRollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store.Repos(), "TH-20250102-0001", domain.TicketStatusNew, time.Now())

	written := make(chan error, 1)
	err := store.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		go func() {
			written <- store.Repos().Tickets.UpdateSLAStatus(context.Background(), ticket.ID, domain.SLAStatusAtRisk)
		}()
		select {
		case err := <-written:
			written <- err
			t.Error("write outside the transaction did not wait for it")
		case <-time.After(50 * time.Millisecond):
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	require.NoError(t, <-written)

	got, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusAtRisk, got.SLAStatus)
}
