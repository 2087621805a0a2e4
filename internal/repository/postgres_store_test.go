package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/persistence"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/service"
	"github.com/spec-kit/parcel-helpdesk/internal/sla"
)

// openPostgres connects to the disposable database named by POSTGRES_DSN
// and migrates it, or skips the test.
func openPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(context.Background(), pool, zap.NewNop()))
	return pool
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	pool := openPostgres(t)
	ctx := context.Background()
	store := repository.NewPostgresStore(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)
	customer := &domain.Customer{
		Name:      "สมชาย ใจดี",
		Phone:     fmt.Sprintf("09%08d", now.UnixNano()%100000000),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ticket := &domain.Ticket{
		TicketNo:         fmt.Sprintf("IT-%d", now.UnixNano()),
		Channel:          domain.DefaultChannel,
		IssueType:        domain.IssueLostParcel,
		Priority:         domain.TicketPriorityMedium,
		Status:           domain.TicketStatusNew,
		RecipientName:    "สมหญิง",
		RecipientPhone:   "0899999999",
		RecipientAddress: "กรุงเทพฯ",
		Description:      "พัสดุหาย",
		SLAHours:         24,
		SLADeadline:      now.Add(24 * time.Hour),
		SLAStatus:        domain.SLAStatusOnTrack,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Tickets.LockDailySequence(ctx, now); err != nil {
			return err
		}
		if err := repos.Customers.Create(ctx, customer); err != nil {
			return err
		}
		ticket.CustomerID = customer.ID
		return repos.Tickets.Create(ctx, ticket)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Repos().Tickets.Delete(context.Background(), ticket.ID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM customers WHERE id=$1`, customer.ID)
	})

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		locked, err := repos.Tickets.GetForUpdate(ctx, ticket.ID)
		if err != nil {
			return err
		}
		dept := domain.DepartmentDB1
		locked.Department = &dept
		if err := repos.Tickets.Update(ctx, locked); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	repos := store.Repos()
	got, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Department, "rolled back")
	assert.True(t, got.SLADeadline.Equal(ticket.SLADeadline))

	note := &domain.Note{TicketID: ticket.ID, Content: "โปรดเลือกแผนก", CreatedBy: domain.ActorSystem, CreatedAt: now}
	require.NoError(t, repos.Notes.Append(ctx, note))
	notes, err := repos.Notes.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Empty(t, notes[0].Images)

	count, err := repos.Tickets.CountCreatedSince(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)

	_, err = repos.Tickets.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostgresConcurrentFirstRoutingNotifiesOnce(t *testing.T) {
	pool := openPostgres(t)
	ctx := context.Background()
	store := repository.NewPostgresStore(pool)

	var routed atomic.Int32
	dispatcher := events.NewInMemoryDispatcher(nil)
	dispatcher.Subscribe(events.EventTicketRouted, func(context.Context, events.Event) error {
		routed.Add(1)
		return nil
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Clock:      sla.ClockFunc(time.Now),
		Dispatcher: dispatcher,
	})

	created, err := tickets.CreateTicket(ctx, service.TicketCreateInput{
		CustomerName:     "สมชาย ใจดี",
		CustomerPhone:    fmt.Sprintf("08%08d", time.Now().UnixNano()%100000000),
		IssueType:        string(domain.IssueCheckDelivery),
		RecipientName:    "สมหญิง",
		RecipientPhone:   "0899999999",
		RecipientAddress: "กรุงเทพฯ",
		Description:      "พัสดุยังไม่ถึงผู้รับ",
	})
	require.NoError(t, err)
	id := created.Ticket.ID
	t.Cleanup(func() {
		_ = store.Repos().Tickets.Delete(context.Background(), id)
		_, _ = pool.Exec(context.Background(), `DELETE FROM customers WHERE id=$1`, created.Ticket.CustomerID)
	})

	departments := []string{"DB1", "DB2", "DB1", "DB2"}
	start := make(chan struct{})
	errs := make([]error, len(departments))
	var wg sync.WaitGroup
	for i, dept := range departments {
		wg.Add(1)
		go func(i int, dept string) {
			defer wg.Done()
			<-start
			_, errs[i] = tickets.UpdateTicket(ctx, id, service.TicketUpdateInput{Department: &dept})
		}(i, dept)
	}
	close(start)
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), routed.Load())
	history, err := store.Repos().History.ListByTicket(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TicketStatusInProgress, history[0].ToStatus)
}
