package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func bind(db querier) Repositories {
	return Repositories{
		Tickets:   NewTicketRepository(db),
		Customers: NewCustomerRepository(db),
		Notes:     NewNoteRepository(db),
		History:   NewStatusHistoryRepository(db),
	}
}

func (s *postgresStore) Repos() Repositories {
	return bind(s.pool)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, bind(tx))
	})
}

func (s *postgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}
