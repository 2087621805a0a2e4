package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
)

type customerRepository struct {
	db querier
}

// NewCustomerRepository builds repository.
func NewCustomerRepository(db querier) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO customers (id, name, phone, email, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Phone, c.Email, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.fetchSingle(ctx, `SELECT id, name, phone, email, created_at, updated_at FROM customers WHERE id=$1`, id)
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.fetchSingle(ctx, `SELECT id, name, phone, email, created_at, updated_at FROM customers WHERE phone=$1`, phone)
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *customerRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Customer, error) {
	result := make(map[string]domain.Customer, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone, email, created_at, updated_at FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

func (r *customerRepository) Search(ctx context.Context, q CustomerQuery) ([]domain.Customer, error) {
	var (
		clauses []string
		args    []any
	)
	if q.Phone != "" {
		args = append(args, "%"+q.Phone+"%")
		clauses = append(clauses, fmt.Sprintf("phone LIKE $%d", len(args)))
	}
	if q.Name != "" {
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)))
	}
	if q.Email != "" {
		args = append(args, "%"+strings.ToLower(q.Email)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(email) LIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return []domain.Customer{}, nil
	}

	query := fmt.Sprintf(`SELECT id, name, phone, email, created_at, updated_at FROM customers
        WHERE %s ORDER BY updated_at DESC LIMIT %d`, strings.Join(clauses, " OR "), limitOrDefault(q.Limit, 10))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
