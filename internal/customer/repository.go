// Package customer manages customer records and their persistence.
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Customer represents a stored customer record. PhotoKey is nil when no
// photo is attached; otherwise it points to a blob in object storage.
type Customer struct {
	ID         int64
	Name       string
	Surname    string
	PhotoKey   *string
	CreatedBy  string
	CreatedAt  time.Time
	ModifiedBy string
	ModifiedAt time.Time
}

// ErrNotFound is returned when a customer does not exist.
var ErrNotFound = errors.New("customer not found")

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository handles all customer database operations.
type Repository struct {
	db DB
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const customerColumns = `id, name, surname, photo_key, created_by, created_at, modified_by, modified_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.Name, &c.Surname, &c.PhotoKey,
		&c.CreatedBy, &c.CreatedAt, &c.ModifiedBy, &c.ModifiedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new customer with no photo. The acting principal and the
// current time populate both audit pairs.
func (r *Repository) Create(ctx context.Context, name, surname, actor string) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx,
		`INSERT INTO customers (name, surname, created_by, created_at, modified_by, modified_at)
		 VALUES ($1, $2, $3, now(), $3, now())
		 RETURNING `+customerColumns,
		name, surname, actor,
	))
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// GetByID fetches a customer by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return c, nil
}

// List returns all customers in store order.
func (r *Repository) List(ctx context.Context) ([]*Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// Update re-saves the mutable fields of c, refreshing the modification audit
// pair with the acting principal and the current time.
func (r *Repository) Update(ctx context.Context, c *Customer, actor string) (*Customer, error) {
	updated, err := scanCustomer(r.db.QueryRow(ctx,
		`UPDATE customers
		 SET name = $2, surname = $3, photo_key = $4, modified_by = $5, modified_at = now()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Surname, c.PhotoKey, actor,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

// Delete removes a customer by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
