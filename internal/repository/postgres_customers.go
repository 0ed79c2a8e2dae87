package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// PostgresCustomersRepo implements CustomersRepo on the customers table.
type PostgresCustomersRepo struct {
	db *sql.DB
}

func NewPostgresCustomersRepo(db *sql.DB) *PostgresCustomersRepo {
	return &PostgresCustomersRepo{db: db}
}

var _ CustomersRepo = (*PostgresCustomersRepo)(nil)

const customerColumns = `
	id,
	name,
	COALESCE(timezone, 'Asia/Jerusalem') as timezone,
	COALESCE(active, true) as active,
	created_at,
	updated_at`

func (r *PostgresCustomersRepo) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.QueryRowContext(ctx, `SELECT`+customerColumns+` FROM customers WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.Timezone, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (r *PostgresCustomersRepo) ListCustomers(ctx context.Context, activeOnly bool, page, size int) ([]*domain.Customer, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	whereClause := ""
	if activeOnly {
		whereClause = " WHERE active = true"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers"+whereClause).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT`+customerColumns+` FROM customers`+whereClause+` ORDER BY name LIMIT $1 OFFSET $2`,
		size, (page-1)*size,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Timezone, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, &c)
	}
	return out, total, rows.Err()
}

func (r *PostgresCustomersRepo) CreateCustomer(ctx context.Context, c *domain.Customer) (int64, error) {
	if c.Name == "" {
		return 0, fmt.Errorf("name is required")
	}
	timezone := c.Timezone
	if timezone == "" {
		timezone = "Asia/Jerusalem"
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, timezone, active)
		VALUES ($1, $2, $3)
		RETURNING id`,
		c.Name, timezone, c.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create customer: %w", err)
	}
	return id, nil
}

func (r *PostgresCustomersRepo) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, timezone = $3, active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		c.ID, c.Name, c.Timezone, c.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %d: %w", c.ID, ErrNotFound)
	}
	return nil
}
