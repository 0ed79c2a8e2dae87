package repository

import (
	"context"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// CustomersRepo is the data access contract for customers (tenants).
type CustomersRepo interface {
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	ListCustomers(ctx context.Context, activeOnly bool, page, size int) ([]*domain.Customer, int, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) (int64, error)
	UpdateCustomer(ctx context.Context, c *domain.Customer) error
}
