package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// MemoryCustomersRepo keeps customers in memory (dev fallback / tests).
type MemoryCustomersRepo struct {
	mu        sync.RWMutex
	nextID    int64
	customers map[int64]*domain.Customer
}

func NewMemoryCustomersRepo() *MemoryCustomersRepo {
	return &MemoryCustomersRepo{nextID: 1, customers: map[int64]*domain.Customer{}}
}

var _ CustomersRepo = (*MemoryCustomersRepo)(nil)

func (r *MemoryCustomersRepo) GetCustomer(_ context.Context, id int64) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	out := *c
	return &out, nil
}

func (r *MemoryCustomersRepo) ListCustomers(_ context.Context, activeOnly bool, page, size int) ([]*domain.Customer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if activeOnly && !c.Active {
			continue
		}
		out := *c
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := len(all)
	start, end := pageBounds(total, page, size)
	return all[start:end], total, nil
}

func (r *MemoryCustomersRepo) CreateCustomer(_ context.Context, c *domain.Customer) (int64, error) {
	if c.Name == "" {
		return 0, fmt.Errorf("name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *c
	stored.ID = r.nextID
	r.nextID++
	if stored.Timezone == "" {
		stored.Timezone = "Asia/Jerusalem"
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.customers[stored.ID] = &stored
	return stored.ID, nil
}

func (r *MemoryCustomersRepo) UpdateCustomer(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.customers[c.ID]
	if !ok {
		return fmt.Errorf("customer %d: %w", c.ID, ErrNotFound)
	}
	stored.Name = c.Name
	stored.Timezone = c.Timezone
	stored.Active = c.Active
	stored.UpdatedAt = time.Now()
	return nil
}
