package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// MemoryCampaignsRepo keeps campaigns in memory. Used when the DB is
// disabled (dev) and as the fake in service tests.
type MemoryCampaignsRepo struct {
	mu        sync.RWMutex
	nextID    int64
	campaigns map[int64]*domain.Campaign
}

func NewMemoryCampaignsRepo() *MemoryCampaignsRepo {
	return &MemoryCampaignsRepo{nextID: 1, campaigns: map[int64]*domain.Campaign{}}
}

var _ CampaignsRepo = (*MemoryCampaignsRepo)(nil)

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	out := *c
	if c.LastSyncedRow != nil {
		out.LastSyncedRow = make(map[string]int, len(c.LastSyncedRow))
		for k, v := range c.LastSyncedRow {
			out.LastSyncedRow[k] = v
		}
	}
	return &out
}

func (r *MemoryCampaignsRepo) GetCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %d: %w", id, ErrNotFound)
	}
	return cloneCampaign(c), nil
}

func (r *MemoryCampaignsRepo) ListCampaigns(_ context.Context, filters CampaignFilters, page, size int) ([]*domain.Campaign, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		if filters.CustomerID > 0 && c.CustomerID != filters.CustomerID {
			continue
		}
		if filters.Active != nil && c.Active != *filters.Active {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(c.CampaignName), strings.ToLower(filters.Search)) {
			continue
		}
		all = append(all, cloneCampaign(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	start, end := pageBounds(total, page, size)
	return all[start:end], total, nil
}

func (r *MemoryCampaignsRepo) ListActiveSheetCampaigns(_ context.Context) ([]*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Campaign
	for _, c := range r.campaigns {
		if c.Active && c.SheetURL.Valid && c.SheetURL.String != "" {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCampaignsRepo) CreateCampaign(_ context.Context, c *domain.Campaign) (int64, error) {
	if c.CustomerID == 0 {
		return 0, fmt.Errorf("customer_id is required")
	}
	if c.CampaignName == "" {
		return 0, fmt.Errorf("campaign_name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneCampaign(c)
	stored.ID = r.nextID
	r.nextID++
	if stored.CampaignType == "" {
		stored.CampaignType = "google_sheets"
	}
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.campaigns[stored.ID] = stored
	return stored.ID, nil
}

func (r *MemoryCampaignsRepo) UpdateCampaign(_ context.Context, c *domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.campaigns[c.ID]
	if !ok {
		return fmt.Errorf("campaign %d: %w", c.ID, ErrNotFound)
	}
	stored.CampaignName = c.CampaignName
	stored.CampaignType = c.CampaignType
	stored.SheetID = c.SheetID
	stored.SheetURL = c.SheetURL
	stored.Active = c.Active
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCampaignsRepo) SetCampaignActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %d: %w", id, ErrNotFound)
	}
	c.Active = active
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCampaignsRepo) DeleteCampaign(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.campaigns[id]; !ok {
		return fmt.Errorf("campaign %d: %w", id, ErrNotFound)
	}
	delete(r.campaigns, id)
	return nil
}

func (r *MemoryCampaignsRepo) AdvanceCursor(_ context.Context, campaignID int64, gid string, row int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[campaignID]
	if !ok {
		return fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
	}
	if c.LastSyncedRow == nil {
		c.LastSyncedRow = map[string]int{}
	}
	if row > c.Cursor(gid) {
		c.LastSyncedRow[gid] = row
	}
	c.LastSyncedAt = sql.NullTime{Time: time.Now(), Valid: true}
	c.UpdatedAt = time.Now()
	return nil
}

func pageBounds(total, page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return start, end
}
