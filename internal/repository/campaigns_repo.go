package repository

import (
	"context"
	"errors"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CampaignFilters narrows campaign list queries.
type CampaignFilters struct {
	CustomerID int64  // 0 = all customers
	Active     *bool  // nil = any
	Search     string // optional, campaign_name substring
}

// CampaignsRepo is the data access contract for campaigns, including the
// per-tab sync cursor.
type CampaignsRepo interface {
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, filters CampaignFilters, page, size int) ([]*domain.Campaign, int, error)

	// ListActiveSheetCampaigns returns active campaigns with a non-empty
	// sheet URL, ordered by id. This is the sweep's work list.
	ListActiveSheetCampaigns(ctx context.Context) ([]*domain.Campaign, error)

	CreateCampaign(ctx context.Context, c *domain.Campaign) (int64, error)
	UpdateCampaign(ctx context.Context, c *domain.Campaign) error
	SetCampaignActive(ctx context.Context, id int64, active bool) error

	// DeleteCampaign removes the campaign row. Leads already imported from
	// it are kept; sync-owned data never relies on cascades.
	DeleteCampaign(ctx context.Context, id int64) error

	// AdvanceCursor records that rows up to and including row have been
	// considered for the given tab, and stamps last_synced_at. The stored
	// value is monotonic: a smaller row leaves the cursor untouched (the
	// timestamp is still stamped).
	AdvanceCursor(ctx context.Context, campaignID int64, gid string, row int) error
}
