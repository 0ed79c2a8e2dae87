package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// PostgresCampaignsRepo implements CampaignsRepo on the campaigns table.
type PostgresCampaignsRepo struct {
	db *sql.DB
}

func NewPostgresCampaignsRepo(db *sql.DB) *PostgresCampaignsRepo {
	return &PostgresCampaignsRepo{db: db}
}

var _ CampaignsRepo = (*PostgresCampaignsRepo)(nil)

const campaignColumns = `
	id,
	customer_id,
	campaign_name,
	COALESCE(campaign_type, 'google_sheets') as campaign_type,
	sheet_id,
	sheet_url,
	COALESCE(last_synced_row, '{}'::jsonb) as last_synced_row,
	last_synced_at,
	COALESCE(active, true) as active,
	created_at,
	updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*domain.Campaign, error) {
	var c domain.Campaign
	var cursorRaw []byte
	err := row.Scan(
		&c.ID,
		&c.CustomerID,
		&c.CampaignName,
		&c.CampaignType,
		&c.SheetID,
		&c.SheetURL,
		&cursorRaw,
		&c.LastSyncedAt,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(cursorRaw) > 0 {
		if err := json.Unmarshal(cursorRaw, &c.LastSyncedRow); err != nil {
			return nil, fmt.Errorf("failed to decode sync cursor: %w", err)
		}
	}
	return &c, nil
}

func (r *PostgresCampaignsRepo) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1`
	c, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("campaign %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

func (r *PostgresCampaignsRepo) ListCampaigns(ctx context.Context, filters CampaignFilters, page, size int) ([]*domain.Campaign, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.CustomerID > 0 {
		where = append(where, "customer_id = "+arg(filters.CustomerID))
	}
	if filters.Active != nil {
		where = append(where, "active = "+arg(*filters.Active))
	}
	if filters.Search != "" {
		where = append(where, "campaign_name ILIKE "+arg("%"+filters.Search+"%"))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := `SELECT` + campaignColumns + ` FROM campaigns` + whereClause +
		` ORDER BY id DESC LIMIT ` + arg(size) + ` OFFSET ` + arg((page-1)*size)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PostgresCampaignsRepo) ListActiveSheetCampaigns(ctx context.Context) ([]*domain.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns
		WHERE active = true
		  AND sheet_url IS NOT NULL
		  AND sheet_url != ''
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCampaignsRepo) CreateCampaign(ctx context.Context, c *domain.Campaign) (int64, error) {
	if c.CustomerID == 0 {
		return 0, fmt.Errorf("customer_id is required")
	}
	if c.CampaignName == "" {
		return 0, fmt.Errorf("campaign_name is required")
	}
	campaignType := c.CampaignType
	if campaignType == "" {
		campaignType = "google_sheets"
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (customer_id, campaign_name, campaign_type, sheet_id, sheet_url, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.CustomerID, c.CampaignName, campaignType, c.SheetID, c.SheetURL, c.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create campaign: %w", err)
	}
	return id, nil
}

func (r *PostgresCampaignsRepo) UpdateCampaign(ctx context.Context, c *domain.Campaign) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET campaign_name = $2,
		    campaign_type = $3,
		    sheet_id = $4,
		    sheet_url = $5,
		    active = $6,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		c.ID, c.CampaignName, c.CampaignType, c.SheetID, c.SheetURL, c.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return requireCampaignRow(res, c.ID)
}

func (r *PostgresCampaignsRepo) SetCampaignActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET active = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("failed to set campaign active flag: %w", err)
	}
	return requireCampaignRow(res, id)
}

func (r *PostgresCampaignsRepo) DeleteCampaign(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return requireCampaignRow(res, id)
}

// AdvanceCursor persists the highest processed row index for one tab.
// The guard keeps the stored value monotonic even if a stale run reports
// a smaller index; last_synced_at is stamped either way.
func (r *PostgresCampaignsRepo) AdvanceCursor(ctx context.Context, campaignID int64, gid string, row int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET last_synced_row = CASE
		      WHEN COALESCE((last_synced_row->>$2)::int, 1) < $3
		      THEN jsonb_set(COALESCE(last_synced_row, '{}'::jsonb), ARRAY[$2], to_jsonb($3::int), true)
		      ELSE COALESCE(last_synced_row, '{}'::jsonb)
		    END,
		    last_synced_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		campaignID, gid, row,
	)
	if err != nil {
		return fmt.Errorf("failed to advance sync cursor: %w", err)
	}
	return requireCampaignRow(res, campaignID)
}

func requireCampaignRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("campaign %d: %w", id, ErrNotFound)
	}
	return nil
}
