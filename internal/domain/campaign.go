package domain

import (
	"database/sql"
	"time"
)

// Campaign binds one Google Sheets tab to a customer as a lead source
// (campaigns table).
type Campaign struct {
	ID           int64  `db:"id"`
	CustomerID   int64  `db:"customer_id"` // NOT NULL, FK customers(id)
	CampaignName string `db:"campaign_name"`
	CampaignType string `db:"campaign_type"` // DEFAULT 'google_sheets'

	// Sheet locator. SheetURL is what the admin pasted; SheetID is the
	// document id extracted from it (kept denormalized for lookups).
	SheetID  sql.NullString `db:"sheet_id"`
	SheetURL sql.NullString `db:"sheet_url"`

	// LastSyncedRow maps tab gid -> last processed row index (JSONB).
	// Row 1 is the sheet header; values only ever increase per gid.
	LastSyncedRow map[string]int `db:"last_synced_row"`
	LastSyncedAt  sql.NullTime   `db:"last_synced_at"`

	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DefaultCursor is the cursor value for a tab that was never synced:
// the header row is row 1, so data rows start at 2.
const DefaultCursor = 1

// Cursor returns the last processed row index for a tab gid.
func (c *Campaign) Cursor(gid string) int {
	if c.LastSyncedRow == nil {
		return DefaultCursor
	}
	if v, ok := c.LastSyncedRow[gid]; ok && v > DefaultCursor {
		return v
	}
	return DefaultCursor
}

func (c *Campaign) ToJSON() map[string]any {
	m := map[string]any{
		"id":            c.ID,
		"customer_id":   c.CustomerID,
		"campaign_name": c.CampaignName,
		"campaign_type": c.CampaignType,
		"active":        c.Active,
		"created_at":    c.CreatedAt,
		"updated_at":    c.UpdatedAt,
	}
	if c.SheetID.Valid {
		m["sheet_id"] = c.SheetID.String
	}
	if c.SheetURL.Valid {
		m["sheet_url"] = c.SheetURL.String
	}
	if c.LastSyncedRow != nil {
		m["last_synced_row"] = c.LastSyncedRow
	}
	if c.LastSyncedAt.Valid {
		m["last_synced_at"] = c.LastSyncedAt.Time
	}
	return m
}
