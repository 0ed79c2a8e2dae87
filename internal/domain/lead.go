package domain

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Lead statuses form an open-ended string enum; these are the values the
// dashboard knows about. Anything else is stored as-is.
const (
	LeadStatusNew    = "new"
	LeadStatusClosed = "closed"
)

// Lead platforms / sources.
const (
	PlatformSpreadsheet = "spreadsheet"
)

// Lead is a contact record (leads table), produced by spreadsheet sync
// (or, historically, by realtime webhooks).
type Lead struct {
	ID         int64 `db:"id"`
	CustomerID int64 `db:"customer_id"` // FK customers(id)

	Name  string `db:"name"`
	Email string `db:"email"` // normalized (lowercase, trailing dots stripped)
	Phone string `db:"phone"` // normalized (no spaces/hyphens/leading +)

	Platform     string         `db:"platform"`
	CampaignName string         `db:"campaign_name"`
	Status       string         `db:"status"` // DEFAULT 'new'
	AssignedTo   sql.NullString `db:"assigned_to"`
	Notes        sql.NullString `db:"notes"`

	// RawData keeps every original column of the source row plus
	// provenance (_source, _spreadsheet_id, _gid, _row_number,
	// _campaign). First-class columns above are promoted copies.
	RawData json.RawMessage `db:"raw_data"`

	ReceivedAt time.Time `db:"received_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (l *Lead) ToJSON() map[string]any {
	m := map[string]any{
		"id":            l.ID,
		"customer_id":   l.CustomerID,
		"name":          l.Name,
		"email":         l.Email,
		"phone":         l.Phone,
		"platform":      l.Platform,
		"campaign_name": l.CampaignName,
		"status":        l.Status,
		"received_at":   l.ReceivedAt,
		"updated_at":    l.UpdatedAt,
	}
	if l.AssignedTo.Valid {
		m["assigned_to"] = l.AssignedTo.String
	}
	if l.Notes.Valid {
		m["notes"] = l.Notes.String
	}
	if len(l.RawData) > 0 {
		m["raw_data"] = l.RawData
	}
	return m
}
