package domain

import (
	"database/sql"
	"time"
)

// Activity types written by the system itself (users may add their own).
const (
	ActivityTypeSheetImport   = "sheet_import"
	ActivityTypeStatusChanged = "status_changed"
	ActivityTypeAssigned      = "assigned"
	ActivityTypeNote          = "note"
)

// SystemUser is the user_name recorded on machine-generated activities.
const SystemUser = "system"

// LeadActivity is one audit entry on a lead (lead_activities table).
type LeadActivity struct {
	ID         int64 `db:"id"`
	LeadID     int64 `db:"lead_id"` // FK leads(id) ON DELETE CASCADE
	CustomerID int64 `db:"customer_id"`

	UserName     string         `db:"user_name"`
	ActivityType string         `db:"activity_type"`
	Description  sql.NullString `db:"description"`

	PreviousStatus sql.NullString `db:"previous_status"`
	NewStatus      sql.NullString `db:"new_status"`

	ActivityDate time.Time `db:"activity_date"`
}

func (a *LeadActivity) ToJSON() map[string]any {
	m := map[string]any{
		"id":            a.ID,
		"lead_id":       a.LeadID,
		"customer_id":   a.CustomerID,
		"user_name":     a.UserName,
		"activity_type": a.ActivityType,
		"activity_date": a.ActivityDate,
	}
	if a.Description.Valid {
		m["description"] = a.Description.String
	}
	if a.PreviousStatus.Valid {
		m["previous_status"] = a.PreviousStatus.String
	}
	if a.NewStatus.Valid {
		m["new_status"] = a.NewStatus.String
	}
	return m
}
