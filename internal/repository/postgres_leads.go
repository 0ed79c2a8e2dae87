package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// PostgresLeadsRepo implements LeadsRepo on the leads and lead_activities
// tables.
type PostgresLeadsRepo struct {
	db *sql.DB
}

func NewPostgresLeadsRepo(db *sql.DB) *PostgresLeadsRepo {
	return &PostgresLeadsRepo{db: db}
}

var _ LeadsRepo = (*PostgresLeadsRepo)(nil)

const leadColumns = `
	id,
	customer_id,
	COALESCE(name, '') as name,
	COALESCE(email, '') as email,
	COALESCE(phone, '') as phone,
	COALESCE(platform, '') as platform,
	COALESCE(campaign_name, '') as campaign_name,
	COALESCE(status, 'new') as status,
	assigned_to,
	notes,
	raw_data,
	received_at,
	updated_at`

func scanLead(row interface{ Scan(...any) error }) (*domain.Lead, error) {
	var l domain.Lead
	var rawData []byte
	err := row.Scan(
		&l.ID,
		&l.CustomerID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Platform,
		&l.CampaignName,
		&l.Status,
		&l.AssignedTo,
		&l.Notes,
		&rawData,
		&l.ReceivedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.RawData = rawData
	return &l, nil
}

func (r *PostgresLeadsRepo) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	query := `SELECT` + leadColumns + ` FROM leads WHERE id = $1`
	l, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

func (r *PostgresLeadsRepo) ListLeads(ctx context.Context, filters LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	if filters.CustomerID <= 0 {
		return nil, 0, fmt.Errorf("customer_id is required")
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}

	where := []string{"customer_id = $1"}
	args := []any{filters.CustomerID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Status != "" {
		where = append(where, "status = "+arg(filters.Status))
	}
	if filters.AssignedTo != "" {
		where = append(where, "assigned_to = "+arg(filters.AssignedTo))
	}
	if filters.Search != "" {
		p := arg("%" + filters.Search + "%")
		where = append(where, "(name ILIKE "+p+" OR email ILIKE "+p+" OR phone ILIKE "+p+")")
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT` + leadColumns + ` FROM leads` + whereClause +
		` ORDER BY received_at DESC LIMIT ` + arg(size) + ` OFFSET ` + arg((page-1)*size)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var out []*domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *PostgresLeadsRepo) CountLeads(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}

// ExistsByContact checks for an existing lead of the same customer with a
// matching normalized phone OR email. This lookup and the subsequent
// insert are not mutually exclusive against a concurrent sync of the same
// campaign; the external scheduler runs sweeps serially.
func (r *PostgresLeadsRepo) ExistsByContact(ctx context.Context, customerID int64, phone, email string) (bool, error) {
	conditions := []string{}
	args := []any{customerID}
	if phone != "" {
		args = append(args, phone)
		conditions = append(conditions, fmt.Sprintf("phone = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		conditions = append(conditions, fmt.Sprintf("email = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return false, fmt.Errorf("phone or email is required for duplicate check")
	}

	query := "SELECT id FROM leads WHERE customer_id = $1 AND (" + strings.Join(conditions, " OR ") + ") LIMIT 1"
	var id int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate lead: %w", err)
	}
	return true, nil
}

// InsertImportedLead writes the lead and its import activity atomically.
func (r *PostgresLeadsRepo) InsertImportedLead(ctx context.Context, lead *domain.Lead, activityDescription string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status := lead.Status
	if status == "" {
		status = domain.LeadStatusNew
	}
	platform := lead.Platform
	if platform == "" {
		platform = domain.PlatformSpreadsheet
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO leads (customer_id, name, email, phone, platform, campaign_name, status, raw_data, received_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id`,
		lead.CustomerID, lead.Name, lead.Email, lead.Phone, platform, lead.CampaignName, status, []byte(lead.RawData),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lead: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lead_activities (lead_id, customer_id, user_name, activity_type, description)
		VALUES ($1, $2, $3, $4, $5)`,
		id, lead.CustomerID, domain.SystemUser, domain.ActivityTypeSheetImport, activityDescription,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert import activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lead insert: %w", err)
	}
	return id, nil
}

func (r *PostgresLeadsRepo) UpdateLeadStatus(ctx context.Context, id int64, newStatus, userName string) error {
	if newStatus == "" {
		return fmt.Errorf("status is required")
	}
	if userName == "" {
		userName = domain.SystemUser
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(status, 'new') FROM leads WHERE id = $1`, id).Scan(&previous)
	if err == sql.ErrNoRows {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read lead status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE leads SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, newStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lead_activities (lead_id, customer_id, user_name, activity_type, description, previous_status, new_status)
		SELECT id, customer_id, $2, $3, $4, $5, $6 FROM leads WHERE id = $1`,
		id, userName, domain.ActivityTypeStatusChanged,
		fmt.Sprintf("Status changed from %s to %s", previous, newStatus),
		previous, newStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	return tx.Commit()
}

func (r *PostgresLeadsRepo) AssignLead(ctx context.Context, id int64, assignedTo, userName string) error {
	if userName == "" {
		userName = domain.SystemUser
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE leads SET assigned_to = NULLIF($2, ''), updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, assignedTo,
	)
	if err != nil {
		return fmt.Errorf("failed to assign lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}

	description := "Lead unassigned"
	if assignedTo != "" {
		description = "Lead assigned to " + assignedTo
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lead_activities (lead_id, customer_id, user_name, activity_type, description)
		SELECT id, customer_id, $2, $3, $4 FROM leads WHERE id = $1`,
		id, userName, domain.ActivityTypeAssigned, description,
	)
	if err != nil {
		return fmt.Errorf("failed to record assignment: %w", err)
	}
	return tx.Commit()
}

func (r *PostgresLeadsRepo) AddActivity(ctx context.Context, a *domain.LeadActivity) (int64, error) {
	if a.LeadID == 0 {
		return 0, fmt.Errorf("lead_id is required")
	}
	userName := a.UserName
	if userName == "" {
		userName = domain.SystemUser
	}
	activityType := a.ActivityType
	if activityType == "" {
		activityType = domain.ActivityTypeNote
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_activities (lead_id, customer_id, user_name, activity_type, description)
		SELECT id, customer_id, $2, $3, $4 FROM leads WHERE id = $1
		RETURNING id`,
		a.LeadID, userName, activityType, a.Description,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("lead %d: %w", a.LeadID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add activity: %w", err)
	}
	return id, nil
}

func (r *PostgresLeadsRepo) ListActivities(ctx context.Context, leadID int64) ([]*domain.LeadActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, COALESCE(customer_id, 0), user_name, activity_type,
		       description, previous_status, new_status, activity_date
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY activity_date DESC, id DESC`,
		leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var out []*domain.LeadActivity
	for rows.Next() {
		var a domain.LeadActivity
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.CustomerID, &a.UserName, &a.ActivityType,
			&a.Description, &a.PreviousStatus, &a.NewStatus, &a.ActivityDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// DeleteLead removes the lead and its dependent activities explicitly,
// without relying on the FK cascade.
func (r *PostgresLeadsRepo) DeleteLead(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_activities WHERE lead_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete lead activities: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
