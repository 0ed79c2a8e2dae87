package repository

import (
	"context"

	"github.com/shmuelia/LeadsManager/internal/domain"
)

// LeadFilters narrows lead list queries. CustomerID is mandatory for
// tenant isolation; the rest are optional.
type LeadFilters struct {
	CustomerID int64
	Status     string
	AssignedTo string
	Search     string // matches name/email/phone
}

// LeadsRepo is the data access contract for leads and their activity log.
type LeadsRepo interface {
	GetLead(ctx context.Context, id int64) (*domain.Lead, error)
	ListLeads(ctx context.Context, filters LeadFilters, page, size int) ([]*domain.Lead, int, error)

	// CountLeads is the total across all tenants (status page).
	CountLeads(ctx context.Context) (int, error)

	// ExistsByContact reports whether the customer already has a lead with
	// the given normalized phone OR normalized email. Empty arguments are
	// excluded from the comparison; callers must not pass both empty.
	ExistsByContact(ctx context.Context, customerID int64, phone, email string) (bool, error)

	// InsertImportedLead inserts the lead and its import audit activity in
	// one transaction and returns the new lead id.
	InsertImportedLead(ctx context.Context, lead *domain.Lead, activityDescription string) (int64, error)

	// UpdateLeadStatus changes the status and records a status_changed
	// activity carrying the previous and new values.
	UpdateLeadStatus(ctx context.Context, id int64, newStatus, userName string) error

	// AssignLead sets assigned_to (empty string unassigns) and records an
	// assignment activity.
	AssignLead(ctx context.Context, id int64, assignedTo, userName string) error

	AddActivity(ctx context.Context, a *domain.LeadActivity) (int64, error)
	ListActivities(ctx context.Context, leadID int64) ([]*domain.LeadActivity, error)

	// DeleteLead removes the lead and its activities (explicit admin
	// action; leads are never deleted automatically).
	DeleteLead(ctx context.Context, id int64) error
}
