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

// MemoryLeadsRepo keeps leads and activities in memory. Used when the DB
// is disabled (dev) and as the fake in service tests.
type MemoryLeadsRepo struct {
	mu             sync.RWMutex
	nextLeadID     int64
	nextActivityID int64
	leads          map[int64]*domain.Lead
	activities     map[int64][]*domain.LeadActivity // leadID -> ordered entries

	// FailNextInserts makes the next N InsertImportedLead calls fail;
	// used by tests exercising row-level fault handling.
	FailNextInserts int
}

func NewMemoryLeadsRepo() *MemoryLeadsRepo {
	return &MemoryLeadsRepo{
		nextLeadID:     1,
		nextActivityID: 1,
		leads:          map[int64]*domain.Lead{},
		activities:     map[int64][]*domain.LeadActivity{},
	}
}

var _ LeadsRepo = (*MemoryLeadsRepo)(nil)

func cloneLead(l *domain.Lead) *domain.Lead {
	out := *l
	if l.RawData != nil {
		out.RawData = append([]byte(nil), l.RawData...)
	}
	return &out
}

func (r *MemoryLeadsRepo) GetLead(_ context.Context, id int64) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	return cloneLead(l), nil
}

func (r *MemoryLeadsRepo) ListLeads(_ context.Context, filters LeadFilters, page, size int) ([]*domain.Lead, int, error) {
	if filters.CustomerID <= 0 {
		return nil, 0, fmt.Errorf("customer_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	match := func(l *domain.Lead) bool {
		if l.CustomerID != filters.CustomerID {
			return false
		}
		if filters.Status != "" && l.Status != filters.Status {
			return false
		}
		if filters.AssignedTo != "" && (!l.AssignedTo.Valid || l.AssignedTo.String != filters.AssignedTo) {
			return false
		}
		if filters.Search != "" {
			needle := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(l.Name), needle) &&
				!strings.Contains(strings.ToLower(l.Email), needle) &&
				!strings.Contains(l.Phone, filters.Search) {
				return false
			}
		}
		return true
	}

	all := make([]*domain.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		if match(l) {
			all = append(all, cloneLead(l))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].ReceivedAt.Equal(all[j].ReceivedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].ReceivedAt.After(all[j].ReceivedAt)
	})

	total := len(all)
	start, end := pageBounds(total, page, size)
	return all[start:end], total, nil
}

func (r *MemoryLeadsRepo) CountLeads(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads), nil
}

func (r *MemoryLeadsRepo) ExistsByContact(_ context.Context, customerID int64, phone, email string) (bool, error) {
	if phone == "" && email == "" {
		return false, fmt.Errorf("phone or email is required for duplicate check")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.CustomerID != customerID {
			continue
		}
		if phone != "" && l.Phone == phone {
			return true, nil
		}
		if email != "" && l.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryLeadsRepo) InsertImportedLead(_ context.Context, lead *domain.Lead, activityDescription string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailNextInserts > 0 {
		r.FailNextInserts--
		return 0, fmt.Errorf("simulated insert failure")
	}

	stored := cloneLead(lead)
	stored.ID = r.nextLeadID
	r.nextLeadID++
	if stored.Status == "" {
		stored.Status = domain.LeadStatusNew
	}
	if stored.Platform == "" {
		stored.Platform = domain.PlatformSpreadsheet
	}
	stored.ReceivedAt = time.Now()
	stored.UpdatedAt = stored.ReceivedAt
	r.leads[stored.ID] = stored

	r.appendActivity(&domain.LeadActivity{
		LeadID:       stored.ID,
		CustomerID:   stored.CustomerID,
		UserName:     domain.SystemUser,
		ActivityType: domain.ActivityTypeSheetImport,
		Description:  sql.NullString{String: activityDescription, Valid: activityDescription != ""},
	})
	return stored.ID, nil
}

func (r *MemoryLeadsRepo) UpdateLeadStatus(_ context.Context, id int64, newStatus, userName string) error {
	if newStatus == "" {
		return fmt.Errorf("status is required")
	}
	if userName == "" {
		userName = domain.SystemUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	previous := l.Status
	l.Status = newStatus
	l.UpdatedAt = time.Now()

	r.appendActivity(&domain.LeadActivity{
		LeadID:         id,
		CustomerID:     l.CustomerID,
		UserName:       userName,
		ActivityType:   domain.ActivityTypeStatusChanged,
		Description:    sql.NullString{String: fmt.Sprintf("Status changed from %s to %s", previous, newStatus), Valid: true},
		PreviousStatus: sql.NullString{String: previous, Valid: true},
		NewStatus:      sql.NullString{String: newStatus, Valid: true},
	})
	return nil
}

func (r *MemoryLeadsRepo) AssignLead(_ context.Context, id int64, assignedTo, userName string) error {
	if userName == "" {
		userName = domain.SystemUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	l.AssignedTo = sql.NullString{String: assignedTo, Valid: assignedTo != ""}
	l.UpdatedAt = time.Now()

	description := "Lead unassigned"
	if assignedTo != "" {
		description = "Lead assigned to " + assignedTo
	}
	r.appendActivity(&domain.LeadActivity{
		LeadID:       id,
		CustomerID:   l.CustomerID,
		UserName:     userName,
		ActivityType: domain.ActivityTypeAssigned,
		Description:  sql.NullString{String: description, Valid: true},
	})
	return nil
}

func (r *MemoryLeadsRepo) AddActivity(_ context.Context, a *domain.LeadActivity) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[a.LeadID]
	if !ok {
		return 0, fmt.Errorf("lead %d: %w", a.LeadID, ErrNotFound)
	}
	entry := *a
	entry.CustomerID = l.CustomerID
	if entry.UserName == "" {
		entry.UserName = domain.SystemUser
	}
	if entry.ActivityType == "" {
		entry.ActivityType = domain.ActivityTypeNote
	}
	return r.appendActivity(&entry), nil
}

func (r *MemoryLeadsRepo) ListActivities(_ context.Context, leadID int64) ([]*domain.LeadActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.activities[leadID]
	out := make([]*domain.LeadActivity, 0, len(entries))
	// newest first, matching the Postgres ordering
	for i := len(entries) - 1; i >= 0; i-- {
		e := *entries[i]
		out = append(out, &e)
	}
	return out, nil
}

func (r *MemoryLeadsRepo) DeleteLead(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	delete(r.leads, id)
	delete(r.activities, id)
	return nil
}

// appendActivity assumes r.mu is held.
func (r *MemoryLeadsRepo) appendActivity(a *domain.LeadActivity) int64 {
	a.ID = r.nextActivityID
	r.nextActivityID++
	if a.ActivityDate.IsZero() {
		a.ActivityDate = time.Now()
	}
	r.activities[a.LeadID] = append(r.activities[a.LeadID], a)
	return a.ID
}
