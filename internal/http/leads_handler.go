package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
	"github.com/shmuelia/LeadsManager/internal/repository"
)

// LeadsHandler serves the lead list, the workflow updates (status,
// assignment, notes) and the Excel export. Every operation is scoped to
// one customer.
type LeadsHandler struct {
	leads  repository.LeadsRepo
	logger *zap.Logger
}

func NewLeadsHandler(leads repository.LeadsRepo, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{leads: leads, logger: logger}
}

func leadFiltersFromQuery(r *http.Request) (repository.LeadFilters, bool) {
	q := r.URL.Query()
	filters := repository.LeadFilters{
		CustomerID: int64(parseInt(q.Get("customer_id"), 0)),
		Status:     q.Get("status"),
		AssignedTo: q.Get("assigned_to"),
		Search:     q.Get("search"),
	}
	return filters, filters.CustomerID > 0
}

// ListLeads handles GET /api/v1/leads.
func (h *LeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	filters, ok := leadFiltersFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	page := parseInt(r.URL.Query().Get("page"), 1)
	size := parseInt(r.URL.Query().Get("size"), 50)

	leads, total, err := h.leads.ListLeads(r.Context(), filters, page, size)
	if err != nil {
		h.logger.Error("List leads failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		items = append(items, l.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leads": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// GetLead handles GET /api/v1/leads/{id}, returning the lead with its
// activity log, newest first.
func (h *LeadsHandler) GetLead(w http.ResponseWriter, r *http.Request, id int64) {
	lead, err := h.leads.GetLead(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activities, err := h.leads.ListActivities(r.Context(), id)
	if err != nil {
		h.logger.Error("List activities failed", zap.Int64("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	body := lead.ToJSON()
	acts := make([]map[string]any, 0, len(activities))
	for _, a := range activities {
		acts = append(acts, a.ToJSON())
	}
	body["activities"] = acts
	writeJSON(w, http.StatusOK, body)
}

// UpdateStatus handles PUT /api/v1/leads/{id}/status.
func (h *LeadsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Status   string `json:"status"`
		UserName string `json:"user_name"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.leads.UpdateLeadStatus(r.Context(), id, req.Status, req.UserName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("Status update failed", zap.Int64("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Assign handles PUT /api/v1/leads/{id}/assign. An empty assigned_to
// unassigns.
func (h *LeadsHandler) Assign(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		AssignedTo string `json:"assigned_to"`
		UserName   string `json:"user_name"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.leads.AssignLead(r.Context(), id, req.AssignedTo, req.UserName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("Assign failed", zap.Int64("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// AddActivity handles POST /api/v1/leads/{id}/activity.
func (h *LeadsHandler) AddActivity(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		ActivityType string `json:"activity_type"`
		Description  string `json:"description"`
		UserName     string `json:"user_name"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	activity := &domain.LeadActivity{
		LeadID:       id,
		UserName:     req.UserName,
		ActivityType: req.ActivityType,
	}
	activity.Description.String = req.Description
	activity.Description.Valid = true

	activityID, err := h.leads.AddActivity(r.Context(), activity)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("Add activity failed", zap.Int64("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": activityID})
}

// DeleteLead handles DELETE /api/v1/leads/{id}.
func (h *LeadsHandler) DeleteLead(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.leads.DeleteLead(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "lead not found")
			return
		}
		h.logger.Error("Delete lead failed", zap.Int64("lead_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ExportLeads handles GET /api/v1/leads/export, streaming an .xlsx with
// the same filters as the list endpoint.
func (h *LeadsHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	filters, ok := leadFiltersFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	// one page, sized for a full export
	leads, _, err := h.leads.ListLeads(r.Context(), filters, 1, 10000)
	if err != nil {
		h.logger.Error("Export query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := GenerateLeadsExport(leads)
	if err != nil {
		h.logger.Error("Export generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("leads_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
