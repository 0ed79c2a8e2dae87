package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/sheets"
)

// CampaignsHandler manages campaign records. The sheet id is always
// derived server-side from the pasted URL so the two can never disagree.
type CampaignsHandler struct {
	campaigns repository.CampaignsRepo
	logger    *zap.Logger
}

func NewCampaignsHandler(campaigns repository.CampaignsRepo, logger *zap.Logger) *CampaignsHandler {
	return &CampaignsHandler{campaigns: campaigns, logger: logger}
}

type campaignRequest struct {
	CustomerID   int64  `json:"customer_id"`
	CampaignName string `json:"campaign_name"`
	CampaignType string `json:"campaign_type"`
	SheetURL     string `json:"sheet_url"`
	Active       *bool  `json:"active"`
}

// ListCampaigns handles GET /api/v1/campaigns.
func (h *CampaignsHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.CampaignFilters{
		CustomerID: int64(parseInt(q.Get("customer_id"), 0)),
		Search:     q.Get("search"),
	}
	if v := q.Get("active"); v != "" {
		active := v == "true" || v == "1"
		filters.Active = &active
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)

	campaigns, total, err := h.campaigns.ListCampaigns(r.Context(), filters, page, size)
	if err != nil {
		h.logger.Error("List campaigns failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]map[string]any, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, c.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": items,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

// CreateCampaign handles POST /api/v1/campaigns.
func (h *CampaignsHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CustomerID <= 0 {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}
	if req.CampaignName == "" {
		writeError(w, http.StatusBadRequest, "campaign_name is required")
		return
	}

	campaign := &domain.Campaign{
		CustomerID:   req.CustomerID,
		CampaignName: req.CampaignName,
		CampaignType: req.CampaignType,
		Active:       true,
	}
	if req.Active != nil {
		campaign.Active = *req.Active
	}
	if req.SheetURL != "" {
		loc, err := sheets.ParseSheetURL(req.SheetURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		campaign.SheetURL = sql.NullString{String: req.SheetURL, Valid: true}
		campaign.SheetID = sql.NullString{String: loc.SpreadsheetID, Valid: true}
	}

	id, err := h.campaigns.CreateCampaign(r.Context(), campaign)
	if err != nil {
		h.logger.Error("Create campaign failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, created.ToJSON())
}

// GetCampaign handles GET /api/v1/campaigns/{id}.
func (h *CampaignsHandler) GetCampaign(w http.ResponseWriter, r *http.Request, id int64) {
	campaign, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaign.ToJSON())
}

// UpdateCampaign handles PUT /api/v1/campaigns/{id}. Fields omitted from
// the body keep their current value; sheet_url "" clears the locator.
func (h *CampaignsHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request, id int64) {
	campaign, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		CampaignName *string `json:"campaign_name"`
		CampaignType *string `json:"campaign_type"`
		SheetURL     *string `json:"sheet_url"`
		Active       *bool   `json:"active"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.CampaignName != nil {
		if *req.CampaignName == "" {
			writeError(w, http.StatusBadRequest, "campaign_name cannot be empty")
			return
		}
		campaign.CampaignName = *req.CampaignName
	}
	if req.CampaignType != nil {
		campaign.CampaignType = *req.CampaignType
	}
	if req.Active != nil {
		campaign.Active = *req.Active
	}
	if req.SheetURL != nil {
		if *req.SheetURL == "" {
			campaign.SheetURL = sql.NullString{}
			campaign.SheetID = sql.NullString{}
		} else {
			loc, err := sheets.ParseSheetURL(*req.SheetURL)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			campaign.SheetURL = sql.NullString{String: *req.SheetURL, Valid: true}
			campaign.SheetID = sql.NullString{String: loc.SpreadsheetID, Valid: true}
		}
	}

	if err := h.campaigns.UpdateCampaign(r.Context(), campaign); err != nil {
		h.logger.Error("Update campaign failed", zap.Int64("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.campaigns.GetCampaign(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, updated.ToJSON())
}

// DeleteCampaign handles DELETE /api/v1/campaigns/{id}. Imported leads
// are kept.
func (h *CampaignsHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.campaigns.DeleteCampaign(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.logger.Error("Delete campaign failed", zap.Int64("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
