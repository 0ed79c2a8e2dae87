package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/repository"
	"github.com/shmuelia/LeadsManager/internal/service"
)

// SyncHandler exposes the manual sync triggers. Each returns 200 with the
// run's result body even when the run itself failed; non-200 means the
// request never reached a campaign (unknown id, dead database).
type SyncHandler struct {
	sync   *service.SyncService
	logger *zap.Logger
}

func NewSyncHandler(sync *service.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

// SyncOne handles POST /api/v1/campaigns/{id}/sync.
func (h *SyncHandler) SyncOne(w http.ResponseWriter, r *http.Request, id int64) {
	result, err := h.sync.SyncCampaignByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.logger.Error("Campaign lookup failed", zap.Int64("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncAll handles POST /api/v1/campaigns/sync-all.
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	sweep := h.sync.SyncAllCampaigns(r.Context())
	if !sweep.Success && len(sweep.Campaigns) == 0 && sweep.Error != "" {
		// could not even list campaigns
		writeJSON(w, http.StatusInternalServerError, sweep)
		return
	}
	writeJSON(w, http.StatusOK, sweep)
}
