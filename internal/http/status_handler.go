package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/repository"
)

// StatusHandler serves the service status page.
type StatusHandler struct {
	leads     repository.LeadsRepo
	dbEnabled bool
	logger    *zap.Logger
}

func NewStatusHandler(leads repository.LeadsRepo, dbEnabled bool, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{leads: leads, dbEnabled: dbEnabled, logger: logger}
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	database := "disabled"
	if h.dbEnabled {
		database = "connected"
	}

	total, err := h.leads.CountLeads(r.Context())
	if err != nil {
		h.logger.Error("Lead count failed", zap.Error(err))
		database = "error"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "LeadsManager",
		"status":      "running",
		"database":    database,
		"total_leads": total,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
