package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shmuelia/LeadsManager/internal/domain"
	"github.com/shmuelia/LeadsManager/internal/repository"
)

const defaultTimezone = "Asia/Jerusalem"

// CustomersHandler manages customer (tenant) records. Customers are never
// deleted, only deactivated, so their leads stay attributable.
type CustomersHandler struct {
	customers repository.CustomersRepo
	logger    *zap.Logger
}

func NewCustomersHandler(customers repository.CustomersRepo, logger *zap.Logger) *CustomersHandler {
	return &CustomersHandler{customers: customers, logger: logger}
}

// ListCustomers handles GET /api/v1/customers.
func (h *CustomersHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly := q.Get("active") == "true" || q.Get("active") == "1"
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 50)

	customers, total, err := h.customers.ListCustomers(r.Context(), activeOnly, page, size)
	if err != nil {
		h.logger.Error("List customers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := make([]map[string]any, 0, len(customers))
	for _, c := range customers {
		items = append(items, c.ToJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customers": items,
		"total":     total,
		"page":      page,
		"size":      size,
	})
}

// CreateCustomer handles POST /api/v1/customers.
func (h *CustomersHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Timezone == "" {
		req.Timezone = defaultTimezone
	}

	customer := &domain.Customer{Name: req.Name, Timezone: req.Timezone, Active: true}
	id, err := h.customers.CreateCustomer(r.Context(), customer)
	if err != nil {
		h.logger.Error("Create customer failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, created.ToJSON())
}

// GetCustomer handles GET /api/v1/customers/{id}.
func (h *CustomersHandler) GetCustomer(w http.ResponseWriter, r *http.Request, id int64) {
	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, customer.ToJSON())
}

// UpdateCustomer handles PUT /api/v1/customers/{id}.
func (h *CustomersHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request, id int64) {
	customer, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Timezone *string `json:"timezone"`
		Active   *bool   `json:"active"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		customer.Name = *req.Name
	}
	if req.Timezone != nil && *req.Timezone != "" {
		customer.Timezone = *req.Timezone
	}
	if req.Active != nil {
		customer.Active = *req.Active
	}

	if err := h.customers.UpdateCustomer(r.Context(), customer); err != nil {
		h.logger.Error("Update customer failed", zap.Int64("customer_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, updated.ToJSON())
}
