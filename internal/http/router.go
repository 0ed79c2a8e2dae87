package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux; the API surface is small
// enough that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterStatusRoutes registers the service status page.
func (r *Router) RegisterStatusRoutes(h *StatusHandler) {
	// "/" matches everything; unknown paths 404 here
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Status(w, req)
	})
}

// RegisterCampaignRoutes registers campaign CRUD plus the sync triggers,
// which live under the campaigns prefix.
func (r *Router) RegisterCampaignRoutes(c *CampaignsHandler, s *SyncHandler) {
	r.Handle("/api/v1/campaigns", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			c.ListCampaigns(w, req)
		case http.MethodPost:
			c.CreateCampaign(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/campaigns/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/campaigns/")

		if rest == "sync-all" {
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			s.SyncAll(w, req)
			return
		}

		if tail, ok := strings.CutSuffix(rest, "/sync"); ok {
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			id, ok := parseID(tail)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			s.SyncOne(w, req, id)
			return
		}

		id, ok := parseID(rest)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			c.GetCampaign(w, req, id)
		case http.MethodPut:
			c.UpdateCampaign(w, req, id)
		case http.MethodDelete:
			c.DeleteCampaign(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// RegisterLeadRoutes registers lead queries, workflow updates and export.
func (r *Router) RegisterLeadRoutes(h *LeadsHandler) {
	r.Handle("/api/v1/leads", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListLeads(w, req)
	})

	r.Handle("/api/v1/leads/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/leads/")

		if rest == "export" {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ExportLeads(w, req)
			return
		}

		idPart, action, _ := strings.Cut(rest, "/")
		id, ok := parseID(idPart)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch {
		case action == "" && req.Method == http.MethodGet:
			h.GetLead(w, req, id)
		case action == "" && req.Method == http.MethodDelete:
			h.DeleteLead(w, req, id)
		case action == "status" && req.Method == http.MethodPut:
			h.UpdateStatus(w, req, id)
		case action == "assign" && req.Method == http.MethodPut:
			h.Assign(w, req, id)
		case action == "activity" && req.Method == http.MethodPost:
			h.AddActivity(w, req, id)
		case action == "":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterCustomerRoutes registers customer (tenant) management.
func (r *Router) RegisterCustomerRoutes(h *CustomersHandler) {
	r.Handle("/api/v1/customers", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListCustomers(w, req)
		case http.MethodPost:
			h.CreateCustomer(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/api/v1/customers/", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(strings.TrimPrefix(req.URL.Path, "/api/v1/customers/"))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.GetCustomer(w, req, id)
		case http.MethodPut:
			h.UpdateCustomer(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}
