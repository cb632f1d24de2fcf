package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library ServeMux
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

// RegisterHealthRoutes liveness check
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterDonationRoutes donation intake, donor lookups and receipt operations, scoped to the request's org
func (r *Router) RegisterDonationRoutes(d *DonationsHandler, dn *DonorsHandler, rc *ReceiptsHandler) {
	r.Handle("/api/v1/donations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		d.CreateDonation(w, req)
	})

	r.Handle("/api/v1/donors/search", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		dn.SearchDonors(w, req)
	})

	// donors/{id}
	r.Handle("/api/v1/donors/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/api/v1/donors/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		dn.GetDonor(w, req, id)
	})

	r.Handle("/api/v1/receipts/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rc.ExportRegister(w, req)
	})

	// receipts/donation/{donationId}, receipts/{id}/void, receipts/{id}/send
	r.Handle("/api/v1/receipts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/receipts/")
		id, action, ok := strings.Cut(rest, "/")
		if !ok || id == "" || action == "" || strings.Contains(action, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if id == "donation" {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			rc.GetByDonation(w, req, action)
			return
		}

		switch action {
		case "void", "send":
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if action == "void" {
			rc.VoidReceipt(w, req, id)
			return
		}
		rc.SendReceipt(w, req, id)
	})
}

// RegisterAdminRoutes platform-level org provisioning and migration status
func (r *Router) RegisterAdminRoutes(orgs *OrgsHandler, migrations *MigrationsHandler) {
	r.Handle("/admin/api/v1/orgs", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		orgs.Provision(w, req)
	})

	// orgs/{id}/activate
	r.Handle("/admin/api/v1/orgs/", func(w http.ResponseWriter, req *http.Request) {
		id, action, _ := strings.Cut(strings.TrimPrefix(req.URL.Path, "/admin/api/v1/orgs/"), "/")
		if id == "" || action != "activate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		orgs.Activate(w, req, id)
	})

	r.Handle("/admin/api/v1/migrations/status", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		migrations.Status(w, req)
	})
}
