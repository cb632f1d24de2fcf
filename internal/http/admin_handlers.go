package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/migration"
	"github.com/umar1110/Donation-Plantform-Server/internal/service"
)

// OrgProvisioner creates and migrates a new tenant, or finishes one left provisional
type OrgProvisioner interface {
	Provision(ctx context.Context, req *service.ProvisionRequest) (*domain.Organization, error)
	ResumeProvisioning(ctx context.Context, orgID, ownerID, ownerEmail string) (*domain.Organization, error)
}

// StatusReporter per-org migration drift
type StatusReporter interface {
	StatusReport(ctx context.Context) (*migration.StatusReport, error)
}

type OrgsHandler struct {
	Orgs   OrgProvisioner
	Logger *zap.Logger
}

func NewOrgsHandler(orgs OrgProvisioner, logger *zap.Logger) *OrgsHandler {
	return &OrgsHandler{Orgs: orgs, Logger: logger}
}

func (h *OrgsHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req service.ProvisionRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}
	org, err := h.Orgs.Provision(r.Context(), &req)
	if err != nil {
		writeError(w, h.Logger, "provision org", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(org))
}

// Activate POST /admin/api/v1/orgs/{id}/activate {"owner_id": "...", "owner_email": "..."}
func (h *OrgsHandler) Activate(w http.ResponseWriter, r *http.Request, orgID string) {
	var req struct {
		OwnerID    string `json:"owner_id"`
		OwnerEmail string `json:"owner_email"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}
	org, err := h.Orgs.ResumeProvisioning(r.Context(), orgID, req.OwnerID, req.OwnerEmail)
	if err != nil {
		writeError(w, h.Logger, "activate org", err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Org activated", org))
}

type MigrationsHandler struct {
	Reporter StatusReporter
	Logger   *zap.Logger
}

func NewMigrationsHandler(reporter StatusReporter, logger *zap.Logger) *MigrationsHandler {
	return &MigrationsHandler{Reporter: reporter, Logger: logger}
}

// Status GET /admin/api/v1/migrations/status
func (h *MigrationsHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reporter.StatusReport(r.Context())
	if err != nil {
		writeError(w, h.Logger, "migration status", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}
