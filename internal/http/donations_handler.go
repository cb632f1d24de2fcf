package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/service"
)

const (
	headerOrgID        = "X-Org-ID"
	headerOrgSubdomain = "X-Org-Subdomain"
)

// OrgResolver identifies the org a request is addressed to
type OrgResolver interface {
	Resolve(ctx context.Context, orgID, subdomain string) (*domain.Organization, error)
}

// DonationCreator the issuance pipeline entry point
type DonationCreator interface {
	CreateDonation(ctx context.Context, req *service.DonationRequest) (*service.DonationResult, error)
}

type DonationsHandler struct {
	Orgs      OrgResolver
	Donations DonationCreator
	Logger    *zap.Logger
}

func NewDonationsHandler(orgs OrgResolver, donations DonationCreator, logger *zap.Logger) *DonationsHandler {
	return &DonationsHandler{Orgs: orgs, Donations: donations, Logger: logger}
}

// resolveOrg reads the org from X-Org-ID, falling back to X-Org-Subdomain
func resolveOrg(r *http.Request, orgs OrgResolver) (*domain.Organization, error) {
	return orgs.Resolve(r.Context(), r.Header.Get(headerOrgID), r.Header.Get(headerOrgSubdomain))
}

func (h *DonationsHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}

	var req service.DonationRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}
	req.OrgID = org.ID

	result, err := h.Donations.CreateDonation(r.Context(), &req)
	if err != nil {
		writeError(w, h.Logger, "create donation", err)
		return
	}
	writeJSON(w, http.StatusCreated, OkMessage(donationMessage(result), result))
}

func donationMessage(result *service.DonationResult) string {
	switch {
	case result.Donation.IsAnonymous:
		return "Anonymous donation recorded"
	case result.DonorCreated:
		return "Donor created and donation recorded"
	case result.DonorLinked:
		return "Existing donor linked to organization and donation recorded"
	default:
		return "Donation recorded"
	}
}
