package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/service"
)

// DonorLookup org-scoped donor reads
type DonorLookup interface {
	SearchDonors(ctx context.Context, orgID, term string, limit int) ([]*domain.Donor, error)
	GetOrgDonor(ctx context.Context, orgID, donorID string) (*service.OrgDonor, error)
}

type DonorsHandler struct {
	Orgs   OrgResolver
	Donors DonorLookup
	Logger *zap.Logger
}

func NewDonorsHandler(orgs OrgResolver, donors DonorLookup, logger *zap.Logger) *DonorsHandler {
	return &DonorsHandler{Orgs: orgs, Donors: donors, Logger: logger}
}

// SearchDonors GET /api/v1/donors/search?q=jane&limit=10
func (h *DonorsHandler) SearchDonors(w http.ResponseWriter, r *http.Request) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}

	q := r.URL.Query()
	donors, err := h.Donors.SearchDonors(r.Context(), org.ID, q.Get("q"), parseInt(q.Get("limit"), 0))
	if err != nil {
		writeError(w, h.Logger, "search donors", err)
		return
	}

	items := make([]map[string]any, 0, len(donors))
	for _, d := range donors {
		items = append(items, donorToJSON(d))
	}
	writeJSON(w, http.StatusOK, OkMessage("Donors retrieved successfully", items))
}

// GetDonor GET /api/v1/donors/{id}, with the org's own totals next to the lifetime ones
func (h *DonorsHandler) GetDonor(w http.ResponseWriter, r *http.Request, donorID string) {
	org, err := resolveOrg(r, h.Orgs)
	if err != nil {
		writeError(w, h.Logger, "resolve org", err)
		return
	}
	od, err := h.Donors.GetOrgDonor(r.Context(), org.ID, donorID)
	if err != nil {
		writeError(w, h.Logger, "get donor", err)
		return
	}

	out := donorToJSON(od.Donor)
	out["total_donations"] = od.Donor.TotalDonations
	out["donation_count"] = od.Donor.DonationCount
	out["org_total_donations"] = od.Link.TotalDonations
	out["org_donation_count"] = od.Link.DonationCount
	out["linked_at"] = od.Link.CreatedAt
	writeJSON(w, http.StatusOK, Ok(out))
}

func donorToJSON(d *domain.Donor) map[string]any {
	return map[string]any{
		"id":             d.ID,
		"first_name":     d.FirstName,
		"last_name":      d.LastName,
		"email":          d.Email,
		"phone":          d.Phone,
		"country":        d.Country,
		"state_province": d.StateProvince,
		"city":           d.City,
	}
}
