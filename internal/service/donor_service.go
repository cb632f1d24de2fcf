package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

const (
	defaultDonorSearchLimit = 10
	maxDonorSearchLimit     = 50
)

// OrgDonor a donor seen from one org: the global profile plus the org's own totals
type OrgDonor struct {
	Donor *domain.Donor
	Link  *domain.OrgDonorLink
}

// DonorService org-scoped donor lookups
type DonorService struct {
	db     *sql.DB
	donors repository.DonorsRepository
}

func NewDonorService(db *sql.DB, donors repository.DonorsRepository) *DonorService {
	return &DonorService{db: db, donors: donors}
}

// SearchDonors finds the org's donors whose email or name contains term.
// limit <= 0 means the default; larger values are capped.
func (s *DonorService) SearchDonors(ctx context.Context, orgID, term string, limit int) ([]*domain.Donor, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("q", "is required")
	}
	if limit <= 0 {
		limit = defaultDonorSearchLimit
	}
	if limit > maxDonorSearchLimit {
		limit = maxDonorSearchLimit
	}
	return s.donors.SearchByOrg(ctx, s.db, orgID, term, limit)
}

// GetOrgDonor loads a donor linked to the org. A donor that exists but never gave to this org is not found.
func (s *DonorService) GetOrgDonor(ctx context.Context, orgID, donorID string) (*OrgDonor, error) {
	link, err := s.donors.GetLink(ctx, s.db, orgID, donorID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("donor %s in org %s: %w", donorID, orgID, domain.ErrNotFound)
	}
	donor, err := s.donors.GetDonor(ctx, s.db, donorID)
	if err != nil {
		return nil, err
	}
	return &OrgDonor{Donor: donor, Link: link}, nil
}
