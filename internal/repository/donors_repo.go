package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// DonorsRepository access to public.donor_profiles and public.orgs_donors
type DonorsRepository interface {
	GetDonor(ctx context.Context, q DBTX, donorID string) (*domain.Donor, error)

	// FindDonorByEmail returns (nil, nil) when no donor has the normalized email
	FindDonorByEmail(ctx context.Context, q DBTX, email string) (*domain.Donor, error)

	// InsertDonor creates the donor and returns true, or returns false without writing when another
	// donor already holds the email. A concurrent insert of the same email waits for the other
	// transaction and then reports false if it committed.
	InsertDonor(ctx context.Context, q DBTX, donor *domain.Donor) (bool, error)

	// LinkDonor creates the (org, donor) link. It returns false when the link already existed;
	// the uniqueness constraint decides, so concurrent callers get exactly one true.
	LinkDonor(ctx context.Context, q DBTX, orgID, donorID string) (bool, error)

	// GetLink returns (nil, nil) when the donor is not linked to the org
	GetLink(ctx context.Context, q DBTX, orgID, donorID string) (*domain.OrgDonorLink, error)

	// SearchByOrg matches term against email, first and last name of the org's donors, case-insensitively
	SearchByOrg(ctx context.Context, q DBTX, orgID, term string, limit int) ([]*domain.Donor, error)

	// UpdateDonorTotals adds amount to the donor's lifetime totals and increments the count
	UpdateDonorTotals(ctx context.Context, q DBTX, donorID string, amount decimal.Decimal) error

	// AddOrgDonorTotals adds amount to the org-link totals, creating the link if it is missing
	AddOrgDonorTotals(ctx context.Context, q DBTX, orgID, donorID string, amount decimal.Decimal) error
}
