package repository

import (
	"context"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// DonationsRepository access to public.donations
type DonationsRepository interface {
	// InsertDonation persists d, filling ID and timestamps
	InsertDonation(ctx context.Context, q DBTX, d *domain.Donation) error
	GetDonation(ctx context.Context, q DBTX, orgID, donationID string) (*domain.Donation, error)
}
