package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// PostgresDonationsRepository DonationsRepository on lib/pq
type PostgresDonationsRepository struct{}

// NewPostgresDonationsRepository creates the repository
func NewPostgresDonationsRepository() *PostgresDonationsRepository {
	return &PostgresDonationsRepository{}
}

var _ DonationsRepository = (*PostgresDonationsRepository)(nil)

func (r *PostgresDonationsRepository) InsertDonation(ctx context.Context, q DBTX, d *domain.Donation) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	var donorID sql.NullString
	if d.DonorID != nil {
		donorID = sql.NullString{String: *d.DonorID, Valid: true}
	}

	query := `
		INSERT INTO public.donations (
			id, org_id, donor_id, amount, is_amount_split, tax_deductible_amount, tax_non_deductible_amount,
			currency, payment_method, message, note, is_anonymous, donation_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`
	err := q.QueryRowContext(ctx, query,
		d.ID,
		d.OrgID,
		donorID,
		d.Amount,
		d.IsAmountSplit,
		d.TaxDeductibleAmount,
		d.TaxNonDeductibleAmount,
		d.Currency,
		d.PaymentMethod,
		nullString(d.Message),
		nullString(d.Note),
		d.IsAnonymous,
		d.DonationDate,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *PostgresDonationsRepository) GetDonation(ctx context.Context, q DBTX, orgID, donationID string) (*domain.Donation, error) {
	var (
		d       domain.Donation
		donorID sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id::text, org_id::text, donor_id::text, amount, is_amount_split,
		       COALESCE(tax_deductible_amount, 0), COALESCE(tax_non_deductible_amount, 0),
		       currency, payment_method, COALESCE(message, ''), COALESCE(note, ''),
		       is_anonymous, donation_date, created_at, updated_at
		FROM public.donations
		WHERE org_id = $1 AND id = $2`,
		orgID, donationID,
	).Scan(
		&d.ID, &d.OrgID, &donorID, &d.Amount, &d.IsAmountSplit,
		&d.TaxDeductibleAmount, &d.TaxNonDeductibleAmount,
		&d.Currency, &d.PaymentMethod, &d.Message, &d.Note,
		&d.IsAnonymous, &d.DonationDate, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donation %s: %w", donationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get donation: %w", database.ClassifyError(err))
	}
	if donorID.Valid {
		d.DonorID = &donorID.String
	}
	return &d, nil
}
