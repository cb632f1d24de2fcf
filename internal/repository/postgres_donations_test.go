package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

func TestInsertDonation_Anonymous(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	date := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO public\.donations`).
		WithArgs(sqlmock.AnyArg(), "org-1", nil, "50", false, "50", "0", "AUD", "cash", nil, nil, true, date).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(date, date))

	d := &domain.Donation{
		OrgID:                  "org-1",
		Amount:                 decimal.NewFromInt(50),
		TaxDeductibleAmount:    decimal.NewFromInt(50),
		TaxNonDeductibleAmount: decimal.Zero,
		Currency:               "AUD",
		PaymentMethod:          "cash",
		IsAnonymous:            true,
		DonationDate:           date,
	}
	require.NoError(t, NewPostgresDonationsRepository().InsertDonation(context.Background(), db, d))
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, date, d.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDonation_WithDonor(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM public\.donations WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "don-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "org_id", "donor_id", "amount", "is_amount_split", "tax_deductible_amount",
			"tax_non_deductible_amount", "currency", "payment_method", "message", "note",
			"is_anonymous", "donation_date", "created_at", "updated_at",
		}).AddRow("don-1", "org-1", "donor-1", "100.00", true, "60.00", "40.00", "AUD", "stripe", "", "", false, now, now, now))

	d, err := NewPostgresDonationsRepository().GetDonation(context.Background(), db, "org-1", "don-1")
	require.NoError(t, err)
	require.NotNil(t, d.DonorID)
	assert.Equal(t, "donor-1", *d.DonorID)
	assert.True(t, d.IsAmountSplit)
	assert.True(t, decimal.NewFromInt(60).Equal(d.TotalsAmount()))
	require.NoError(t, mock.ExpectationsWereMet())
}
