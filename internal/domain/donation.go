package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation immutable once created (public.donations)
type Donation struct {
	ID                     string          `db:"id"`
	OrgID                  string          `db:"org_id"`
	DonorID                *string         `db:"donor_id"` // nil for anonymous
	Amount                 decimal.Decimal `db:"amount"`
	IsAmountSplit          bool            `db:"is_amount_split"`
	TaxDeductibleAmount    decimal.Decimal `db:"tax_deductible_amount"`
	TaxNonDeductibleAmount decimal.Decimal `db:"tax_non_deductible_amount"`
	Currency               string          `db:"currency"`
	PaymentMethod          string          `db:"payment_method"`
	Message                string          `db:"message"`
	Note                   string          `db:"note"`
	IsAnonymous            bool            `db:"is_anonymous"`
	DonationDate           time.Time       `db:"donation_date"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
}

// TotalsAmount is what a donation adds to donor and org-link giving totals:
// the deductible share when split, otherwise the full amount.
func (d *Donation) TotalsAmount() decimal.Decimal {
	if d.IsAmountSplit {
		return d.TaxDeductibleAmount
	}
	return d.Amount
}
