package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt status values
const (
	ReceiptStatusIssued  = "issued"
	ReceiptStatusVoid    = "void"
	ReceiptStatusAmended = "amended"
)

// Receipt immutable snapshot of donation, donor and org facts at issue time (public.receipts).
// Only the email-sent marker and status change after insert.
type Receipt struct {
	ID                     string          `db:"id"`
	OrgID                  string          `db:"org_id"`
	DonationID             string          `db:"donation_id"`
	ReceiptNumber          string          `db:"receipt_number"`
	DonorName              string          `db:"donor_name"`
	DonorEmail             *string         `db:"donor_email"`
	Amount                 decimal.Decimal `db:"amount"`
	Currency               string          `db:"currency"`
	IsAmountSplit          bool            `db:"is_amount_split"`
	TaxDeductibleAmount    decimal.Decimal `db:"tax_deductible_amount"`
	TaxNonDeductibleAmount decimal.Decimal `db:"tax_non_deductible_amount"`
	PaymentMethod          string          `db:"payment_method"`
	DonationDate           time.Time       `db:"donation_date"`
	OrgName                string          `db:"org_name"`
	OrgABN                 string          `db:"org_abn"`
	OrgAddress             string          `db:"org_address"`
	RetentionUntil         time.Time       `db:"retention_until"`
	EmailSent              bool            `db:"email_sent"`
	EmailSentAt            *time.Time      `db:"email_sent_at"`
	Status                 string          `db:"status"`
	CreatedAt              time.Time       `db:"created_at"`
}

// FormatReceiptNumber renders {PREFIX}-{YYYY}-{00000}, e.g. NSW-2025-00001
func FormatReceiptNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%05d", prefix, year, sequence)
}

// RetentionUntil is the date a receipt may be discarded
func RetentionUntil(donationDate time.Time, years int) time.Time {
	return donationDate.AddDate(years, 0, 0)
}
