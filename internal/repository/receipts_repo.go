package repository

import (
	"context"
	"time"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// ReceiptsRepository access to public.receipts.
// Receipt rows are snapshots: only the email marker and status are ever updated.
type ReceiptsRepository interface {
	InsertReceipt(ctx context.Context, q DBTX, r *domain.Receipt) error
	GetReceipt(ctx context.Context, q DBTX, orgID, receiptID string) (*domain.Receipt, error)

	// GetReceiptByDonation returns the single receipt issued for a donation
	GetReceiptByDonation(ctx context.Context, q DBTX, orgID, donationID string) (*domain.Receipt, error)

	// ListByOrgYear returns the receipts whose donation date falls in year, ordered by receipt number
	ListByOrgYear(ctx context.Context, q DBTX, orgID string, year int) ([]*domain.Receipt, error)

	MarkEmailSent(ctx context.Context, q DBTX, receiptID string, sentAt time.Time) error

	// SetStatus moves an issued receipt to void or amended
	SetStatus(ctx context.Context, q DBTX, orgID, receiptID, status string) error
}
