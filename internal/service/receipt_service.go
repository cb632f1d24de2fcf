package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/export"
	"github.com/umar1110/Donation-Plantform-Server/internal/mail"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// ReceiptService receipt operations after issuance: lookup, resend, register export and voiding
type ReceiptService struct {
	db         *sql.DB
	receipts   repository.ReceiptsRepository
	donations  repository.DonationsRepository
	dispatcher mail.Dispatcher
	logger     *zap.Logger
}

// NewReceiptService dispatcher may be nil when the caller never resends
func NewReceiptService(db *sql.DB, receipts repository.ReceiptsRepository, donations repository.DonationsRepository, dispatcher mail.Dispatcher, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		db:         db,
		receipts:   receipts,
		donations:  donations,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// GetReceiptForDonation returns the receipt of one of the org's donations.
// An unknown donation and a donation without a receipt are both domain.ErrNotFound.
func (s *ReceiptService) GetReceiptForDonation(ctx context.Context, orgID, donationID string) (*domain.Receipt, error) {
	if _, err := s.donations.GetDonation(ctx, s.db, orgID, donationID); err != nil {
		return nil, err
	}
	return s.receipts.GetReceiptByDonation(ctx, s.db, orgID, donationID)
}

// ResendReceipt queues the receipt email again from the stored snapshot.
// Void receipts and receipts without a donor email cannot be sent.
func (s *ReceiptService) ResendReceipt(ctx context.Context, orgID, receiptID string) (*domain.Receipt, error) {
	if s.dispatcher == nil {
		return nil, fmt.Errorf("receipt email dispatch is not configured: %w", domain.ErrInvalidState)
	}
	rc, err := s.receipts.GetReceipt(ctx, s.db, orgID, receiptID)
	if err != nil {
		return nil, err
	}
	if rc.Status == domain.ReceiptStatusVoid {
		return nil, fmt.Errorf("receipt %s is void: %w", rc.ReceiptNumber, domain.ErrInvalidState)
	}

	email, ok, err := mail.BuildReceiptEmail(rc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("receipt %s has no donor email: %w", rc.ReceiptNumber, domain.ErrInvalidState)
	}
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), email); err != nil {
		return nil, fmt.Errorf("failed to schedule receipt email: %w: %w", domain.ErrTransientStorage, err)
	}

	s.logger.Info("Receipt email re-sent",
		zap.String("org_id", orgID),
		zap.String("receipt_id", rc.ID),
		zap.String("receipt_number", rc.ReceiptNumber),
	)
	return rc, nil
}

// ExportRegister builds the XLSX receipt register of one org for one year
func (s *ReceiptService) ExportRegister(ctx context.Context, org *domain.Organization, year int) ([]byte, error) {
	if year < 1900 || year > 9999 {
		return nil, domain.NewValidationError("year", "must be a four-digit year")
	}
	receipts, err := s.receipts.ListByOrgYear(ctx, s.db, org.ID, year)
	if err != nil {
		return nil, err
	}
	data, err := export.GenerateReceiptRegister(org.Name, year, receipts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Receipt register exported",
		zap.String("org_id", org.ID),
		zap.Int("year", year),
		zap.Int("receipts", len(receipts)),
	)
	return data, nil
}

// VoidReceipt marks an issued receipt void; its number stays consumed
func (s *ReceiptService) VoidReceipt(ctx context.Context, orgID, receiptID string) error {
	if err := s.receipts.SetStatus(ctx, s.db, orgID, receiptID, domain.ReceiptStatusVoid); err != nil {
		return err
	}
	s.logger.Info("Receipt voided", zap.String("org_id", orgID), zap.String("receipt_id", receiptID))
	return nil
}
