package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// PostgresReceiptsRepository ReceiptsRepository on lib/pq
type PostgresReceiptsRepository struct{}

// NewPostgresReceiptsRepository creates the repository
func NewPostgresReceiptsRepository() *PostgresReceiptsRepository {
	return &PostgresReceiptsRepository{}
}

var _ ReceiptsRepository = (*PostgresReceiptsRepository)(nil)

const receiptColumns = `
	id::text,
	org_id::text,
	donation_id::text,
	receipt_number,
	donor_name,
	donor_email,
	amount,
	currency,
	is_amount_split,
	COALESCE(tax_deductible_amount, 0),
	COALESCE(tax_non_deductible_amount, 0),
	payment_method,
	donation_date,
	org_name,
	COALESCE(org_abn, ''),
	COALESCE(org_address, ''),
	retention_until,
	email_sent,
	email_sent_at,
	status,
	created_at`

func scanReceipt(row interface{ Scan(...any) error }) (*domain.Receipt, error) {
	var (
		r           domain.Receipt
		donorEmail  sql.NullString
		emailSentAt sql.NullTime
	)
	err := row.Scan(
		&r.ID,
		&r.OrgID,
		&r.DonationID,
		&r.ReceiptNumber,
		&r.DonorName,
		&donorEmail,
		&r.Amount,
		&r.Currency,
		&r.IsAmountSplit,
		&r.TaxDeductibleAmount,
		&r.TaxNonDeductibleAmount,
		&r.PaymentMethod,
		&r.DonationDate,
		&r.OrgName,
		&r.OrgABN,
		&r.OrgAddress,
		&r.RetentionUntil,
		&r.EmailSent,
		&emailSentAt,
		&r.Status,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if donorEmail.Valid {
		r.DonorEmail = &donorEmail.String
	}
	if emailSentAt.Valid {
		r.EmailSentAt = &emailSentAt.Time
	}
	return &r, nil
}

func (r *PostgresReceiptsRepository) InsertReceipt(ctx context.Context, q DBTX, rc *domain.Receipt) error {
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	if rc.Status == "" {
		rc.Status = domain.ReceiptStatusIssued
	}

	var donorEmail sql.NullString
	if rc.DonorEmail != nil {
		donorEmail = sql.NullString{String: *rc.DonorEmail, Valid: true}
	}

	query := `
		INSERT INTO public.receipts (
			id, org_id, donation_id, receipt_number, donor_name, donor_email,
			amount, currency, is_amount_split, tax_deductible_amount, tax_non_deductible_amount,
			payment_method, donation_date, org_name, org_abn, org_address,
			retention_until, email_sent, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE, $18)
		RETURNING created_at`
	err := q.QueryRowContext(ctx, query,
		rc.ID,
		rc.OrgID,
		rc.DonationID,
		rc.ReceiptNumber,
		rc.DonorName,
		donorEmail,
		rc.Amount,
		rc.Currency,
		rc.IsAmountSplit,
		rc.TaxDeductibleAmount,
		rc.TaxNonDeductibleAmount,
		rc.PaymentMethod,
		rc.DonationDate,
		rc.OrgName,
		nullString(rc.OrgABN),
		nullString(rc.OrgAddress),
		rc.RetentionUntil,
		rc.Status,
	).Scan(&rc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *PostgresReceiptsRepository) GetReceipt(ctx context.Context, q DBTX, orgID, receiptID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM public.receipts WHERE org_id = $1 AND id = $2`
	rc, err := scanReceipt(q.QueryRowContext(ctx, query, orgID, receiptID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("receipt %s: %w", receiptID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get receipt: %w", database.ClassifyError(err))
	}
	return rc, nil
}

func (r *PostgresReceiptsRepository) GetReceiptByDonation(ctx context.Context, q DBTX, orgID, donationID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM public.receipts WHERE org_id = $1 AND donation_id = $2`
	rc, err := scanReceipt(q.QueryRowContext(ctx, query, orgID, donationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("receipt for donation %s: %w", donationID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get receipt by donation: %w", database.ClassifyError(err))
	}
	return rc, nil
}

func (r *PostgresReceiptsRepository) ListByOrgYear(ctx context.Context, q DBTX, orgID string, year int) ([]*domain.Receipt, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	query := `SELECT ` + receiptColumns + `
		FROM public.receipts
		WHERE org_id = $1 AND donation_date >= $2 AND donation_date < $3
		ORDER BY receipt_number`
	rows, err := q.QueryContext(ctx, query, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	receipts := []*domain.Receipt{}
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", database.ClassifyError(err))
	}
	return receipts, nil
}

func (r *PostgresReceiptsRepository) MarkEmailSent(ctx context.Context, q DBTX, receiptID string, sentAt time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE public.receipts
		SET email_sent = TRUE, email_sent_at = $1
		WHERE id = $2`,
		sentAt, receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark receipt email sent: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *PostgresReceiptsRepository) SetStatus(ctx context.Context, q DBTX, orgID, receiptID, status string) error {
	if status != domain.ReceiptStatusVoid && status != domain.ReceiptStatusAmended {
		return domain.NewValidationError("status", fmt.Sprintf("must be %s or %s", domain.ReceiptStatusVoid, domain.ReceiptStatusAmended))
	}
	result, err := q.ExecContext(ctx, `
		UPDATE public.receipts
		SET status = $1
		WHERE org_id = $2 AND id = $3 AND status = 'issued'`,
		status, orgID, receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to set receipt status: %w", database.ClassifyError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set receipt status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("receipt %s is not issued: %w", receiptID, domain.ErrInvalidState)
	}
	return nil
}
