package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

var receiptRowColumns = []string{
	"id", "org_id", "donation_id", "receipt_number", "donor_name", "donor_email", "amount",
	"currency", "is_amount_split", "tax_deductible_amount", "tax_non_deductible_amount",
	"payment_method", "donation_date", "org_name", "org_abn", "org_address", "retention_until",
	"email_sent", "email_sent_at", "status", "created_at",
}

var donationRowColumns = []string{
	"id", "org_id", "donor_id", "amount", "is_amount_split", "tax_deductible_amount",
	"tax_non_deductible_amount", "currency", "payment_method", "message", "note",
	"is_anonymous", "donation_date", "created_at", "updated_at",
}

func setupReceiptService(t *testing.T) (*ReceiptService, sqlmock.Sqlmock, *recordingDispatcher) {
	db, mock := setupMockDB(t)
	dispatcher := &recordingDispatcher{}
	svc := NewReceiptService(
		db,
		repository.NewPostgresReceiptsRepository(),
		repository.NewPostgresDonationsRepository(),
		dispatcher,
		zap.NewNop(),
	)
	return svc, mock, dispatcher
}

func receiptRow(id, email any, status string) *sqlmock.Rows {
	return sqlmock.NewRows(receiptRowColumns).AddRow(
		id, "org-1", "d-1", "NSW-2025-00003", "Jane Doe", email, "120",
		"AUD", false, "120", "0",
		"card", fixedNow, "Hope Trust", "", "", fixedNow.AddDate(7, 0, 0),
		true, fixedNow, status, fixedNow,
	)
}

func TestExportRegister(t *testing.T) {
	svc, mock, _ := setupReceiptService(t)

	mock.ExpectQuery(`FROM public\.receipts WHERE org_id = \$1`).
		WillReturnRows(sqlmock.NewRows(receiptRowColumns).AddRow(
			"r-1", "org-1", "d-1", "NSW-2025-00001", "Anonymous Donor", nil, "50",
			"AUD", false, "50", "0",
			"cash", fixedNow, "Hope Trust", "", "", fixedNow.AddDate(7, 0, 0),
			false, nil, "issued", fixedNow,
		))

	data, err := svc.ExportRegister(context.Background(), &domain.Organization{ID: "org-1", Name: "Hope Trust"}, 2025)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportRegister_BadYear(t *testing.T) {
	svc, mock, _ := setupReceiptService(t)
	_, err := svc.ExportRegister(context.Background(), &domain.Organization{ID: "org-1"}, 25)
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVoidReceipt(t *testing.T) {
	svc, mock, _ := setupReceiptService(t)

	mock.ExpectExec(`UPDATE public\.receipts SET status = \$1`).
		WithArgs(domain.ReceiptStatusVoid, "org-1", "r-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE public\.receipts SET status = \$1`).
		WithArgs(domain.ReceiptStatusVoid, "org-1", "r-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.VoidReceipt(context.Background(), "org-1", "r-1"))
	assert.ErrorIs(t, svc.VoidReceipt(context.Background(), "org-1", "r-1"), domain.ErrInvalidState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReceiptForDonation(t *testing.T) {
	svc, mock, _ := setupReceiptService(t)

	mock.ExpectQuery(`FROM public\.donations WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "d-1").
		WillReturnRows(sqlmock.NewRows(donationRowColumns).AddRow(
			"d-1", "org-1", "donor-1", "120", false, "120", "0", "AUD", "card", "", "", false, fixedNow, fixedNow, fixedNow,
		))
	mock.ExpectQuery(`FROM public\.receipts WHERE org_id = \$1 AND donation_id = \$2`).
		WithArgs("org-1", "d-1").
		WillReturnRows(receiptRow("r-1", "jane@example.org", domain.ReceiptStatusIssued))

	rc, err := svc.GetReceiptForDonation(context.Background(), "org-1", "d-1")
	require.NoError(t, err)
	assert.Equal(t, "NSW-2025-00003", rc.ReceiptNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReceiptForDonation_UnknownDonation(t *testing.T) {
	svc, mock, _ := setupReceiptService(t)

	mock.ExpectQuery(`FROM public\.donations WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "other-org-donation").
		WillReturnRows(sqlmock.NewRows(donationRowColumns))

	_, err := svc.GetReceiptForDonation(context.Background(), "org-1", "other-org-donation")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResendReceipt(t *testing.T) {
	svc, mock, dispatcher := setupReceiptService(t)

	mock.ExpectQuery(`FROM public\.receipts WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "r-1").
		WillReturnRows(receiptRow("r-1", "jane@example.org", domain.ReceiptStatusIssued))

	rc, err := svc.ResendReceipt(context.Background(), "org-1", "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", rc.ID)

	sent := dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.org", sent[0].To)
	assert.Equal(t, "NSW-2025-00003", sent[0].ReceiptNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResendReceipt_NotSendable(t *testing.T) {
	tests := []struct {
		name   string
		email  any
		status string
	}{
		{"void receipt", "jane@example.org", domain.ReceiptStatusVoid},
		{"no donor email", nil, domain.ReceiptStatusIssued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, dispatcher := setupReceiptService(t)
			mock.ExpectQuery(`FROM public\.receipts WHERE org_id = \$1 AND id = \$2`).
				WillReturnRows(receiptRow("r-1", tt.email, tt.status))

			_, err := svc.ResendReceipt(context.Background(), "org-1", "r-1")
			assert.ErrorIs(t, err, domain.ErrInvalidState)
			assert.Empty(t, dispatcher.sent())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestResendReceipt_QueueDown(t *testing.T) {
	svc, mock, dispatcher := setupReceiptService(t)
	dispatcher.err = errors.New("dial tcp: connection refused")

	mock.ExpectQuery(`FROM public\.receipts WHERE org_id = \$1 AND id = \$2`).
		WillReturnRows(receiptRow("r-1", "jane@example.org", domain.ReceiptStatusIssued))

	_, err := svc.ResendReceipt(context.Background(), "org-1", "r-1")
	assert.ErrorIs(t, err, domain.ErrTransientStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}
