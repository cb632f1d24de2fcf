package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	"github.com/umar1110/Donation-Plantform-Server/internal/mail"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

var orgRowColumns = []string{
	"id", "name", "subdomain", "schema_name", "description", "website", "abn", "type",
	"address", "city", "state_province", "country", "receipt_prefix", "receipt_sequence",
	"receipt_sequence_year", "status", "owner_id", "owner_email", "created_at",
}

var donorRowColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "address", "country", "state_province",
	"city", "auth_user_id", "total_donations", "donation_count", "created_at", "updated_at",
}

func orgRow(id, subdomain string) *sqlmock.Rows {
	return sqlmock.NewRows(orgRowColumns).AddRow(
		id, "Hope Trust", subdomain, "org_"+subdomain, "", "", "12 345 678 901", "charity",
		"1 Main St", "Sydney", "NSW", "Australia", "NSW", 0,
		2025, "active", "owner-1", "owner@hope.org", fixedNow,
	)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	emails []*mail.ReceiptEmail
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, email *mail.ReceiptEmail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.emails = append(d.emails, email)
	return nil
}

func (d *recordingDispatcher) sent() []*mail.ReceiptEmail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*mail.ReceiptEmail(nil), d.emails...)
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupDonationService(t *testing.T) (*DonationService, sqlmock.Sqlmock, *recordingDispatcher) {
	db, mock := setupMockDB(t)
	dispatcher := &recordingDispatcher{}
	svc := NewDonationService(
		db,
		repository.NewPostgresOrgsRepository(),
		repository.NewPostgresDonorsRepository(),
		repository.NewPostgresDonationsRepository(),
		repository.NewPostgresReceiptsRepository(),
		dispatcher,
		config.DefaultDonationDefaults(),
		clock,
		zap.NewNop(),
	)
	return svc, mock, dispatcher
}
