package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

type fakeMigrator struct {
	namespaces []string
	applied    int
	err        error
}

func (m *fakeMigrator) ApplyAllPending(ctx context.Context, namespace string) (int, error) {
	m.namespaces = append(m.namespaces, namespace)
	return m.applied, m.err
}

func setupOrgService(t *testing.T, migrator *fakeMigrator) (*OrgService, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewOrgService(db, repository.NewPostgresOrgsRepository(), migrator, "ORG", zap.NewNop()), mock
}

func TestSchemaNameFor(t *testing.T) {
	assert.Equal(t, "org_hope_trust", SchemaNameFor("hope-trust"))
	assert.Equal(t, "org_abc", SchemaNameFor("abc"))
}

func TestProvision_Success(t *testing.T) {
	migrator := &fakeMigrator{applied: 3}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO public\.orgs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(fixedNow))
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "org_hope_trust"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE public\.orgs`).
		WithArgs("owner-1", "owner@hope.org", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	org, err := svc.Provision(context.Background(), &ProvisionRequest{
		Name:          "Hope Trust",
		Subdomain:     "Hope-Trust",
		StateProvince: "nsw",
		OwnerID:       "owner-1",
		OwnerEmail:    "Owner@Hope.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "hope-trust", org.Subdomain)
	assert.Equal(t, "org_hope_trust", org.SchemaName)
	assert.Equal(t, "NSW", org.ReceiptPrefix)
	assert.Equal(t, domain.OrgStatusActive, org.Status)
	assert.Equal(t, []string{"org_hope_trust"}, migrator.namespaces)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_MigrationFailureLeavesProvisional(t *testing.T) {
	migrator := &fakeMigrator{err: errors.New("boom")}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO public\.orgs`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(fixedNow))
	mock.ExpectExec(`CREATE SCHEMA`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	org, err := svc.Provision(context.Background(), &ProvisionRequest{
		Name: "Hope", Subdomain: "hope", OwnerID: "owner-1",
	})
	require.Error(t, err)
	require.NotNil(t, org)
	assert.Equal(t, domain.OrgStatusProvisional, org.Status)
	assert.Equal(t, "ORG", org.ReceiptPrefix)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_DuplicateSubdomain(t *testing.T) {
	migrator := &fakeMigrator{}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO public\.orgs`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Provision(context.Background(), &ProvisionRequest{
		Name: "Hope", Subdomain: "hope", OwnerID: "owner-1",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, migrator.namespaces)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_Validation(t *testing.T) {
	svc, mock := setupOrgService(t, &fakeMigrator{})

	for _, sub := range []string{"", "a", "-abc", "abc-", "has space", "under_score"} {
		_, err := svc.Provision(context.Background(), &ProvisionRequest{Name: "X", Subdomain: sub, OwnerID: "o"})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr, sub)
		assert.Equal(t, "subdomain", vErr.Field)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptPrefixSelection(t *testing.T) {
	svc := &OrgService{fallbackPrefix: "ORG"}
	assert.Equal(t, "HOPE", svc.receiptPrefix(&ProvisionRequest{ReceiptPrefix: "hope", StateProvince: "NSW"}))
	assert.Equal(t, "VIC", svc.receiptPrefix(&ProvisionRequest{StateProvince: "vic"}))
	assert.Equal(t, "ORG", svc.receiptPrefix(&ProvisionRequest{StateProvince: "New South Wales"}))
	assert.Equal(t, "ORG", svc.receiptPrefix(&ProvisionRequest{}))
}

func provisionalOrgRow(id, subdomain string) *sqlmock.Rows {
	return sqlmock.NewRows(orgRowColumns).AddRow(
		id, "Hope Trust", subdomain, "org_"+subdomain, "", "", "", "charity",
		"", "", "NSW", "Australia", "NSW", 0,
		0, "provisional", "", "", fixedNow,
	)
}

func TestResumeProvisioning_ActivatesAfterMigrating(t *testing.T) {
	migrator := &fakeMigrator{applied: 2}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectQuery(`FROM public\.orgs WHERE id = \$1`).
		WithArgs("org-5").
		WillReturnRows(provisionalOrgRow("org-5", "hope"))
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "org_hope"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE public\.orgs`).
		WithArgs("owner-1", "owner@hope.org", "org-5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	org, err := svc.ResumeProvisioning(context.Background(), "org-5", "owner-1", "Owner@Hope.org")
	require.NoError(t, err)
	assert.Equal(t, domain.OrgStatusActive, org.Status)
	assert.Equal(t, "owner@hope.org", org.OwnerEmail)
	assert.Equal(t, []string{"org_hope"}, migrator.namespaces)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeProvisioning_MigrationStillFailing(t *testing.T) {
	migrator := &fakeMigrator{err: errors.New("syntax error")}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectQuery(`FROM public\.orgs WHERE id = \$1`).
		WillReturnRows(provisionalOrgRow("org-5", "hope"))
	mock.ExpectExec(`CREATE SCHEMA`).WillReturnResult(sqlmock.NewResult(0, 0))

	org, err := svc.ResumeProvisioning(context.Background(), "org-5", "owner-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "left provisional")
	assert.Equal(t, domain.OrgStatusProvisional, org.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResumeProvisioning_RejectsActiveOrg(t *testing.T) {
	migrator := &fakeMigrator{}
	svc, mock := setupOrgService(t, migrator)

	mock.ExpectQuery(`FROM public\.orgs WHERE id = \$1`).
		WillReturnRows(orgRow("org-1", "hope"))

	_, err := svc.ResumeProvisioning(context.Background(), "org-1", "owner-1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Empty(t, migrator.namespaces)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.ResumeProvisioning(context.Background(), "org-1", "", "")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "owner_id", vErr.Field)
}
