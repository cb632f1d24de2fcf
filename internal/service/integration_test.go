//go:build integration

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/migration"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// Runs against a disposable database: TEST_DB_DSN=postgres://... go test -tags integration ./internal/service/
func setupIntegrationDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skipf("TEST_DB_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	shared, err := migration.NewCatalogFromDir("../../migrations/shared")
	require.NoError(t, err)
	tenant, err := migration.NewCatalogFromDir("../../migrations/tenant")
	require.NoError(t, err)
	runner := migration.NewRunner(db, shared, tenant, migration.NewLedger(zap.NewNop()), repository.NewPostgresOrgsRepository(), zap.NewNop())
	require.NoError(t, runner.Init(ctx))
	_, err = runner.ApplyShared(ctx)
	require.NoError(t, err)
	return db
}

func createActiveOrg(t *testing.T, db *sql.DB) string {
	sub := "it-" + uuid.New().String()[:8]
	org := &domain.Organization{
		Name:          "Integration " + sub,
		Subdomain:     sub,
		SchemaName:    SchemaNameFor(sub),
		ReceiptPrefix: "IT",
		Status:        domain.OrgStatusActive,
	}
	_, err := repository.NewPostgresOrgsRepository().CreateOrg(context.Background(), db, org)
	require.NoError(t, err)
	return org.ID
}

func newIntegrationDonationService(db *sql.DB, receipts repository.ReceiptsRepository) *DonationService {
	return NewDonationService(
		db,
		repository.NewPostgresOrgsRepository(),
		repository.NewPostgresDonorsRepository(),
		repository.NewPostgresDonationsRepository(),
		receipts,
		nil,
		config.DefaultDonationDefaults(),
		time.Now,
		zap.NewNop(),
	)
}

// failingReceipts fails the receipt insert, which runs after the number is allocated
type failingReceipts struct {
	repository.ReceiptsRepository
}

func (failingReceipts) InsertReceipt(ctx context.Context, q repository.DBTX, rc *domain.Receipt) error {
	return errors.New("receipt insert failed")
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func anonymousRequest(orgID string) *DonationRequest {
	return &DonationRequest{OrgID: orgID, Amount: decimal.NewFromInt(10), IsAnonymous: true}
}

func TestIntegration_ConcurrentAnonymousDonationsGetDistinctNumbers(t *testing.T) {
	db := setupIntegrationDB(t)
	orgID := createActiveOrg(t, db)

	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.CreateDonation(context.Background(), anonymousRequest(orgID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, res.Receipt.ReceiptNumber)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	year := time.Now().UTC().Year()
	for i, num := range numbers {
		assert.Equal(t, fmt.Sprintf("IT-%d-%05d", year, i+1), num)
	}
}

func TestIntegration_ConcurrentNewDonorSameEmailOneWins(t *testing.T) {
	db := setupIntegrationDB(t)
	orgID := createActiveOrg(t, db)

	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())

	email := "race-" + uuid.New().String()[:8] + "@example.org"
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateDonation(context.Background(), &DonationRequest{
				OrgID:  orgID,
				Amount: decimal.NewFromInt(5),
				Donor:  &DonorInput{FirstName: "Race", LastName: "Donor", Email: email},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 4, conflicts)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM public.orgs_donors od
		JOIN public.donor_profiles d ON d.id = od.donor_id WHERE LOWER(d.email) = $1`, email))
}

func TestIntegration_ConcurrentNewDonorSameEmailAcrossOrgsBothSucceed(t *testing.T) {
	db := setupIntegrationDB(t)
	orgA := createActiveOrg(t, db)
	orgB := createActiveOrg(t, db)
	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())

	email := "cross-" + uuid.New().String()[:8] + "@example.org"
	results := make([]*DonationResult, 2)
	errs := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, orgID := range []string{orgA, orgB} {
		wg.Add(1)
		go func(i int, orgID string) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.CreateDonation(context.Background(), &DonationRequest{
				OrgID:  orgID,
				Amount: decimal.NewFromInt(15),
				Donor:  &DonorInput{FirstName: "Cross", LastName: "Org", Email: email},
			})
		}(i, orgID)
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].Donor.ID, results[1].Donor.ID)
	assert.True(t, results[0].DonorCreated != results[1].DonorCreated, "exactly one request creates the donor")

	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM public.donor_profiles WHERE LOWER(email) = $1`, email))
	assert.Equal(t, 2, countRows(t, db, `SELECT COUNT(*) FROM public.orgs_donors WHERE donor_id = $1`, results[0].Donor.ID))
	assert.Equal(t, 1, countRows(t, db,
		`SELECT COUNT(*) FROM public.donor_profiles WHERE id = $1 AND total_donations = 30 AND donation_count = 2`,
		results[0].Donor.ID))
}

func TestIntegration_SequenceRestartsInNewYear(t *testing.T) {
	db := setupIntegrationDB(t)
	orgID := createActiveOrg(t, db)
	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())

	year := time.Now().UTC().Year()
	_, err := db.ExecContext(context.Background(),
		`UPDATE public.orgs SET receipt_sequence = 57, receipt_sequence_year = $2 WHERE id = $1`, orgID, year-1)
	require.NoError(t, err)

	res, err := svc.CreateDonation(context.Background(), anonymousRequest(orgID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("IT-%d-00001", year), res.Receipt.ReceiptNumber)
	assert.Equal(t, 1, countRows(t, db,
		`SELECT COUNT(*) FROM public.orgs WHERE id = $1 AND receipt_sequence = 1 AND receipt_sequence_year = $2`, orgID, year))
}

func TestIntegration_RolledBackAllocationIsNeverCommitted(t *testing.T) {
	db := setupIntegrationDB(t)
	orgID := createActiveOrg(t, db)
	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())
	broken := newIntegrationDonationService(db, failingReceipts{repository.NewPostgresReceiptsRepository()})
	ctx := context.Background()
	year := time.Now().UTC().Year()

	first, err := svc.CreateDonation(ctx, anonymousRequest(orgID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("IT-%d-00001", year), first.Receipt.ReceiptNumber)

	_, err = broken.CreateDonation(ctx, anonymousRequest(orgID))
	require.Error(t, err)

	// the allocation rolled back with the donation, so nothing from the failed attempt is visible
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM public.donations WHERE org_id = $1`, orgID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM public.receipts WHERE org_id = $1`, orgID))
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM public.orgs WHERE id = $1 AND receipt_sequence = 1`, orgID))

	second, err := svc.CreateDonation(ctx, anonymousRequest(orgID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("IT-%d-00002", year), second.Receipt.ReceiptNumber)
	assert.Equal(t, 2, countRows(t, db,
		`SELECT COUNT(DISTINCT receipt_number) FROM public.receipts WHERE org_id = $1`, orgID))
}

func TestIntegration_ExistingDonorLinkedToSecondOrg(t *testing.T) {
	db := setupIntegrationDB(t)
	orgA := createActiveOrg(t, db)
	orgB := createActiveOrg(t, db)
	svc := newIntegrationDonationService(db, repository.NewPostgresReceiptsRepository())
	ctx := context.Background()

	email := "linked-" + uuid.New().String()[:8] + "@example.org"
	donor := &DonorInput{FirstName: "Linked", LastName: "Donor", Email: email}
	first, err := svc.CreateDonation(ctx, &DonationRequest{OrgID: orgA, Amount: decimal.NewFromInt(20), Donor: donor})
	require.NoError(t, err)
	require.True(t, first.DonorCreated)

	donorsBefore := countRows(t, db, `SELECT COUNT(*) FROM public.donor_profiles`)
	linksBefore := countRows(t, db, `SELECT COUNT(*) FROM public.orgs_donors`)

	second, err := svc.CreateDonation(ctx, &DonationRequest{OrgID: orgB, Amount: decimal.NewFromInt(30), Donor: donor})
	require.NoError(t, err)
	assert.True(t, second.DonorLinked)
	assert.False(t, second.DonorCreated)
	assert.Equal(t, first.Donor.ID, second.Donor.ID)

	assert.Equal(t, donorsBefore, countRows(t, db, `SELECT COUNT(*) FROM public.donor_profiles`))
	assert.Equal(t, linksBefore+1, countRows(t, db, `SELECT COUNT(*) FROM public.orgs_donors`))
	assert.Equal(t, 1, countRows(t, db,
		`SELECT COUNT(*) FROM public.orgs_donors WHERE org_id = $1 AND donor_id = $2 AND total_donations = 30 AND donation_count = 1`,
		orgB, first.Donor.ID))
}
