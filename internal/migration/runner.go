package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// TenantOutcome result of migrating one org's namespace during a batch run
type TenantOutcome struct {
	OrgID     string
	Namespace string
	Applied   int
	Err       error
}

// Runner applies catalog units to namespaces and keeps the ledger in step
type Runner struct {
	db     *sql.DB
	shared *Catalog
	tenant *Catalog
	ledger *Ledger
	orgs   repository.OrgsRepository
	logger *zap.Logger
}

// NewRunner wires a runner. shared may be nil when only tenant trees are managed.
func NewRunner(db *sql.DB, shared, tenant *Catalog, ledger *Ledger, orgs repository.OrgsRepository, logger *zap.Logger) *Runner {
	return &Runner{
		db:     db,
		shared: shared,
		tenant: tenant,
		ledger: ledger,
		orgs:   orgs,
		logger: logger,
	}
}

// TenantCatalog exposes the per-tenant tree
func (r *Runner) TenantCatalog() *Catalog {
	return r.tenant
}

// Init makes sure the ledger table exists
func (r *Runner) Init(ctx context.Context) error {
	return r.ledger.InitTracking(ctx, r.db)
}

// PendingFor returns the tenant units not yet recorded for namespace, ascending
func (r *Runner) PendingFor(ctx context.Context, namespace string) ([]domain.MigrationUnit, error) {
	return r.pending(ctx, r.tenant, namespace)
}

func (r *Runner) pending(ctx context.Context, catalog *Catalog, namespace string) ([]domain.MigrationUnit, error) {
	applied, err := r.ledger.AppliedVersions(ctx, r.db, namespace)
	if err != nil {
		return nil, err
	}
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}

	pending := []domain.MigrationUnit{}
	for _, unit := range catalog.All() {
		if _, ok := done[unit.Version]; !ok {
			pending = append(pending, unit)
		}
	}
	return pending, nil
}

// ApplyOne applies a tenant unit to namespace in its own transaction.
// It returns false when the version was already recorded; that is not an error.
func (r *Runner) ApplyOne(ctx context.Context, namespace string, unit domain.MigrationUnit) (bool, error) {
	return r.applyOne(ctx, r.tenant, namespace, unit)
}

// applyOne: advisory lock on the namespace, re-check the ledger, scope search_path to the
// transaction, run the statements, record. Any failure rolls everything back.
func (r *Runner) applyOne(ctx context.Context, catalog *Catalog, namespace string, unit domain.MigrationUnit) (bool, error) {
	statements, err := catalog.Load(unit)
	if err != nil {
		return false, &domain.MigrationDriftError{Namespace: namespace, Version: unit.Version, Name: unit.Name, Err: err}
	}

	applied := false
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, namespace); err != nil {
			return fmt.Errorf("failed to lock namespace: %w", err)
		}

		done, err := r.ledger.IsApplied(ctx, tx, namespace, unit.Version)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `SET LOCAL search_path TO `+searchPath(namespace)); err != nil {
			return fmt.Errorf("failed to set search_path: %w", err)
		}
		if _, err := tx.ExecContext(ctx, statements); err != nil {
			return err
		}
		if err := r.ledger.Record(ctx, tx, namespace, unit.Version, unit.Name); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, &domain.MigrationDriftError{Namespace: namespace, Version: unit.Version, Name: unit.Name, Err: err}
	}

	if applied {
		r.logger.Info("Applied migration",
			zap.String("namespace", namespace),
			zap.Int("version", unit.Version),
			zap.String("name", unit.Name),
		)
	} else {
		r.logger.Debug("Migration already applied",
			zap.String("namespace", namespace),
			zap.Int("version", unit.Version),
		)
	}
	return applied, nil
}

func searchPath(namespace string) string {
	if namespace == domain.SharedNamespace {
		return pq.QuoteIdentifier(namespace)
	}
	return pq.QuoteIdentifier(namespace) + ", public"
}

// ApplyAllPending applies pending tenant units in ascending order and stops at the first failure.
// The count covers units actually applied before that failure.
func (r *Runner) ApplyAllPending(ctx context.Context, namespace string) (int, error) {
	return r.applyAll(ctx, r.tenant, namespace)
}

func (r *Runner) applyAll(ctx context.Context, catalog *Catalog, namespace string) (int, error) {
	pending, err := r.pending(ctx, catalog, namespace)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		r.logger.Info("No pending migrations", zap.String("namespace", namespace))
		return 0, nil
	}

	r.logger.Info("Applying migrations",
		zap.String("namespace", namespace),
		zap.Int("pending", len(pending)),
	)
	count := 0
	for _, unit := range pending {
		ok, err := r.applyOne(ctx, catalog, namespace, unit)
		if err != nil {
			r.logger.Error("Migration failed",
				zap.String("namespace", namespace),
				zap.Int("version", unit.Version),
				zap.String("name", unit.Name),
				zap.Error(err),
			)
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// ApplyShared applies the shared tree, tracked in the ledger under domain.SharedNamespace
func (r *Runner) ApplyShared(ctx context.Context) (int, error) {
	if r.shared == nil {
		return 0, errors.New("no shared migration tree configured")
	}
	return r.applyAll(ctx, r.shared, domain.SharedNamespace)
}

// ApplyToAllTenants runs ApplyAllPending for every non-deleted org, one at a time.
// A failing org is recorded in its outcome and the scan moves on; the returned error is
// reserved for failures that prevent the scan itself (listing orgs, cancellation).
func (r *Runner) ApplyToAllTenants(ctx context.Context) ([]TenantOutcome, error) {
	orgs, err := r.orgs.ListActiveOrgs(ctx, r.db)
	if err != nil {
		return nil, err
	}

	outcomes := make([]TenantOutcome, 0, len(orgs))
	failed := 0
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		n, err := r.ApplyAllPending(ctx, org.SchemaName)
		outcomes = append(outcomes, TenantOutcome{
			OrgID:     org.ID,
			Namespace: org.SchemaName,
			Applied:   n,
			Err:       err,
		})
		if err != nil {
			failed++
		}
	}

	r.logger.Info("Tenant migration run finished",
		zap.Int("orgs", len(orgs)),
		zap.Int("failed", failed),
	)
	return outcomes, nil
}
