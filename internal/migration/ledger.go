package migration

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

// ledgerInitLockKey advisory lock taken while the ledger table is created
const ledgerInitLockKey int64 = 7_302_114_001

// Ledger public.schema_migrations: which versions are applied to which namespace
type Ledger struct {
	logger *zap.Logger
}

// NewLedger creates a ledger
func NewLedger(logger *zap.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// InitTracking creates the ledger table if absent.
// Concurrent callers serialize on an advisory lock so CREATE ... IF NOT EXISTS never races.
func (l *Ledger) InitTracking(ctx context.Context, db *sql.DB) error {
	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerInitLockKey); err != nil {
			return fmt.Errorf("failed to lock migration ledger: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS public.schema_migrations (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				namespace VARCHAR(100) NOT NULL,
				version INTEGER NOT NULL,
				name VARCHAR(255) NOT NULL,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (namespace, version)
			)`); err != nil {
			return fmt.Errorf("failed to create migration ledger: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_schema_migrations_namespace
				ON public.schema_migrations (namespace)`); err != nil {
			return fmt.Errorf("failed to index migration ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Debug("Migration ledger ready")
	return nil
}

// AppliedVersions returns the applied versions of namespace in ascending order
func (l *Ledger) AppliedVersions(ctx context.Context, q repository.DBTX, namespace string) ([]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT version FROM public.schema_migrations
		WHERE namespace = $1
		ORDER BY version`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration ledger for %s: %w", namespace, err)
	}
	defer rows.Close()

	versions := []int{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate migration ledger: %w", err)
	}
	return versions, nil
}

// IsApplied reports whether (namespace, version) is recorded
func (l *Ledger) IsApplied(ctx context.Context, q repository.DBTX, namespace string, version int) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM public.schema_migrations WHERE namespace = $1 AND version = $2
		)`,
		namespace, version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration ledger: %w", err)
	}
	return exists, nil
}

// Record appends a ledger row; an already-recorded version is left untouched
func (l *Ledger) Record(ctx context.Context, q repository.DBTX, namespace string, version int, name string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO public.schema_migrations (namespace, version, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, version) DO NOTHING`,
		namespace, version, name,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %d_%s for %s: %w", version, name, namespace, err)
	}
	return nil
}
