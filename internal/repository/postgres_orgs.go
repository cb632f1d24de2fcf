package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// PostgresOrgsRepository OrgsRepository on lib/pq
type PostgresOrgsRepository struct{}

// NewPostgresOrgsRepository creates the repository
func NewPostgresOrgsRepository() *PostgresOrgsRepository {
	return &PostgresOrgsRepository{}
}

var _ OrgsRepository = (*PostgresOrgsRepository)(nil)

const orgColumns = `
	id::text,
	name,
	subdomain,
	schema_name,
	COALESCE(description, ''),
	COALESCE(website, ''),
	COALESCE(abn, ''),
	COALESCE(type, ''),
	COALESCE(address, ''),
	COALESCE(city, ''),
	COALESCE(state_province, ''),
	COALESCE(country, ''),
	receipt_prefix,
	COALESCE(receipt_sequence, 0),
	COALESCE(receipt_sequence_year, 0),
	status,
	COALESCE(owner_id::text, ''),
	COALESCE(owner_email, ''),
	created_at`

func scanOrg(row interface{ Scan(...any) error }) (*domain.Organization, error) {
	var org domain.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Subdomain,
		&org.SchemaName,
		&org.Description,
		&org.Website,
		&org.ABN,
		&org.Type,
		&org.Address,
		&org.City,
		&org.StateProvince,
		&org.Country,
		&org.ReceiptPrefix,
		&org.ReceiptSequence,
		&org.ReceiptSequenceYear,
		&org.Status,
		&org.OwnerID,
		&org.OwnerEmail,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *PostgresOrgsRepository) GetOrg(ctx context.Context, q DBTX, orgID string) (*domain.Organization, error) {
	if orgID == "" {
		return nil, domain.NewValidationError("org_id", "is required")
	}
	query := `SELECT ` + orgColumns + ` FROM public.orgs WHERE id = $1 AND deleted_at IS NULL`
	org, err := scanOrg(q.QueryRowContext(ctx, query, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("org %s: %w", orgID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get org: %w", database.ClassifyError(err))
	}
	return org, nil
}

func (r *PostgresOrgsRepository) GetOrgBySubdomain(ctx context.Context, q DBTX, subdomain string) (*domain.Organization, error) {
	if subdomain == "" {
		return nil, domain.NewValidationError("subdomain", "is required")
	}
	query := `SELECT ` + orgColumns + ` FROM public.orgs WHERE subdomain = $1 AND deleted_at IS NULL`
	org, err := scanOrg(q.QueryRowContext(ctx, query, subdomain))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("org with subdomain %s: %w", subdomain, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get org by subdomain: %w", database.ClassifyError(err))
	}
	return org, nil
}

func (r *PostgresOrgsRepository) ListActiveOrgs(ctx context.Context, q DBTX) ([]*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM public.orgs WHERE deleted_at IS NULL ORDER BY name, id`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orgs: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	orgs := []*domain.Organization{}
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan org: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orgs: %w", database.ClassifyError(err))
	}
	return orgs, nil
}

func (r *PostgresOrgsRepository) CreateOrg(ctx context.Context, q DBTX, org *domain.Organization) (string, error) {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	if org.Status == "" {
		org.Status = domain.OrgStatusProvisional
	}

	query := `
		INSERT INTO public.orgs (
			id, name, subdomain, schema_name, description, website, abn, type,
			address, city, state_province, country, receipt_prefix, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at`
	err := q.QueryRowContext(ctx, query,
		org.ID,
		org.Name,
		org.Subdomain,
		org.SchemaName,
		nullString(org.Description),
		nullString(org.Website),
		nullString(org.ABN),
		nullString(org.Type),
		nullString(org.Address),
		nullString(org.City),
		nullString(org.StateProvince),
		nullString(org.Country),
		org.ReceiptPrefix,
		org.Status,
	).Scan(&org.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to create org: %w", database.ClassifyError(err))
	}
	return org.ID, nil
}

func (r *PostgresOrgsRepository) CreateSchema(ctx context.Context, q DBTX, schemaName string) error {
	if _, err := q.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(schemaName)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", schemaName, database.ClassifyError(err))
	}
	return nil
}

func (r *PostgresOrgsRepository) ActivateOrg(ctx context.Context, q DBTX, orgID, ownerID, ownerEmail string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE public.orgs
		SET owner_id = $1,
		    owner_email = $2,
		    status = 'active'
		WHERE id = $3 AND status = 'provisional' AND deleted_at IS NULL`,
		ownerID, ownerEmail, orgID,
	)
	if err != nil {
		return fmt.Errorf("failed to activate org: %w", database.ClassifyError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to activate org: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("org %s is not provisional: %w", orgID, domain.ErrInvalidState)
	}
	return nil
}

// AllocateReceiptSequence restarts at 1 when year is later than the stored year (or nothing is stored),
// otherwise increments. The UPDATE holds the org row lock until the caller's transaction ends, so
// concurrent issuers for one org serialize here while other orgs proceed in parallel.
// A stored year ahead of the caller's clock keeps counting in the stored year.
func (r *PostgresOrgsRepository) AllocateReceiptSequence(ctx context.Context, tx *sql.Tx, orgID string, year int) (*domain.ReceiptSequence, error) {
	if tx == nil {
		return nil, fmt.Errorf("receipt sequence allocation requires a transaction: %w", domain.ErrInvalidState)
	}

	query := `
		UPDATE public.orgs
		SET receipt_sequence = CASE
		      WHEN receipt_sequence IS NULL OR COALESCE(receipt_sequence_year, 0) < $2 THEN 1
		      ELSE receipt_sequence + 1
		    END,
		    receipt_sequence_year = GREATEST(COALESCE(receipt_sequence_year, 0), $2)
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING receipt_prefix, receipt_sequence, receipt_sequence_year`

	var seq domain.ReceiptSequence
	err := tx.QueryRowContext(ctx, query, orgID, year).Scan(&seq.Prefix, &seq.Sequence, &seq.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("org %s for receipt sequence: %w", orgID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to allocate receipt sequence: %w", database.ClassifyError(err))
	}
	return &seq, nil
}
