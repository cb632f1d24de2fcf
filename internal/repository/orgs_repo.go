package repository

import (
	"context"
	"database/sql"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// OrgsRepository access to public.orgs
type OrgsRepository interface {
	// GetOrg loads a non-deleted org; domain.ErrNotFound when absent
	GetOrg(ctx context.Context, q DBTX, orgID string) (*domain.Organization, error)

	// GetOrgBySubdomain resolves an org by its unique subdomain
	GetOrgBySubdomain(ctx context.Context, q DBTX, subdomain string) (*domain.Organization, error)

	// ListActiveOrgs returns every org that is not soft-deleted, ordered by name
	ListActiveOrgs(ctx context.Context, q DBTX) ([]*domain.Organization, error)

	// CreateOrg inserts a provisional org and returns its id.
	// A duplicate subdomain or schema name yields domain.ErrConflict.
	CreateOrg(ctx context.Context, q DBTX, org *domain.Organization) (string, error)

	// CreateSchema creates the tenant namespace if it does not exist
	CreateSchema(ctx context.Context, q DBTX, schemaName string) error

	// ActivateOrg records the owner and moves provisional → active
	ActivateOrg(ctx context.Context, q DBTX, orgID, ownerID, ownerEmail string) error

	// AllocateReceiptSequence reserves the next receipt number in one read-modify-write statement.
	// It must run inside the transaction that persists the receipt.
	AllocateReceiptSequence(ctx context.Context, tx *sql.Tx, orgID string, year int) (*domain.ReceiptSequence, error)
}
