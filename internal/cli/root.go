package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/migration"
)

// MigrationRunner operations the migrate commands drive
type MigrationRunner interface {
	Init(ctx context.Context) error
	ApplyShared(ctx context.Context) (int, error)
	ApplyAllPending(ctx context.Context, namespace string) (int, error)
	ApplyToAllTenants(ctx context.Context) ([]migration.TenantOutcome, error)
	StatusReport(ctx context.Context) (*migration.StatusReport, error)
}

// OrgResolver finds an org by id or subdomain
type OrgResolver interface {
	Resolve(ctx context.Context, orgID, subdomain string) (*domain.Organization, error)
}

// RegisterExporter renders a yearly receipt register
type RegisterExporter interface {
	ExportRegister(ctx context.Context, org *domain.Organization, year int) ([]byte, error)
}

// OrgProvisioner completes provisioning of a provisional org
type OrgProvisioner interface {
	ResumeProvisioning(ctx context.Context, orgID, ownerID, ownerEmail string) (*domain.Organization, error)
}

// Deps what a command needs; built lazily so --help works without a database
type Deps struct {
	Runner      MigrationRunner
	Orgs        OrgResolver
	Provisioner OrgProvisioner
	Receipts    RegisterExporter
}

// DepsFactory opens connections and returns the deps plus a cleanup func
type DepsFactory func(ctx context.Context) (*Deps, func(), error)

// NewRootCmd builds the operator command tree
func NewRootCmd(build DepsFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "donations-migrate",
		Short: "Schema migrations and receipt tooling for the donation platform",
		Long: `Applies the shared and per-org migration trees and reports drift.

Examples:
  donations-migrate shared
  donations-migrate tenants
  donations-migrate tenant org_hope_trust
  donations-migrate status
  donations-migrate orgs activate 6f1c... --owner-id 2b9e... --owner-email owner@hope.org
  donations-migrate receipts export --subdomain hope --year 2025 --out hope-2025.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(sharedCmd(build))
	rootCmd.AddCommand(tenantsCmd(build))
	rootCmd.AddCommand(tenantCmd(build))
	rootCmd.AddCommand(statusCmd(build))
	rootCmd.AddCommand(orgsCmd(build))
	rootCmd.AddCommand(receiptsCmd(build))
	return rootCmd
}

// withDeps runs fn with freshly built deps and always releases them
func withDeps(cmd *cobra.Command, build DepsFactory, fn func(ctx context.Context, deps *Deps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	deps, cleanup, err := build(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(ctx, deps)
}
