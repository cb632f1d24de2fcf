package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
)

var (
	subdomainRe     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)
	receiptPrefixRe = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)
)

// ProvisionRequest new org details; OwnerID comes from the identity provider
type ProvisionRequest struct {
	Name          string `json:"name"`
	Subdomain     string `json:"subdomain"`
	ReceiptPrefix string `json:"receipt_prefix,omitempty"`
	Description   string `json:"description,omitempty"`
	Website       string `json:"website,omitempty"`
	ABN           string `json:"abn,omitempty"`
	Type          string `json:"type,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	Country       string `json:"country,omitempty"`
	OwnerID       string `json:"owner_id"`
	OwnerEmail    string `json:"owner_email"`
}

// TenantMigrator applies the tenant tree to one namespace
type TenantMigrator interface {
	ApplyAllPending(ctx context.Context, namespace string) (int, error)
}

// OrgService tenant provisioning
type OrgService struct {
	db             *sql.DB
	orgs           repository.OrgsRepository
	migrator       TenantMigrator
	fallbackPrefix string
	logger         *zap.Logger
}

func NewOrgService(db *sql.DB, orgs repository.OrgsRepository, migrator TenantMigrator, fallbackPrefix string, logger *zap.Logger) *OrgService {
	return &OrgService{
		db:             db,
		orgs:           orgs,
		migrator:       migrator,
		fallbackPrefix: fallbackPrefix,
		logger:         logger,
	}
}

// SchemaNameFor derives the tenant namespace from a subdomain
func SchemaNameFor(subdomain string) string {
	return "org_" + strings.ReplaceAll(subdomain, "-", "_")
}

// Provision creates the org as provisional together with its namespace, migrates the namespace,
// then activates the org. A migration failure leaves the org provisional for a later retry.
func (s *OrgService) Provision(ctx context.Context, req *ProvisionRequest) (*domain.Organization, error) {
	subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if !subdomainRe.MatchString(subdomain) {
		return nil, domain.NewValidationError("subdomain", "must be 3-63 lowercase letters, digits or hyphens")
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}

	org := &domain.Organization{
		Name:          strings.TrimSpace(req.Name),
		Subdomain:     subdomain,
		SchemaName:    SchemaNameFor(subdomain),
		Description:   req.Description,
		Website:       req.Website,
		ABN:           req.ABN,
		Type:          req.Type,
		Address:       req.Address,
		City:          req.City,
		StateProvince: req.StateProvince,
		Country:       req.Country,
		ReceiptPrefix: s.receiptPrefix(req),
		Status:        domain.OrgStatusProvisional,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.orgs.CreateOrg(ctx, tx, org); err != nil {
			return err
		}
		return s.orgs.CreateSchema(ctx, tx, org.SchemaName)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Org provisioned",
		zap.String("org_id", org.ID),
		zap.String("namespace", org.SchemaName),
	)

	if err := s.migrateAndActivate(ctx, org, req.OwnerID, req.OwnerEmail); err != nil {
		return org, err
	}
	return org, nil
}

// ResumeProvisioning finishes an org left provisional by a failed tenant migration:
// it applies whatever is still pending to the org's namespace and then activates it.
func (s *OrgService) ResumeProvisioning(ctx context.Context, orgID, ownerID, ownerEmail string) (*domain.Organization, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, domain.NewValidationError("org_id", "is required")
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.NewValidationError("owner_id", "is required")
	}

	org, err := s.orgs.GetOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org.Status != domain.OrgStatusProvisional {
		return nil, fmt.Errorf("org %s is %s, not provisional: %w", org.ID, org.Status, domain.ErrInvalidState)
	}

	if err := s.orgs.CreateSchema(ctx, s.db, org.SchemaName); err != nil {
		return nil, err
	}
	if err := s.migrateAndActivate(ctx, org, ownerID, ownerEmail); err != nil {
		return org, err
	}
	return org, nil
}

func (s *OrgService) migrateAndActivate(ctx context.Context, org *domain.Organization, ownerID, ownerEmail string) error {
	applied, err := s.migrator.ApplyAllPending(ctx, org.SchemaName)
	if err != nil {
		return fmt.Errorf("org %s left provisional: %w", org.ID, err)
	}

	ownerEmail = domain.NormalizeEmail(ownerEmail)
	if err := s.orgs.ActivateOrg(ctx, s.db, org.ID, ownerID, ownerEmail); err != nil {
		return err
	}
	org.Status = domain.OrgStatusActive
	org.OwnerID = ownerID
	org.OwnerEmail = ownerEmail

	s.logger.Info("Org activated",
		zap.String("org_id", org.ID),
		zap.String("namespace", org.SchemaName),
		zap.Int("migrations_applied", applied),
	)
	return nil
}

// receiptPrefix: explicit, else the upper-cased state when it is a short code, else the fallback
func (s *OrgService) receiptPrefix(req *ProvisionRequest) string {
	for _, candidate := range []string{req.ReceiptPrefix, req.StateProvince} {
		p := strings.ToUpper(strings.TrimSpace(candidate))
		if receiptPrefixRe.MatchString(p) {
			return p
		}
	}
	return s.fallbackPrefix
}
