package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
	"github.com/umar1110/Donation-Plantform-Server/internal/store"
)

const subdomainKeyPrefix = "org:subdomain:"

// OrgResolver maps an inbound request to its org.
// Only the subdomain → id mapping is cached; org rows, and so sequence state, are always read fresh.
type OrgResolver struct {
	db     *sql.DB
	orgs   repository.OrgsRepository
	kv     store.KV
	ttl    time.Duration
	logger *zap.Logger
}

func NewOrgResolver(db *sql.DB, orgs repository.OrgsRepository, kv store.KV, ttl time.Duration, logger *zap.Logger) *OrgResolver {
	if kv == nil {
		kv = store.NopKV{}
	}
	return &OrgResolver{db: db, orgs: orgs, kv: kv, ttl: ttl, logger: logger}
}

// Resolve by id when given, otherwise by subdomain
func (r *OrgResolver) Resolve(ctx context.Context, orgID, subdomain string) (*domain.Organization, error) {
	if orgID != "" {
		return r.orgs.GetOrg(ctx, r.db, orgID)
	}
	if subdomain == "" {
		return nil, domain.NewValidationError("org", "org id or subdomain is required")
	}

	key := subdomainKeyPrefix + subdomain
	cachedID, err := r.kv.Get(ctx, key)
	switch {
	case err == nil:
		org, err := r.orgs.GetOrg(ctx, r.db, cachedID)
		if err == nil && org.Subdomain == subdomain {
			return org, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		_ = r.kv.Delete(ctx, key)
	case !errors.Is(err, store.ErrMiss):
		r.logger.Warn("Org cache unavailable", zap.Error(err))
	}

	org, err := r.orgs.GetOrgBySubdomain(ctx, r.db, subdomain)
	if err != nil {
		return nil, err
	}
	if err := r.kv.Set(ctx, key, org.ID, r.ttl); err != nil {
		r.logger.Warn("Failed to cache org", zap.String("subdomain", subdomain), zap.Error(err))
	}
	return org, nil
}
