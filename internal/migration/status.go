package migration

import (
	"context"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

// NamespaceStatus drift summary for one org namespace
type NamespaceStatus struct {
	OrgID          string `json:"org_id"`
	OrgName        string `json:"org_name"`
	Namespace      string `json:"namespace"`
	CurrentVersion int    `json:"current_version"`
	LatestVersion  int    `json:"latest_version"`
	Pending        int    `json:"pending"`
	// Unapplied lists catalog versions missing from the ledger, including gaps below CurrentVersion
	Unapplied []int `json:"unapplied"`
}

// Behind reports whether the namespace needs attention
func (s NamespaceStatus) Behind() bool {
	return s.Pending > 0 || len(s.Unapplied) > 0
}

// StatusReport catalog listing plus per-org status
type StatusReport struct {
	Catalog []domain.MigrationUnit `json:"catalog"`
	Orgs    []NamespaceStatus      `json:"orgs"`
}

// StatusReport computes current/latest/pending for every non-deleted org.
// Pending is latest minus current, floored at zero.
func (r *Runner) StatusReport(ctx context.Context) (*StatusReport, error) {
	orgs, err := r.orgs.ListActiveOrgs(ctx, r.db)
	if err != nil {
		return nil, err
	}

	units := r.tenant.All()
	latest := r.tenant.Latest()
	report := &StatusReport{
		Catalog: units,
		Orgs:    make([]NamespaceStatus, 0, len(orgs)),
	}

	for _, org := range orgs {
		applied, err := r.ledger.AppliedVersions(ctx, r.db, org.SchemaName)
		if err != nil {
			return nil, err
		}
		status := namespaceStatus(units, latest, applied)
		status.OrgID = org.ID
		status.OrgName = org.Name
		status.Namespace = org.SchemaName
		if status.Behind() {
			r.logger.Warn("Namespace behind catalog",
				zap.String("namespace", org.SchemaName),
				zap.Int("current", status.CurrentVersion),
				zap.Int("latest", status.LatestVersion),
			)
		}
		report.Orgs = append(report.Orgs, status)
	}
	return report, nil
}

func namespaceStatus(units []domain.MigrationUnit, latest int, applied []int) NamespaceStatus {
	current := 0
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
		if v > current {
			current = v
		}
	}

	unapplied := []int{}
	for _, u := range units {
		if _, ok := done[u.Version]; !ok {
			unapplied = append(unapplied, u.Version)
		}
	}

	pending := latest - current
	if pending < 0 {
		pending = 0
	}
	return NamespaceStatus{
		CurrentVersion: current,
		LatestVersion:  latest,
		Pending:        pending,
		Unapplied:      unapplied,
	}
}
