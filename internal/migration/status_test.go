package migration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

func TestNamespaceStatus(t *testing.T) {
	units := []domain.MigrationUnit{{Version: 1}, {Version: 2}, {Version: 3}, {Version: 10}}

	tests := []struct {
		name      string
		applied   []int
		current   int
		pending   int
		unapplied []int
	}{
		{"fresh", nil, 0, 10, []int{1, 2, 3, 10}},
		{"partial", []int{1, 2}, 2, 8, []int{3, 10}},
		{"gap below current", []int{1, 3, 10}, 10, 0, []int{2}},
		{"current", []int{1, 2, 3, 10}, 10, 0, []int{}},
		{"ahead of catalog", []int{1, 2, 3, 10, 11}, 11, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := namespaceStatus(units, 10, tt.applied)
			assert.Equal(t, tt.current, s.CurrentVersion)
			assert.Equal(t, 10, s.LatestVersion)
			assert.Equal(t, tt.pending, s.Pending)
			assert.Equal(t, tt.unapplied, s.Unapplied)
		})
	}
}

func TestStatusReport(t *testing.T) {
	orgs := []*domain.Organization{
		{ID: "org-1", Name: "Alpha", SchemaName: "org_a"},
		{ID: "org-2", Name: "Beta", SchemaName: "org_b"},
	}
	db, mock, runner := setupRunner(t, orgs)
	defer db.Close()

	expectApplied(mock, "org_a", 1, 2, 3)
	expectApplied(mock, "org_b", 1)

	report, err := runner.StatusReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Catalog, 3)
	require.Len(t, report.Orgs, 2)

	assert.Equal(t, "Alpha", report.Orgs[0].OrgName)
	assert.Equal(t, 3, report.Orgs[0].CurrentVersion)
	assert.False(t, report.Orgs[0].Behind())

	assert.Equal(t, 1, report.Orgs[1].CurrentVersion)
	assert.Equal(t, 3, report.Orgs[1].LatestVersion)
	assert.Equal(t, 2, report.Orgs[1].Pending)
	assert.True(t, report.Orgs[1].Behind())
	require.NoError(t, mock.ExpectationsWereMet())
}
