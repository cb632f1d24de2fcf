package domain

import "time"

// SharedNamespace ledger namespace used for the shared (global) migration tree
const SharedNamespace = "public"

// MigrationUnit one versioned schema change discovered in a migration tree
type MigrationUnit struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"path"` // locator inside the catalog's file system
}

// MigrationLedgerEntry one applied (namespace, version) pair (public.schema_migrations)
type MigrationLedgerEntry struct {
	ID        string    `db:"id"`
	Namespace string    `db:"namespace"`
	Version   int       `db:"version"`
	Name      string    `db:"name"`
	AppliedAt time.Time `db:"applied_at"`
}
