package migration

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/umar1110/Donation-Plantform-Server/internal/domain"
)

var migrationFileRe = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Catalog ordered, validated view of one migration tree.
// It never touches the database.
type Catalog struct {
	fsys  fs.FS
	units []domain.MigrationUnit
}

// NewCatalogFromDir scans a directory on disk
func NewCatalogFromDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migration path %s is not a directory", dir)
	}
	return NewCatalog(os.DirFS(dir))
}

// NewCatalog scans the root of fsys.
// Sub-directories and dotfiles are ignored; any other entry must be named <version>_<name>.sql,
// otherwise the whole catalog is rejected with *domain.InvalidMigrationNameError.
// Two files with the same integer version are a domain.ErrConflict.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration tree: %w", err)
	}

	units := make([]domain.MigrationUnit, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, &domain.InvalidMigrationNameError{Name: name, Reason: "expected <version>_<name>.sql"}
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &domain.InvalidMigrationNameError{Name: name, Reason: "version is not a valid integer"}
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by both %s and %s: %w", version, other, name, domain.ErrConflict)
		}
		seen[version] = name

		units = append(units, domain.MigrationUnit{
			Version: version,
			Name:    m[2],
			Path:    name,
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Version < units[j].Version })
	return &Catalog{fsys: fsys, units: units}, nil
}

// All returns the units in ascending version order
func (c *Catalog) All() []domain.MigrationUnit {
	out := make([]domain.MigrationUnit, len(c.units))
	copy(out, c.units)
	return out
}

// Latest is the highest version in the tree, 0 when empty
func (c *Catalog) Latest() int {
	if len(c.units) == 0 {
		return 0
	}
	return c.units[len(c.units)-1].Version
}

// Load reads the statements of one unit
func (c *Catalog) Load(unit domain.MigrationUnit) (string, error) {
	raw, err := fs.ReadFile(c.fsys, unit.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", unit.Path, err)
	}
	return string(raw), nil
}
