package domain

import (
	"errors"
	"fmt"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
)

var (
	// ErrNotFound an org, donor or other referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict a uniqueness rule was violated (duplicate org-donor link, duplicate migration version).
	ErrConflict = database.ErrConflict

	// ErrInvalidState the operation does not apply to the entity in its current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrTransientStorage connection loss, lock or statement timeout, serialization failure.
	// The whole unit of work may be retried by the caller.
	ErrTransientStorage = database.ErrTransient
)

// ValidationError malformed or inconsistent input, rejected before any transaction opens
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError is a shorthand constructor
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidMigrationNameError a file in a migration tree does not follow <version>_<name>.sql
type InvalidMigrationNameError struct {
	Name   string
	Reason string
}

func (e *InvalidMigrationNameError) Error() string {
	return fmt.Sprintf("invalid migration name %q: %s", e.Name, e.Reason)
}

// MigrationDriftError a migration failed to apply to a namespace; the namespace stays at its previous version
type MigrationDriftError struct {
	Namespace string
	Version   int
	Name      string
	Err       error
}

func (e *MigrationDriftError) Error() string {
	return fmt.Sprintf("migration %d_%s failed on %s: %v", e.Version, e.Name, e.Namespace, e.Err)
}

func (e *MigrationDriftError) Unwrap() error { return e.Err }
