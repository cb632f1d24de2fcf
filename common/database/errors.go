package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"
)

var (
	// ErrConflict a unique constraint rejected the write
	ErrConflict = errors.New("conflict")

	// ErrTransient the unit of work failed for a reason that a retry may not hit again:
	// lost or refused connection, lock or statement timeout, serialization failure, deadlock.
	ErrTransient = errors.New("transient storage error")
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014" // statement_timeout
	pgAdminShutdown        = "57P01"
	pgCannotConnectNow     = "57P03"
	pgClassConnection      = "08"
)

// ClassifyError wraps driver and network errors with ErrConflict or ErrTransient,
// keeping the original in the chain. Anything else is returned unchanged.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, ErrTransient) || errors.Is(err, ErrConflict) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgQueryCanceled,
			pgAdminShutdown, pgCannotConnectNow:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
		if pqErr.Code.Class() == pgClassConnection {
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return err
	}

	if isConnectionError(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
