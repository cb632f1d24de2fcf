package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/umar1110/Donation-Plantform-Server/common/config"

	_ "github.com/lib/pq"
)

// NewPostgresDB opens a lib/pq pool and verifies connectivity
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxIdleTime(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close closes the pool if it is open
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// WithTx runs fn inside a transaction bound to ctx.
// fn's error (or a panic) rolls the transaction back; otherwise it commits.
// Begin and commit failures are classified like statement errors.
// Cancelling ctx before commit makes database/sql roll back as well.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", ClassifyError(err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ClassifyError(err))
	}
	return nil
}
