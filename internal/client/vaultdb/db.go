// Package vaultdb opens the local vault database and brings its schema up
// to the current version.
package vaultdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/otpvault/internal/client/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Migrate applies any missing schema migrations. Goose version tracking
// plus IF NOT EXISTS DDL makes this idempotent: a store that is already
// current is left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the sqlite vault at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
