package vaultdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'goose%' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpen_CreatesBothContainers(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, []string{"accounts", "auth"}, tableNames(t, db))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `INSERT INTO accounts (id, account, otp_type) VALUES (1, 'john@ex.com', 'totp')`)
	require.NoError(t, err)

	// Upgrading an already-current store must not touch existing data.
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	assert.Equal(t, []string{"accounts", "auth"}, tableNames(t, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_UpgradesOlderStoreAdditively(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "vault.db")

	// Simulate a version-1 store: accounts container only.
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.ExecContext(ctx, `CREATE TABLE accounts (id INTEGER PRIMARY KEY, service TEXT NOT NULL DEFAULT '', account TEXT NOT NULL DEFAULT '', secret BLOB, nonce_secret BLOB, otp_type TEXT NOT NULL, digits INTEGER NOT NULL DEFAULT 0, algorithm TEXT NOT NULL DEFAULT '', period INTEGER NOT NULL DEFAULT 0, counter INTEGER NOT NULL DEFAULT 0, icon TEXT NOT NULL DEFAULT '', group_id INTEGER NOT NULL DEFAULT 0, order_column INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO accounts (id, account, otp_type) VALUES (42, 'kept', 'totp')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, db))

	assert.Equal(t, []string{"accounts", "auth"}, tableNames(t, db))

	var account string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT account FROM accounts WHERE id=42`).Scan(&account))
	assert.Equal(t, "kept", account)
}
