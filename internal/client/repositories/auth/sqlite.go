package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpvault/internal/client/models"
	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.AuthRecord, error) {
	query := `SELECT id, profile, nonce_profile, password_hash, nonce_password_hash, credential, nonce_credential
		FROM auth WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, common.CurrentUserID)

	rec := &models.AuthRecord{}
	err := row.Scan(&rec.ID, &rec.Profile, &rec.NonceProfile,
		&rec.PasswordHash, &rec.NoncePasswordHash, &rec.Credential, &rec.NonceCredential)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.AuthRecord) error {
	// The credential columns are intentionally absent from the update set:
	// an attached possession credential survives profile overwrites.
	query := `INSERT INTO auth (id, profile, nonce_profile, password_hash, nonce_password_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			profile = excluded.profile,
			nonce_profile = excluded.nonce_profile,
			password_hash = excluded.password_hash,
			nonce_password_hash = excluded.nonce_password_hash`
	_, err := r.db.ExecContext(ctx, query, common.CurrentUserID,
		rec.Profile, rec.NonceProfile, rec.PasswordHash, rec.NoncePasswordHash)
	if err != nil {
		return fmt.Errorf("failed to upsert auth record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetCredential(ctx context.Context, credential, nonce []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth SET credential = ?, nonce_credential = ? WHERE id = ?`,
		credential, nonce, common.CurrentUserID)
	if err != nil {
		return fmt.Errorf("failed to set credential: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth`); err != nil {
		return fmt.Errorf("failed to clear auth: %w", err)
	}
	return nil
}
