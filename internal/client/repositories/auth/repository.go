package auth

import (
	"context"

	"github.com/dmitrijs2005/otpvault/internal/client/models"
)

// Repository describes the vault's auth container: a single record keyed
// by the fixed sentinel identifier.
type Repository interface {
	// Get returns the current record, or common.ErrNotFound.
	Get(ctx context.Context) (*models.AuthRecord, error)

	// Upsert inserts or overwrites the profile and password-hash blobs.
	// A previously stored possession-credential blob is left untouched.
	Upsert(ctx context.Context, rec *models.AuthRecord) error

	// SetCredential merges a possession-credential blob into the existing
	// record. Fails with common.ErrNotFound when no record exists.
	SetCredential(ctx context.Context, credential, nonce []byte) error

	// Clear removes the record. Idempotent.
	Clear(ctx context.Context) error
}
