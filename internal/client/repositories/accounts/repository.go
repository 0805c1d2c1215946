package accounts

import "context"

// Row is the persisted form of an account record: every column is stored
// in clear except the shared secret, which is AEAD ciphertext plus nonce.
type Row struct {
	ID          int64
	Service     string
	Account     string
	Secret      []byte
	NonceSecret []byte
	OtpType     string
	Digits      int
	Algorithm   string
	Period      int64
	Counter     int64
	Icon        string
	GroupID     int64
	OrderColumn int64
}

// Repository describes the vault's accounts container. Implementations are
// bound to a dbx.DBTX, so the same code runs against the database or
// inside a transaction.
type Repository interface {
	// Insert writes one row. Row identifiers are assigned by the remote
	// source and must be unique within the container.
	Insert(ctx context.Context, row *Row) error

	// GetAll returns every row ordered by the explicit ordering rank.
	GetAll(ctx context.Context) ([]Row, error)

	// Clear removes all rows.
	Clear(ctx context.Context) error

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}
