package accounts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/otpvault/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, row *Row) error {
	query := `INSERT INTO accounts
		(id, service, account, secret, nonce_secret, otp_type, digits, algorithm, period, counter, icon, group_id, order_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Service, row.Account, row.Secret, row.NonceSecret, row.OtpType,
		row.Digits, row.Algorithm, row.Period, row.Counter, row.Icon, row.GroupID, row.OrderColumn)
	if err != nil {
		return fmt.Errorf("failed to insert account %d: %w", row.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]Row, error) {
	query := `SELECT id, service, account, secret, nonce_secret, otp_type, digits, algorithm, period, counter, icon, group_id, order_column
		FROM accounts ORDER BY order_column, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select accounts: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var item Row
		if err := rows.Scan(&item.ID, &item.Service, &item.Account, &item.Secret, &item.NonceSecret,
			&item.OtpType, &item.Digits, &item.Algorithm, &item.Period, &item.Counter,
			&item.Icon, &item.GroupID, &item.OrderColumn); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
