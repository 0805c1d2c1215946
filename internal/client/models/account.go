// Package models defines client-side data models mirrored from the remote
// account source and persisted (encrypted) in the local vault.
package models

import "github.com/dmitrijs2005/otpvault/internal/otp"

// OtpType classifies how an account's codes are derived. The set is closed
// for generation purposes; unknown variants (e.g. "steam") are carried as
// opaque strings and simply get no locally generated code.
type OtpType string

const (
	OtpTypeTOTP OtpType = "totp"
	OtpTypeHOTP OtpType = "hotp"
)

// Account is a single two-factor account record.
//
// Secret holds the shared secret in clear form only while in memory; at
// rest it is AES-GCM encrypted by the vault and never logged. OTP is
// ephemeral, recomputed on every read, and excluded from persistence and
// from sync staleness comparison.
type Account struct {
	ID          int64     `json:"id"`
	Service     string    `json:"service,omitempty"`
	Account     string    `json:"account"`
	Secret      string    `json:"secret,omitempty"`
	OtpType     OtpType   `json:"otp_type"`
	Digits      int       `json:"digits"`
	Algorithm   string    `json:"algorithm"`
	Period      int64     `json:"period,omitempty"`
	Counter     int64     `json:"counter,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	GroupID     int64     `json:"group_id,omitempty"`
	OrderColumn int64     `json:"order_column,omitempty"`
	OTP         *otp.Code `json:"otp,omitempty"`
}

// OtpParams maps the record's stored parameters onto generator inputs.
func (a *Account) OtpParams() otp.Params {
	return otp.Params{
		Secret:    a.Secret,
		Algorithm: a.Algorithm,
		Digits:    a.Digits,
		Period:    a.Period,
	}
}

// SameFields reports whether every durable field of a equals the
// corresponding field of b. The ephemeral OTP field is deliberately
// excluded; it differs on every read and says nothing about drift.
func (a *Account) SameFields(b *Account) bool {
	return a.ID == b.ID &&
		a.Service == b.Service &&
		a.Account == b.Account &&
		a.Secret == b.Secret &&
		a.OtpType == b.OtpType &&
		a.Digits == b.Digits &&
		a.Algorithm == b.Algorithm &&
		a.Period == b.Period &&
		a.Counter == b.Counter &&
		a.Icon == b.Icon &&
		a.GroupID == b.GroupID &&
		a.OrderColumn == b.OrderColumn
}
