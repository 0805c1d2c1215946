// Package common defines shared constants and sentinel errors used across
// client and worker layers of otpvault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Vault / key errors.
	ErrNoKey         = errors.New("no encryption key")
	ErrNoOfflineData = errors.New("no offline data")
	ErrDecryptFailed = errors.New("decrypt failed")

	// Offline authentication errors.
	ErrUnauthorized = errors.New("unauthorized")

	// Remote source errors.
	ErrUnavailable = errors.New("server unavailable")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
