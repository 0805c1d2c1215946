// Package otp implements time-based (RFC 6238) and counter-based (RFC 4226)
// one-time-password derivation. The derivation must match the server's
// implementation bit for bit; any divergence here is a correctness bug.
//
// All functions are pure and safe for concurrent use.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

const (
	// Defaults applied when an account record leaves a parameter unset.
	DefaultAlgorithm = "sha1"
	DefaultDigits    = 6
	DefaultPeriod    = 30
)

var (
	ErrMalformedSecret      = errors.New("malformed secret")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

// Params are the generation inputs shared by an account record and the
// server-side generator.
type Params struct {
	Secret    string // base32, case and whitespace tolerant
	Algorithm string // sha1, sha256 or sha512; empty means sha1
	Digits    int    // number of output digits; 0 means 6
	Period    int64  // time step in seconds; 0 means 30
}

// Code is an ephemeral generated password. It is derived on every read and
// never persisted.
type Code struct {
	Password    string `json:"password"`
	GeneratedAt int64  `json:"generated_at"`
	Period      int64  `json:"period"`
	Countdown   int64  `json:"countdown"`
}

// GenerateTOTP derives the time-based code for p at the given wall-clock
// time. Countdown is the number of whole seconds remaining until the next
// period boundary, always in [1, period].
func GenerateTOTP(p Params, now time.Time) (*Code, error) {
	period := p.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	ts := now.Unix()
	counter := uint64(ts / period)

	password, err := GenerateHOTP(p.Secret, p.Algorithm, p.Digits, counter)
	if err != nil {
		return nil, err
	}

	return &Code{
		Password:    password,
		GeneratedAt: ts,
		Period:      period,
		Countdown:   period - (ts % period),
	}, nil
}

// GenerateHOTP derives the counter-based code: HMAC over the 8-byte
// big-endian counter, dynamic truncation, then modulo 10^digits with
// left-zero padding.
func GenerateHOTP(secret, algorithm string, digits int, counter uint64) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	newHash, err := hashForAlgorithm(algorithm)
	if err != nil {
		return "", err
	}

	if digits <= 0 {
		digits = DefaultDigits
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(newHash, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 §5.3.
	offset := sum[len(sum)-1] & 0x0f
	value := uint64(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	// The modulus must not wrap for 10-digit codes (10^10 > 2^32).
	mod := uint64(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, value%mod), nil
}

// decodeSecret decodes a base32 shared secret. Lowercase, spaces, dashes
// and trailing padding are tolerated, matching what provisioning URIs and
// manual entry produce in practice.
func decodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, secret))
	s = strings.TrimRight(s, "=")

	if s == "" {
		return nil, ErrMalformedSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSecret, err)
	}
	return key, nil
}

func hashForAlgorithm(algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "", DefaultAlgorithm:
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}
