package common

import (
	"crypto/rand"
	"io"
)

// GenerateRandByteArray returns size cryptographically random bytes.
// A failure of the system randomness source is unrecoverable, so it panics
// rather than returning an error every caller would have to re-handle.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes the buffer in place. Safe on nil slices.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
