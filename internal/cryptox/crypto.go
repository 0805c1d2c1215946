// Package cryptox holds the symmetric encryption and password-hashing
// primitives shared by the vault and the offline authenticator.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/otpvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeyLen is the length of the vault's symmetric key in bytes (AES-256).
const KeyLen = 32

const saltLen = 16

// Encrypt serializes v to JSON and encrypts it with AES-GCM under key.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A fresh
// random 12-byte nonce is generated per call; ciphertext and nonce are
// returned separately, matching how they are stored in the vault.
func Encrypt(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens an AES-GCM ciphertext produced by Encrypt and unmarshals
// the recovered JSON into v. A wrong key or corrupted ciphertext fails
// authentication and returns an error without touching v.
func Decrypt(ciphertext, nonce, key []byte, v any) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDecryptFailed, err)
	}
	return json.Unmarshal(plaintext, v)
}

// PasswordDigest is the one-way representation of a user password stored
// (encrypted) in the auth record. The blob is opaque to callers.
type PasswordDigest struct {
	Salt   []byte `json:"salt"`
	Digest []byte `json:"digest"`
}

// HashPassword derives a 32-byte argon2id digest from password and salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewPasswordDigest hashes password under a fresh random salt.
func NewPasswordDigest(password []byte) *PasswordDigest {
	salt := common.GenerateRandByteArray(saltLen)
	return &PasswordDigest{Salt: salt, Digest: HashPassword(password, salt)}
}

// Verify re-derives the digest for candidate and compares it in constant
// time. Returns false for a nil or malformed digest.
func (d *PasswordDigest) Verify(candidate []byte) bool {
	if d == nil || len(d.Salt) == 0 || len(d.Digest) == 0 {
		return false
	}
	got := HashPassword(candidate, d.Salt)
	return subtle.ConstantTimeCompare(d.Digest, got) == 1
}

// MakeVerifier returns a sha256 fingerprint of key material. Used where a
// stable, non-reversible identifier for a key is needed.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}
