// Package keyring owns the vault's single symmetric key. The key is
// generated once from a cryptographically secure source, persisted in the
// localstore (hex-encoded, vault-independent) and never transmitted.
//
// Losing the key makes previously stored ciphertext permanently
// unrecoverable; regenerating it without clearing the vault produces
// decryption failures on old records, not corruption.
package keyring

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/otpvault/internal/client/localstore"
	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/cryptox"
)

const keyName = "offline_key"

type Keyring struct {
	store *localstore.Store
}

func New(store *localstore.Store) *Keyring {
	return &Keyring{store: store}
}

// GetKey returns the persisted key, or common.ErrNoKey when none exists.
func (k *Keyring) GetKey() ([]byte, error) {
	v, err := k.store.Get(keyName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNoKey
		}
		return nil, err
	}
	key, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("corrupt key material: %w", err)
	}
	if len(key) != cryptox.KeyLen {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}
	return key, nil
}

// GetOrCreateKey returns the existing key or generates, persists and
// returns a new random one.
func (k *Keyring) GetOrCreateKey() ([]byte, error) {
	key, err := k.GetKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, common.ErrNoKey) {
		return nil, err
	}

	key = common.GenerateRandByteArray(cryptox.KeyLen)
	if err := k.store.Set(keyName, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}
	return key, nil
}

// HasKey reports whether a key is currently persisted.
func (k *Keyring) HasKey() bool {
	return k.store.Has(keyName)
}

// ForgetKey irreversibly discards the key. Decryption of existing vault
// records will fail afterwards. Idempotent.
func (k *Keyring) ForgetKey() error {
	return k.store.Delete(keyName)
}
