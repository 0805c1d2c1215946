package keyring

import (
	"testing"

	"github.com/dmitrijs2005/otpvault/internal/client/localstore"
	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/dmitrijs2005/otpvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyring(t *testing.T) *Keyring {
	t.Helper()
	store, err := localstore.New(t.TempDir())
	require.NoError(t, err)
	return New(store)
}

func TestGetOrCreateKey_GeneratesOnce(t *testing.T) {
	k := newKeyring(t)
	require.False(t, k.HasKey())

	first, err := k.GetOrCreateKey()
	require.NoError(t, err)
	require.Len(t, first, cryptox.KeyLen)
	require.True(t, k.HasKey())

	second, err := k.GetOrCreateKey()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetKey_NoKeyFailsClosed(t *testing.T) {
	k := newKeyring(t)

	_, err := k.GetKey()
	require.ErrorIs(t, err, common.ErrNoKey)
}

func TestForgetKey_DiscardsAndRegenerates(t *testing.T) {
	k := newKeyring(t)

	first, err := k.GetOrCreateKey()
	require.NoError(t, err)

	require.NoError(t, k.ForgetKey())
	require.False(t, k.HasKey())
	require.NoError(t, k.ForgetKey()) // idempotent

	second, err := k.GetOrCreateKey()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestForgottenKeyBreaksOldCiphertext(t *testing.T) {
	k := newKeyring(t)

	oldKey, err := k.GetOrCreateKey()
	require.NoError(t, err)
	ciphertext, nonce, err := cryptox.Encrypt("secret", oldKey)
	require.NoError(t, err)

	require.NoError(t, k.ForgetKey())
	newKey, err := k.GetOrCreateKey()
	require.NoError(t, err)

	var out string
	require.Error(t, cryptox.Decrypt(ciphertext, nonce, newKey, &out))
}
