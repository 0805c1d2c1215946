package localstore

import (
	"testing"

	"github.com/dmitrijs2005/otpvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set("last_sync_at", "2026-09-01T10:00:00Z"))

	v, err := s.Get("last_sync_at")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01T10:00:00Z", v)
}

func TestGet_MissingKeyReportsNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Get("absent")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.False(t, s.Has("absent"))
}

func TestGet_TrimsTrailingWhitespace(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set("k", "value\n"))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestSet_Overwrites(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set("k", "old"))
	require.NoError(t, s.Set("k", "new"))

	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))
	require.NoError(t, s.Delete("k"))

	_, err := s.Get("k")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestInvalidKeyRejected(t *testing.T) {
	s := newStore(t)

	require.Error(t, s.Set("../escape", "v"))
	_, err := s.Get("bad key")
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrNotFound)
}
