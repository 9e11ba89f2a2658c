package domain

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

func TestParseRegistry(t *testing.T) {
	t.Run("single tenant with single key", func(t *testing.T) {
		registry, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{"k1"},
			[]string{"acct1"},
			[]string{"aws"},
			[]string{"true"},
			nil,
		)
		require.NoError(t, err)
		require.Len(t, registry, 1)

		entry := registry["tenant1"]
		assert.Equal(t, "tenant1", entry.ContextKey)
		assert.Equal(t, []string{"k1"}, entry.KeyIDs)
		assert.Equal(t, "k1", entry.PrimaryKeyID())
		assert.Equal(t, []string{"acct1"}, entry.AccountIDs)
		assert.Equal(t, "aws", entry.Partition)
		assert.True(t, entry.Restricted)
		assert.False(t, entry.HasBeaconKey())
	})

	t.Run("key ids split on semicolon with first as primary", func(t *testing.T) {
		registry, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{"new-key;old-key"},
			[]string{"acct1;acct2"},
			[]string{"aws"},
			nil,
			nil,
		)
		require.NoError(t, err)

		entry := registry["tenant1"]
		assert.Equal(t, []string{"new-key", "old-key"}, entry.KeyIDs)
		assert.Equal(t, "new-key", entry.PrimaryKeyID())
		assert.Equal(t, []string{"acct1", "acct2"}, entry.AccountIDs)
	})

	t.Run("missing restricted flags default to false", func(t *testing.T) {
		registry, err := ParseRegistry(
			[]string{"tenant1", "tenant2"},
			[]string{"k1", "k2"},
			[]string{"a1", "a2"},
			[]string{"aws", "aws"},
			[]string{"true"},
			nil,
		)
		require.NoError(t, err)
		assert.True(t, registry["tenant1"].Restricted)
		assert.False(t, registry["tenant2"].Restricted)
	})

	t.Run("beacon keys are base64 decoded", func(t *testing.T) {
		secret := []byte("0123456789abcdef0123456789abcdef")
		registry, err := ParseRegistry(
			[]string{"tenant1", "tenant2"},
			[]string{"k1", "k2"},
			[]string{"a1", "a2"},
			[]string{"aws", "aws"},
			nil,
			[]string{base64.StdEncoding.EncodeToString(secret), ""},
		)
		require.NoError(t, err)
		assert.Equal(t, secret, registry["tenant1"].BeaconKey)
		assert.True(t, registry["tenant1"].HasBeaconKey())
		assert.False(t, registry["tenant2"].HasBeaconKey())
	})

	t.Run("invalid beacon key base64 fails", func(t *testing.T) {
		_, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{"k1"},
			[]string{"a1"},
			[]string{"aws"},
			nil,
			[]string{"%%%not-base64%%%"},
		)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfig))
	})

	t.Run("empty registry yields zero entries", func(t *testing.T) {
		registry, err := ParseRegistry(nil, nil, nil, nil, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, registry)
		assert.False(t, registry.Contains("default"))
	})

	t.Run("empty key ids fail", func(t *testing.T) {
		_, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{""},
			[]string{"a1"},
			[]string{"aws"},
			nil,
			nil,
		)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, ErrKeyIDsEmpty))
	})

	t.Run("key id longer than the envelope header carries fails", func(t *testing.T) {
		longKeyID := strings.Repeat("k", 256)
		_, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{"primary;" + longKeyID},
			[]string{"a1"},
			[]string{"aws"},
			nil,
			nil,
		)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, ErrKeyIDTooLong))

		// 255 bytes is the longest representable key id.
		registry, err := ParseRegistry(
			[]string{"tenant1"},
			[]string{strings.Repeat("k", 255)},
			[]string{"a1"},
			[]string{"aws"},
			nil,
			nil,
		)
		require.NoError(t, err)
		assert.Len(t, registry["tenant1"].PrimaryKeyID(), 255)
	})

	t.Run("duplicate context key fails", func(t *testing.T) {
		_, err := ParseRegistry(
			[]string{"tenant1", "tenant1"},
			[]string{"k1", "k2"},
			[]string{"a1", "a2"},
			[]string{"aws", "aws"},
			nil,
			nil,
		)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, ErrDuplicateContextKey))
	})

	t.Run("misaligned arrays fail", func(t *testing.T) {
		_, err := ParseRegistry(
			[]string{"tenant1", "tenant2"},
			[]string{"k1"},
			[]string{"a1", "a2"},
			[]string{"aws", "aws"},
			nil,
			nil,
		)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, ErrRegistryMisaligned))
	})
}

func TestRegistryContextKeys(t *testing.T) {
	registry, err := ParseRegistry(
		[]string{"tenant1", "tenant2"},
		[]string{"k1", "k2"},
		[]string{"a1", "a2"},
		[]string{"aws", "aws"},
		nil,
		nil,
	)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tenant1", "tenant2"}, registry.ContextKeys())
}
