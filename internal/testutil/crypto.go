// Package testutil provides shared helpers for tests: deterministic
// local KMS keepers and sqlmock-backed databases.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/service"
)

// LocalKeyURIResolver maps any key id onto a deterministic base64key:// URI
// understood by the gocloud.dev localsecrets driver. Distinct key ids yield
// distinct key material, so decrypting under the wrong tenant's keys fails
// the way a real KMS scope mismatch would.
func LocalKeyURIResolver() service.KeyURIResolver {
	return func(keyID string) string {
		material := sha256.Sum256([]byte("fieldcrypt-test-" + keyID))
		return "base64key://" + base64.URLEncoding.EncodeToString(material[:])
	}
}

// DiscardLogger returns a logger that drops all records.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewRegistry builds a registry from the given configuration, failing the
// test on parse errors.
func NewRegistry(t *testing.T, contextKeys, keyIDs, beaconKeys []string) domain.Registry {
	t.Helper()

	accountIDs := make([]string, len(contextKeys))
	partitions := make([]string, len(contextKeys))
	for i := range contextKeys {
		accountIDs[i] = "test-account"
		partitions[i] = "aws"
	}

	registry, err := domain.ParseRegistry(contextKeys, keyIDs, accountIDs, partitions, nil, beaconKeys)
	require.NoError(t, err)
	return registry
}

// NewRouter builds a router over local keepers, failing the test on error
// and closing the router at test cleanup.
func NewRouter(t *testing.T, registry domain.Registry) *service.Router {
	t.Helper()

	router, err := service.NewRouter(
		context.Background(),
		registry,
		service.NewKMSKeeperOpener(),
		LocalKeyURIResolver(),
		DiscardLogger(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })
	return router
}

// BeaconSecret returns a base64-encoded 32-byte beacon secret derived from
// the seed, suitable for registry configuration in tests.
func BeaconSecret(seed string) string {
	material := sha256.Sum256([]byte("fieldcrypt-beacon-secret-" + seed))
	return base64.StdEncoding.EncodeToString(material[:])
}
