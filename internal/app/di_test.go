package app

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/fieldcrypt/internal/config"
	"github.com/allisson/fieldcrypt/internal/metrics"
)

// localKeyID returns a key id that doubles as localsecrets key material, so
// the container can open real keepers without a cloud KMS.
func localKeyID(seed string) string {
	material := sha256.Sum256([]byte("fieldcrypt-di-test-" + seed))
	return base64.URLEncoding.EncodeToString(material[:])
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.MetricsEnabled = false
	cfg.KMSKeyURITemplate = "base64key://%s"
	cfg.EncryptionContextKeys = "tenant1,tenant2"
	cfg.EncryptionKeyIDs = localKeyID("t1") + "," + localKeyID("t2")
	cfg.EncryptionAccountIDs = "acct-1,acct-2"
	cfg.EncryptionPartitions = "aws,aws"
	return cfg
}

func TestContainer_Config(t *testing.T) {
	cfg := testConfig()
	container := NewContainer(cfg)

	assert.Equal(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	container := NewContainer(testConfig())

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger(), "logger is initialized once")
}

func TestContainer_Registry(t *testing.T) {
	container := NewContainer(testConfig())

	registry, err := container.Registry()
	require.NoError(t, err)
	assert.Len(t, registry, 2)
	assert.True(t, registry.Contains("tenant1"))
	assert.True(t, registry.Contains("tenant2"))
}

func TestContainer_Registry_Invalid(t *testing.T) {
	cfg := testConfig()
	cfg.EncryptionKeyIDs = localKeyID("t1") // misaligned with two context keys

	container := NewContainer(cfg)
	_, err := container.Registry()
	require.Error(t, err)

	// The error is cached for later accessors.
	_, err = container.Router()
	require.Error(t, err)
}

func TestContainer_Router(t *testing.T) {
	container := NewContainer(testConfig())
	t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

	router, err := container.Router()
	require.NoError(t, err)
	assert.Equal(t, 2, router.Len())

	encryptor, err := router.Lookup("tenant1")
	require.NoError(t, err)

	envelope, err := encryptor.Encrypt(context.Background(), "plaintext")
	require.NoError(t, err)
	require.NotNil(t, envelope)

	decrypted, err := encryptor.Decrypt(context.Background(), envelope)
	require.NoError(t, err)
	assert.Equal(t, "plaintext", decrypted)
}

func TestContainer_CryptoMetrics(t *testing.T) {
	t.Run("disabled metrics use the no-op recorder", func(t *testing.T) {
		container := NewContainer(testConfig())

		cm, err := container.CryptoMetrics()
		require.NoError(t, err)
		assert.IsType(t, &metrics.NoOpCryptoMetrics{}, cm)

		provider, err := container.MetricsProvider()
		require.NoError(t, err)
		assert.Nil(t, provider)
	})

	t.Run("enabled metrics use the otel recorder", func(t *testing.T) {
		cfg := testConfig()
		cfg.MetricsEnabled = true

		container := NewContainer(cfg)
		t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

		cm, err := container.CryptoMetrics()
		require.NoError(t, err)
		assert.NotNil(t, cm)
		assert.NotEqual(t, &metrics.NoOpCryptoMetrics{}, cm)
	})
}

func TestContainer_MetricsServer(t *testing.T) {
	t.Run("disabled metrics yield no server", func(t *testing.T) {
		container := NewContainer(testConfig())

		server, err := container.MetricsServer()
		require.NoError(t, err)
		assert.Nil(t, server)
	})

	t.Run("enabled metrics yield a scrape server", func(t *testing.T) {
		cfg := testConfig()
		cfg.MetricsEnabled = true

		container := NewContainer(cfg)
		t.Cleanup(func() { _ = container.Shutdown(context.Background()) })

		server, err := container.MetricsServer()
		require.NoError(t, err)
		require.NotNil(t, server)
		assert.NotNil(t, server.GetHandler())
	})
}

func TestContainer_Shutdown(t *testing.T) {
	t.Run("nothing initialized", func(t *testing.T) {
		container := NewContainer(testConfig())
		assert.NoError(t, container.Shutdown(context.Background()))
	})

	t.Run("closes initialized router", func(t *testing.T) {
		container := NewContainer(testConfig())
		_, err := container.Router()
		require.NoError(t, err)

		assert.NoError(t, container.Shutdown(context.Background()))
	})
}
