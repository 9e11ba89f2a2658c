// Package service implements the per-tenant encryption services: the
// envelope-encryption oracle backed by gocloud.dev/secrets, the tenant
// encryptor, and the multi-tenant router.
package service

import (
	"context"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
)

// Keeper is the envelope-encryption oracle for a single key id.
// *secrets.Keeper from gocloud.dev satisfies this interface.
type Keeper interface {
	// Encrypt encrypts plaintext under the keeper's key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext produced by Encrypt.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources held by the keeper.
	Close() error
}

// KeeperOpener opens the envelope-encryption oracle for one key URI.
type KeeperOpener interface {
	// OpenKeeper opens a keeper for the given key URI.
	// Returns an error if the URI is invalid or the provider is unreachable.
	OpenKeeper(ctx context.Context, keyURI string) (Keeper, error)
}

// KeyURIResolver translates a registry key id into the provider URI the
// keeper opener understands (e.g. "awskms://<key-id>" or
// "base64key://<material>" for local development).
type KeyURIResolver func(keyID string) string

// Encryptor is the per-tenant encrypt/decrypt/beacon contract.
//
// Encrypt may return a nil envelope with a nil error to signal that the
// tenant's values must not be encrypted (plaintext pass-through); callers
// then store the value unencrypted.
type Encryptor interface {
	// Encrypt encrypts an encoded plaintext under the tenant's primary key.
	Encrypt(ctx context.Context, plaintext string) (*domain.Envelope, error)

	// Decrypt recovers the encoded plaintext from an envelope. Fails with
	// domain.ErrDecryptKeyUnavailable when the envelope's wrapping key is
	// not resolvable for this tenant.
	Decrypt(ctx context.Context, envelope *domain.Envelope) (string, error)

	// Beacon computes the deterministic search token for an encoded
	// plaintext. Fails with domain.ErrBeaconKeyNotSet when the tenant has
	// no beacon secret configured.
	Beacon(plaintext string) (string, error)
}
