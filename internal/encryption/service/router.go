package service

import (
	"context"
	"log/slog"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// DefaultContextKey is the distinguished registry entry used when a context
// key has no exact match in the router.
const DefaultContextKey = "default"

// Router resolves the tenant encryptor for a context key, falling back to
// the default entry when one is configured. It is built once from the key
// registry and read-only afterwards, so concurrent lookups need no locking.
type Router struct {
	encryptors map[string]Encryptor
}

// NewRouter builds a router with one tenant encryptor per registry entry.
//
// An empty registry yields a router with zero encryptors and no fabricated
// default entry: a misconfigured empty registry must look like "encryption
// not configured", never like "plaintext everywhere is fine".
func NewRouter(
	ctx context.Context,
	registry domain.Registry,
	opener KeeperOpener,
	resolver KeyURIResolver,
	logger *slog.Logger,
) (*Router, error) {
	encryptors := make(map[string]Encryptor, len(registry))
	for contextKey, entry := range registry {
		encryptor, err := NewTenantEncryptor(ctx, entry, opener, resolver)
		if err != nil {
			return nil, apperrors.Wrapf(err, "build encryptor for context key %q", contextKey)
		}
		encryptors[contextKey] = encryptor

		logger.Info("encryption enabled",
			slog.String("context_key", contextKey),
			slog.Int("key_count", len(entry.KeyIDs)),
			slog.Bool("beacon", entry.HasBeaconKey()),
		)
	}

	return &Router{encryptors: encryptors}, nil
}

// Lookup returns the encryptor for the context key: exact match first, then
// the default entry, then domain.ErrEncryptorNotFound.
func (r *Router) Lookup(contextKey string) (Encryptor, error) {
	if encryptor, ok := r.encryptors[contextKey]; ok {
		return encryptor, nil
	}
	if encryptor, ok := r.encryptors[DefaultContextKey]; ok {
		return encryptor, nil
	}
	return nil, apperrors.Wrapf(domain.ErrEncryptorNotFound, "context key %q", contextKey)
}

// Contains reports whether the context key resolves to an encryptor,
// either exactly or through the default entry.
func (r *Router) Contains(contextKey string) bool {
	if _, ok := r.encryptors[contextKey]; ok {
		return true
	}
	_, ok := r.encryptors[DefaultContextKey]
	return ok
}

// HasEntry reports whether the context key has its own registry entry,
// ignoring the default fallback. Administrative operations such as
// reencryption validate with HasEntry: a client served only by the default
// entry has no key configuration of its own to rotate under.
func (r *Router) HasEntry(contextKey string) bool {
	_, ok := r.encryptors[contextKey]
	return ok
}

// Len returns the number of tenant encryptors in the router.
func (r *Router) Len() int {
	return len(r.encryptors)
}

// Close releases every tenant encryptor's keepers.
func (r *Router) Close() error {
	var firstErr error
	for _, encryptor := range r.encryptors {
		if closer, ok := encryptor.(*TenantEncryptor); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
