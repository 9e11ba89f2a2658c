// Package domain defines the core models for per-tenant field encryption:
// the key registry mapping context keys to key material, and the ciphertext
// envelope carried in encrypted storage slots.
package domain

import (
	"encoding/base64"
	"strings"

	"github.com/allisson/fieldcrypt/internal/errors"
)

// keyIDDelimiter separates multiple key ids inside a single registry field.
// A semicolon avoids collision with the comma used by the outer
// list-of-tenants parsing.
const keyIDDelimiter = ";"

// maxKeyIDLength is the longest key id the envelope header can carry: the
// wire format stores each key id length in a single byte.
const maxKeyIDLength = 255

// RegistryEntry holds one tenant's encryption key configuration.
// Entries are built once from static configuration and never mutated;
// key rotation is modeled as a new entry, not a change to an existing one.
type RegistryEntry struct {
	ContextKey string   // Tenant/client identifier scoping this entry
	KeyIDs     []string // Ordered key ids; index 0 is the primary for new encryption
	AccountIDs []string // Account scope for key resolution
	Partition  string   // Cloud partition the keys live in
	Restricted bool     // Whether a restricted key policy applies
	BeaconKey  []byte   // Optional secret for searchable beacons
}

// PrimaryKeyID returns the key id used to encrypt new data.
func (e RegistryEntry) PrimaryKeyID() string {
	return e.KeyIDs[0]
}

// HasBeaconKey reports whether a beacon secret is configured for this tenant.
func (e RegistryEntry) HasBeaconKey() bool {
	return len(e.BeaconKey) > 0
}

// Registry maps context keys to their immutable key configuration.
type Registry map[string]RegistryEntry

// ContextKeys returns the configured context keys in unspecified order.
func (r Registry) ContextKeys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	return keys
}

// Contains reports whether the registry has an entry for the context key.
func (r Registry) Contains(contextKey string) bool {
	_, ok := r[contextKey]
	return ok
}

// ParseRegistry builds a Registry from parallel configuration arrays.
//
// Each position across contextKeys, keyIDs, accountIDs and partitions
// describes one tenant. The keyIDs and accountIDs fields may carry several
// values separated by ";" (the first key id is the primary; the rest are
// decryption candidates kept alive during rotation windows). When fewer
// restricted flags than context keys are supplied, missing flags default to
// false. beaconKeys entries are base64-encoded secrets; an empty or missing
// entry means the tenant has no beacon support.
func ParseRegistry(
	contextKeys []string,
	keyIDs []string,
	accountIDs []string,
	partitions []string,
	restrictedFlags []string,
	beaconKeys []string,
) (Registry, error) {
	if len(keyIDs) != len(contextKeys) ||
		len(accountIDs) != len(contextKeys) ||
		len(partitions) != len(contextKeys) {
		return nil, ErrRegistryMisaligned
	}

	registry := make(Registry, len(contextKeys))
	for ix, contextKey := range contextKeys {
		if registry.Contains(contextKey) {
			return nil, errors.Wrapf(ErrDuplicateContextKey, "context key %q", contextKey)
		}

		entryKeyIDs := splitSecondary(keyIDs[ix])
		if len(entryKeyIDs) == 0 {
			return nil, errors.Wrapf(ErrKeyIDsEmpty, "context key %q", contextKey)
		}
		for _, keyID := range entryKeyIDs {
			if len(keyID) > maxKeyIDLength {
				return nil, errors.Wrapf(ErrKeyIDTooLong,
					"context key %q key id of %d bytes", contextKey, len(keyID))
			}
		}

		entry := RegistryEntry{
			ContextKey: contextKey,
			KeyIDs:     entryKeyIDs,
			AccountIDs: splitSecondary(accountIDs[ix]),
			Partition:  partitions[ix],
			Restricted: ix < len(restrictedFlags) && restrictedFlags[ix] == "true",
		}

		if ix < len(beaconKeys) && beaconKeys[ix] != "" {
			beaconKey, err := base64.StdEncoding.DecodeString(beaconKeys[ix])
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidConfig,
					"beacon key for context key %q is not valid base64", contextKey)
			}
			entry.BeaconKey = beaconKey
		}

		registry[contextKey] = entry
	}

	return registry, nil
}

// splitSecondary splits a multi-valued registry field on the secondary
// delimiter, dropping empty segments.
func splitSecondary(value string) []string {
	parts := strings.Split(value, keyIDDelimiter)
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
