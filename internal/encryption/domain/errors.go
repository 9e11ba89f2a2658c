package domain

import (
	"github.com/allisson/fieldcrypt/internal/errors"
)

// Encryption error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to keep a single error taxonomy across the application. The field layer
// distinguishes recoverable decrypt failures (redaction) from fatal
// configuration failures using these sentinels.
var (
	// ErrKeyIDsEmpty indicates a registry entry was configured without key ids.
	// Every context key needs at least one key id; the first is the primary
	// used for new encryption.
	ErrKeyIDsEmpty = errors.Wrap(errors.ErrInvalidConfig, "key ids must not be empty")

	// ErrDuplicateContextKey indicates the same context key appears twice in
	// the registry configuration.
	ErrDuplicateContextKey = errors.Wrap(errors.ErrInvalidConfig, "duplicate context key")

	// ErrKeyIDTooLong indicates a configured key id exceeds the length the
	// envelope header can carry; an envelope written with it could never be
	// parsed back.
	ErrKeyIDTooLong = errors.Wrap(errors.ErrInvalidConfig, "key id too long")

	// ErrRegistryMisaligned indicates the parallel registry configuration
	// arrays have mismatched lengths (except restricted flags, which default
	// to false when short).
	ErrRegistryMisaligned = errors.Wrap(errors.ErrInvalidConfig, "registry config arrays misaligned")

	// ErrNoKeyConfig indicates a tenant has no entry in the key registry.
	// Fatal for administrative operations such as reencryption; keys cannot
	// be rotated for a tenant that was never configured for encryption.
	ErrNoKeyConfig = errors.Wrap(errors.ErrNotFound, "no encryption config for context key")

	// ErrEncryptorNotFound indicates neither the requested context key nor a
	// default entry exists in the multi-tenant router.
	ErrEncryptorNotFound = errors.Wrap(errors.ErrNotFound, "encryptor not found")

	// ErrEncryptorNotBound indicates an operation required a bound tenant
	// encryption context and none was present.
	ErrEncryptorNotBound = errors.New("encryptor not bound to context")

	// ErrDecryptKeyUnavailable indicates the key referenced by a ciphertext
	// envelope is not resolvable within the current tenant's account and
	// partition scope (typically a retired or foreign key). The field layer
	// recovers from this by substituting the encoder's redacted value.
	ErrDecryptKeyUnavailable = errors.New("decrypt key unavailable")

	// ErrBeaconKeyNotSet indicates a beacon was requested for a tenant with
	// no configured beacon secret.
	ErrBeaconKeyNotSet = errors.Wrap(errors.ErrInvalidConfig, "beacon key not set")

	// ErrInvalidEnvelope indicates a stored ciphertext envelope is malformed.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrInvalidInput, "invalid ciphertext envelope")
)
