package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// beaconKeyInfo is the HKDF domain-separation string for beacon key
// derivation, keeping the derived HMAC key distinct from any other use of
// the configured secret.
const beaconKeyInfo = "fieldcrypt-beacon-v1"

// TenantEncryptor owns one registry entry's worth of key material: an
// encrypting keeper for the primary key id and decrypting keepers for every
// key id in the entry, so data encrypted under retired keys stays readable
// during rotation windows.
//
// A TenantEncryptor is stateless with respect to individual operations and
// safe for concurrent use once constructed.
type TenantEncryptor struct {
	entry          domain.RegistryEntry
	encryptKeeper  Keeper
	decryptKeepers map[string]Keeper
	beaconKey      []byte
}

// NewTenantEncryptor opens keepers for every key id in the entry and derives
// the tenant's beacon key when a beacon secret is configured.
func NewTenantEncryptor(
	ctx context.Context,
	entry domain.RegistryEntry,
	opener KeeperOpener,
	resolver KeyURIResolver,
) (*TenantEncryptor, error) {
	decryptKeepers := make(map[string]Keeper, len(entry.KeyIDs))
	for _, keyID := range entry.KeyIDs {
		keeper, err := opener.OpenKeeper(ctx, resolver(keyID))
		if err != nil {
			closeKeepers(decryptKeepers)
			return nil, apperrors.Wrapf(err, "open keeper for key id %q", keyID)
		}
		decryptKeepers[keyID] = keeper
	}

	encryptor := &TenantEncryptor{
		entry:          entry,
		encryptKeeper:  decryptKeepers[entry.PrimaryKeyID()],
		decryptKeepers: decryptKeepers,
	}

	if entry.HasBeaconKey() {
		beaconKey, err := deriveBeaconKey(entry.BeaconKey)
		if err != nil {
			closeKeepers(decryptKeepers)
			return nil, apperrors.Wrap(err, "derive beacon key")
		}
		encryptor.beaconKey = beaconKey
	}

	return encryptor, nil
}

// ContextKey returns the context key this encryptor serves.
func (t *TenantEncryptor) ContextKey() string {
	return t.entry.ContextKey
}

// Encrypt encrypts an encoded plaintext under the tenant's primary key.
// Large plaintexts are zstd compressed before encryption; the envelope flag
// records whether compression was applied.
func (t *TenantEncryptor) Encrypt(ctx context.Context, plaintext string) (*domain.Envelope, error) {
	payload, compressed, err := compress([]byte(plaintext))
	if err != nil {
		return nil, apperrors.Wrap(err, "compress plaintext")
	}

	ciphertext, err := t.encryptKeeper.Encrypt(ctx, payload)
	if err != nil {
		return nil, apperrors.Wrapf(err, "encrypt with key id %q", t.entry.PrimaryKeyID())
	}

	flag := domain.FlagNoCompression
	if compressed {
		flag = domain.FlagZstd
	}

	return &domain.Envelope{
		KeyIDs:     []string{t.entry.PrimaryKeyID()},
		Flag:       flag,
		Ciphertext: ciphertext,
	}, nil
}

// Decrypt resolves the envelope's wrapping key against the tenant's decrypt
// key set and recovers the encoded plaintext. An unresolvable or rejected
// key fails with domain.ErrDecryptKeyUnavailable; the caller decides whether
// to redact or surface the failure.
func (t *TenantEncryptor) Decrypt(ctx context.Context, envelope *domain.Envelope) (string, error) {
	keeper, ok := t.decryptKeepers[envelope.WrappingKeyID()]
	if !ok {
		return "", apperrors.Wrapf(domain.ErrDecryptKeyUnavailable,
			"key id %q not in scope for context key %q", envelope.WrappingKeyID(), t.entry.ContextKey)
	}

	payload, err := keeper.Decrypt(ctx, envelope.Ciphertext)
	if err != nil {
		return "", apperrors.Wrapf(domain.ErrDecryptKeyUnavailable,
			"key id %q rejected ciphertext", envelope.WrappingKeyID())
	}

	if envelope.Flag == domain.FlagZstd {
		payload, err = decompress(payload)
		if err != nil {
			return "", apperrors.Wrap(domain.ErrInvalidEnvelope, err.Error())
		}
	}

	return string(payload), nil
}

// Beacon computes the deterministic HMAC-SHA256 search token for an encoded
// plaintext, hex encoded. Same plaintext and same secret always produce the
// same token; tenants with different secrets produce unlinkable tokens.
func (t *TenantEncryptor) Beacon(plaintext string) (string, error) {
	if t.beaconKey == nil {
		return "", apperrors.Wrapf(domain.ErrBeaconKeyNotSet,
			"context key %q", t.entry.ContextKey)
	}
	mac := hmac.New(sha256.New, t.beaconKey)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Close releases all keepers held by the encryptor.
func (t *TenantEncryptor) Close() error {
	var firstErr error
	for _, keeper := range t.decryptKeepers {
		if err := keeper.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PlaintextEncryptor is the pass-through encryptor: writes stay unencrypted
// and no beacons are produced. Used as an explicit "do not encrypt" binding.
type PlaintextEncryptor struct{}

// NewPlaintextEncryptor creates a pass-through encryptor.
func NewPlaintextEncryptor() PlaintextEncryptor {
	return PlaintextEncryptor{}
}

// Encrypt returns a nil envelope, signaling the value must not be encrypted.
func (PlaintextEncryptor) Encrypt(ctx context.Context, plaintext string) (*domain.Envelope, error) {
	return nil, nil
}

// Decrypt always fails: a pass-through tenant holds no key material, so
// ciphertext found in storage is unreadable and the field layer redacts it.
func (PlaintextEncryptor) Decrypt(ctx context.Context, envelope *domain.Envelope) (string, error) {
	return "", domain.ErrDecryptKeyUnavailable
}

// Beacon always fails: pass-through tenants have no beacon secret.
func (PlaintextEncryptor) Beacon(plaintext string) (string, error) {
	return "", domain.ErrBeaconKeyNotSet
}

// deriveBeaconKey derives the 32-byte HMAC key from the configured beacon
// secret using HKDF-SHA256 with a fixed info string.
func deriveBeaconKey(secret []byte) ([]byte, error) {
	out := make([]byte, 32)
	reader := hkdf.New(sha256.New, secret, nil, []byte(beaconKeyInfo))
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

func closeKeepers(keepers map[string]Keeper) {
	for _, keeper := range keepers {
		_ = keeper.Close()
	}
}
