package field

import (
	"context"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/encoding"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// Slots holds the three physical storage slots backing one encrypted field.
// Exactly one of Encrypted/Unencrypted is non-nil after any write; Beacon is
// non-nil only when Encrypted is and the tenant has a beacon secret. Slots
// must only be mutated through a Descriptor so the invariant holds.
type Slots[T any] struct {
	Encrypted   []byte  // Marshaled ciphertext envelope
	Unencrypted *T      // Plaintext value when the field is not encrypted
	Beacon      *string // Deterministic search token for the encrypted value
}

// IsEmpty reports whether neither value slot is populated.
func (s *Slots[T]) IsEmpty() bool {
	return s.Encrypted == nil && s.Unencrypted == nil
}

// Descriptor binds an encoder, an optional beacon declaration and an
// optional default to one logical field name. Descriptors are immutable and
// shared; all per-record state lives in Slots.
type Descriptor[T any] struct {
	name       string
	encoder    encoding.Encoder[T]
	beacon     bool
	defaultFn  func() T
	hasDefault bool
}

// Option configures a Descriptor.
type Option[T any] func(*Descriptor[T])

// WithBeacon declares a searchable beacon for the field. When the active
// tenant has no beacon secret, writes still succeed and the beacon slot
// stays null: searchability degrades, writes never fail for this reason.
func WithBeacon[T any]() Option[T] {
	return func(d *Descriptor[T]) { d.beacon = true }
}

// WithDefault declares a literal default, realized at first persistence
// flush through ApplyDefault, not at construction.
func WithDefault[T any](value T) Option[T] {
	return func(d *Descriptor[T]) {
		d.defaultFn = func() T { return value }
		d.hasDefault = true
	}
}

// WithDefaultFunc declares a factory default, evaluated once per flush.
func WithDefaultFunc[T any](fn func() T) Option[T] {
	return func(d *Descriptor[T]) {
		d.defaultFn = fn
		d.hasDefault = true
	}
}

// NewDescriptor creates a descriptor for the logical field name.
func NewDescriptor[T any](name string, encoder encoding.Encoder[T], opts ...Option[T]) *Descriptor[T] {
	d := &Descriptor[T]{name: name, encoder: encoder}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the logical field name.
func (d *Descriptor[T]) Name() string { return d.name }

// HasBeacon reports whether the field declares a searchable beacon.
func (d *Descriptor[T]) HasBeacon() bool { return d.beacon }

// EncryptedColumn returns the physical column name of the ciphertext slot.
func (d *Descriptor[T]) EncryptedColumn() string { return d.name + "_encrypted" }

// UnencryptedColumn returns the physical column name of the plaintext slot.
func (d *Descriptor[T]) UnencryptedColumn() string { return d.name + "_unencrypted" }

// BeaconColumn returns the physical column name of the beacon slot.
func (d *Descriptor[T]) BeaconColumn() string { return d.name + "_beacon" }

// Redacted returns the encoder's redaction sentinel for this field.
func (d *Descriptor[T]) Redacted() T { return d.encoder.Redacted() }

// Set writes a value through the encrypt-or-not decision:
//
//  1. No encryptor bound to ctx: the value lands in the unencrypted slot
//     and the other slots are cleared. This is the default behavior and
//     never fails.
//  2. A bound pass-through encryptor (nil envelope): same as 1.
//  3. Otherwise the encoded value is encrypted into the encrypted slot, the
//     unencrypted slot is cleared, and the beacon slot is populated when the
//     field declares a beacon and the tenant has a beacon secret.
func (d *Descriptor[T]) Set(ctx context.Context, slots *Slots[T], value T) error {
	binding, bound := BoundEncryptor(ctx)
	if !bound {
		d.setPlaintext(slots, value)
		return nil
	}

	recorder := boundRecorder(ctx)

	encoded, err := d.encoder.Encode(value)
	if err != nil {
		return apperrors.Wrapf(err, "field %q", d.name)
	}

	envelope, err := binding.Encryptor.Encrypt(ctx, encoded)
	if err != nil {
		recorder.RecordOperation(ctx, binding.ContextKey, "encrypt", "error")
		return apperrors.Wrapf(err, "field %q", d.name)
	}
	if envelope == nil {
		d.setPlaintext(slots, value)
		return nil
	}
	recorder.RecordOperation(ctx, binding.ContextKey, "encrypt", "success")

	slots.Encrypted = envelope.Marshal()
	slots.Unencrypted = nil
	slots.Beacon = nil

	if d.beacon {
		token, err := binding.Encryptor.Beacon(encoded)
		switch {
		case err == nil:
			slots.Beacon = &token
			recorder.RecordOperation(ctx, binding.ContextKey, "beacon", "success")
		case apperrors.Is(err, domain.ErrBeaconKeyNotSet):
			// Searchability degrades; the write itself stands.
		default:
			recorder.RecordOperation(ctx, binding.ContextKey, "beacon", "error")
			return apperrors.Wrapf(err, "field %q", d.name)
		}
	}

	return nil
}

// Get reads the field value:
//
//  1. Null encrypted slot: the unencrypted slot is returned verbatim
//     (covering both never-encrypted data and absent values).
//  2. Otherwise the envelope is decrypted and decoded. When the key is not
//     resolvable for the bound tenant, or no tenant is bound at all, the
//     encoder's redacted value is returned instead of an error so bulk
//     reads across mixed-rotation data never abort. Callers detect
//     redaction by comparing against Redacted.
//
// Malformed envelopes and undecodable plaintext are surfaced as errors:
// they indicate corrupt stored data, not rotation state.
func (d *Descriptor[T]) Get(ctx context.Context, slots *Slots[T]) (T, error) {
	var zero T

	if slots.Encrypted == nil {
		if slots.Unencrypted != nil {
			return *slots.Unencrypted, nil
		}
		return zero, nil
	}

	recorder := boundRecorder(ctx)

	binding, bound := BoundEncryptor(ctx)
	if !bound {
		recorder.RecordOperation(ctx, "", "decrypt", "redacted")
		return d.encoder.Redacted(), nil
	}

	envelope, err := domain.UnmarshalEnvelope(slots.Encrypted)
	if err != nil {
		return zero, apperrors.Wrapf(err, "field %q", d.name)
	}

	encoded, err := binding.Encryptor.Decrypt(ctx, envelope)
	if err != nil {
		if apperrors.Is(err, domain.ErrDecryptKeyUnavailable) {
			recorder.RecordOperation(ctx, binding.ContextKey, "decrypt", "redacted")
			return d.encoder.Redacted(), nil
		}
		recorder.RecordOperation(ctx, binding.ContextKey, "decrypt", "error")
		return zero, apperrors.Wrapf(err, "field %q", d.name)
	}
	recorder.RecordOperation(ctx, binding.ContextKey, "decrypt", "success")

	value, err := d.encoder.Decode(encoded)
	if err != nil {
		return zero, apperrors.Wrapf(err, "field %q", d.name)
	}
	return value, nil
}

// ApplyDefault realizes a declared default on an empty field at persistence
// flush, routing it through the same encrypt-or-not decision as an explicit
// Set. Fields without a default or with a value already present are left
// untouched.
func (d *Descriptor[T]) ApplyDefault(ctx context.Context, slots *Slots[T]) error {
	if !d.hasDefault || !slots.IsEmpty() {
		return nil
	}
	return d.Set(ctx, slots, d.defaultFn())
}

// Validate checks the mutual-exclusivity invariant of the value slots and
// that a beacon never exists without ciphertext. The write path cannot
// produce a violating state; this guards data loaded from storage.
func (d *Descriptor[T]) Validate(slots *Slots[T]) error {
	if slots.Encrypted != nil && slots.Unencrypted != nil {
		return apperrors.Wrapf(apperrors.ErrIntegrity,
			"field %q has both encrypted and unencrypted slots populated", d.name)
	}
	if slots.Beacon != nil && slots.Encrypted == nil {
		return apperrors.Wrapf(apperrors.ErrIntegrity,
			"field %q has a beacon without ciphertext", d.name)
	}
	return nil
}

func (d *Descriptor[T]) setPlaintext(slots *Slots[T], value T) {
	slots.Unencrypted = &value
	slots.Encrypted = nil
	slots.Beacon = nil
}
