// Package encoding serializes typed field values to and from the canonical
// string form consumed by the encryption layer.
//
// Every encoder is total and inverse on its value domain: Decode(Encode(x))
// yields x for all representable x. Malformed input is reported through
// ErrDecode (or ErrEncode), never silently coerced. Each encoder also
// declares a redacted value: a safe placeholder substituted by the field
// layer when decryption fails due to unavailable key material.
package encoding

import (
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// Encoder converts values of type T to the canonical string form and back.
type Encoder[T any] interface {
	// Encode serializes a value to its canonical string form.
	Encode(value T) (string, error)

	// Decode parses the canonical string form back into a value.
	Decode(value string) (T, error)

	// Redacted returns the placeholder substituted when decryption fails.
	Redacted() T
}

// Encoding error definitions.
var (
	// ErrEncode indicates a value cannot be serialized to its canonical form.
	ErrEncode = apperrors.Wrap(apperrors.ErrInvalidInput, "cannot encode value")

	// ErrDecode indicates a stored canonical form is malformed or incompatible.
	// This points at corrupt or incompatible persisted data and is never
	// auto-corrected.
	ErrDecode = apperrors.Wrap(apperrors.ErrInvalidInput, "cannot decode value")
)
