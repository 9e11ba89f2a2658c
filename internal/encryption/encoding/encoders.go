package encoding

import (
	"encoding/json"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// StringEncoder passes string values through unchanged.
type StringEncoder struct{}

// NewStringEncoder creates an encoder for free-form string values.
func NewStringEncoder() StringEncoder {
	return StringEncoder{}
}

func (StringEncoder) Encode(value string) (string, error) { return value, nil }

func (StringEncoder) Decode(value string) (string, error) { return value, nil }

// Redacted returns the empty string.
func (StringEncoder) Redacted() string { return "" }

// TextEncoder handles fixed-width text values. A Width of zero means
// unbounded; a positive Width rejects values longer than Width runes on
// encode so over-long data fails before it reaches storage.
type TextEncoder struct {
	Width int
}

// NewTextEncoder creates an encoder for text values bounded to width runes.
func NewTextEncoder(width int) TextEncoder {
	return TextEncoder{Width: width}
}

func (t TextEncoder) Encode(value string) (string, error) {
	if t.Width > 0 && utf8.RuneCountInString(value) > t.Width {
		return "", apperrors.Wrapf(ErrEncode, "text exceeds width %d", t.Width)
	}
	return value, nil
}

func (t TextEncoder) Decode(value string) (string, error) { return value, nil }

// Redacted returns the empty string.
func (TextEncoder) Redacted() string { return "" }

// IntEncoder handles integer values in base-10 form.
type IntEncoder struct{}

// NewIntEncoder creates an encoder for integer values.
func NewIntEncoder() IntEncoder {
	return IntEncoder{}
}

func (IntEncoder) Encode(value int) (string, error) {
	return strconv.Itoa(value), nil
}

func (IntEncoder) Decode(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.Wrapf(ErrDecode, "invalid integer %q", value)
	}
	return n, nil
}

// Redacted returns zero.
func (IntEncoder) Redacted() int { return 0 }

// DecimalEncoder handles exact decimal values without float rounding.
type DecimalEncoder struct{}

// NewDecimalEncoder creates an encoder for exact decimal values.
func NewDecimalEncoder() DecimalEncoder {
	return DecimalEncoder{}
}

func (DecimalEncoder) Encode(value decimal.Decimal) (string, error) {
	return value.String(), nil
}

func (DecimalEncoder) Decode(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, apperrors.Wrapf(ErrDecode, "invalid decimal %q", value)
	}
	return d, nil
}

// Redacted returns decimal zero.
func (DecimalEncoder) Redacted() decimal.Decimal { return decimal.Zero }

// DatetimeEncoder handles timezone-aware timestamps in RFC 3339 form.
// Nanosecond precision and the original UTC offset survive the round trip.
type DatetimeEncoder struct{}

// NewDatetimeEncoder creates an encoder for timestamp values.
func NewDatetimeEncoder() DatetimeEncoder {
	return DatetimeEncoder{}
}

func (DatetimeEncoder) Encode(value time.Time) (string, error) {
	return value.Format(time.RFC3339Nano), nil
}

func (DatetimeEncoder) Decode(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, apperrors.Wrapf(ErrDecode, "invalid timestamp %q", value)
	}
	return ts, nil
}

// Redacted returns the zero time.
func (DatetimeEncoder) Redacted() time.Time { return time.Time{} }

// JSONEncoder handles arbitrary JSON-compatible structured values.
type JSONEncoder struct{}

// NewJSONEncoder creates an encoder for JSON-compatible values.
func NewJSONEncoder() JSONEncoder {
	return JSONEncoder{}
}

func (JSONEncoder) Encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", apperrors.Wrap(ErrEncode, err.Error())
	}
	return string(data), nil
}

func (JSONEncoder) Decode(value string) (any, error) {
	var out any
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, apperrors.Wrap(ErrDecode, err.Error())
	}
	return out, nil
}

// Redacted returns nil.
func (JSONEncoder) Redacted() any { return nil }

// ArrayEncoder handles homogeneous slices by encoding each element with the
// inner encoder and packing the encoded forms into a JSON array.
type ArrayEncoder[T any] struct {
	inner Encoder[T]
}

// NewArrayEncoder creates an encoder for slices of the inner encoder's type.
func NewArrayEncoder[T any](inner Encoder[T]) ArrayEncoder[T] {
	return ArrayEncoder[T]{inner: inner}
}

func (a ArrayEncoder[T]) Encode(value []T) (string, error) {
	encoded := make([]string, len(value))
	for i, element := range value {
		s, err := a.inner.Encode(element)
		if err != nil {
			return "", err
		}
		encoded[i] = s
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", apperrors.Wrap(ErrEncode, err.Error())
	}
	return string(data), nil
}

func (a ArrayEncoder[T]) Decode(value string) ([]T, error) {
	var encoded []string
	if err := json.Unmarshal([]byte(value), &encoded); err != nil {
		return nil, apperrors.Wrap(ErrDecode, err.Error())
	}
	out := make([]T, len(encoded))
	for i, s := range encoded {
		element, err := a.inner.Decode(s)
		if err != nil {
			return nil, err
		}
		out[i] = element
	}
	return out, nil
}

// Redacted returns a single-element slice carrying the inner encoder's
// redacted value, so callers see the inner sentinel rather than an
// array-specific invention.
func (a ArrayEncoder[T]) Redacted() []T {
	return []T{a.inner.Redacted()}
}

// Nullable wraps an inner encoder and allows nil values. A nil pointer
// short-circuits to the JSON null literal; non-nil values are encoded with
// the inner encoder and wrapped as a JSON string.
type Nullable[T any] struct {
	inner Encoder[T]
}

// NewNullable creates an encoder that permits nil values of the inner type.
func NewNullable[T any](inner Encoder[T]) Nullable[T] {
	return Nullable[T]{inner: inner}
}

func (n Nullable[T]) Encode(value *T) (string, error) {
	if value == nil {
		return "null", nil
	}
	encoded, err := n.inner.Encode(*value)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return "", apperrors.Wrap(ErrEncode, err.Error())
	}
	return string(data), nil
}

func (n Nullable[T]) Decode(value string) (*T, error) {
	var encoded *string
	if err := json.Unmarshal([]byte(value), &encoded); err != nil {
		return nil, apperrors.Wrap(ErrDecode, err.Error())
	}
	if encoded == nil {
		return nil, nil
	}
	decoded, err := n.inner.Decode(*encoded)
	if err != nil {
		return nil, err
	}
	return &decoded, nil
}

// Redacted returns a pointer to the inner encoder's redacted value.
func (n Nullable[T]) Redacted() *T {
	redacted := n.inner.Redacted()
	return &redacted
}

// EnumEncoder encodes enumeration values by name. The value type is usually
// a defined string or integer type; names must be unique per value.
type EnumEncoder[T comparable] struct {
	byName  map[string]T
	byValue map[T]string
	zero    T
}

// NewEnumEncoder creates an encoder from a name-to-value mapping.
func NewEnumEncoder[T comparable](values map[string]T) EnumEncoder[T] {
	byValue := make(map[T]string, len(values))
	for name, value := range values {
		byValue[value] = name
	}
	return EnumEncoder[T]{byName: values, byValue: byValue}
}

func (e EnumEncoder[T]) Encode(value T) (string, error) {
	name, ok := e.byValue[value]
	if !ok {
		return "", apperrors.Wrapf(ErrEncode, "unknown enum value %v", value)
	}
	return name, nil
}

func (e EnumEncoder[T]) Decode(value string) (T, error) {
	v, ok := e.byName[value]
	if !ok {
		return e.zero, apperrors.Wrapf(ErrDecode, "unknown enum name %q", value)
	}
	return v, nil
}

// Redacted returns the zero value of the enum type.
func (e EnumEncoder[T]) Redacted() T { return e.zero }
