package field

import (
	"context"
)

// Column is the type-erased view of one descriptor/slots pair, used by the
// reencryption engine to work across fields of different value types.
type Column interface {
	// Name returns the logical field name.
	Name() string

	// IsUnencrypted reports whether the plaintext slot is populated.
	IsUnencrypted() bool

	// Reencrypt forces a write-read round trip: the field's current value is
	// read and assigned back to itself, re-running the write path under the
	// tenant encryptor bound to ctx.
	Reencrypt(ctx context.Context) error

	// Validate checks the slot invariants.
	Validate() error
}

// boundColumn pairs a descriptor with one record's slots.
type boundColumn[T any] struct {
	descriptor *Descriptor[T]
	slots      *Slots[T]
}

// Bind ties a descriptor to one record's slots as a type-erased Column.
func Bind[T any](descriptor *Descriptor[T], slots *Slots[T]) Column {
	return boundColumn[T]{descriptor: descriptor, slots: slots}
}

func (c boundColumn[T]) Name() string {
	return c.descriptor.Name()
}

func (c boundColumn[T]) IsUnencrypted() bool {
	return c.slots.Unencrypted != nil
}

func (c boundColumn[T]) Reencrypt(ctx context.Context) error {
	value, err := c.descriptor.Get(ctx, c.slots)
	if err != nil {
		return err
	}
	return c.descriptor.Set(ctx, c.slots, value)
}

func (c boundColumn[T]) Validate() error {
	return c.descriptor.Validate(c.slots)
}
