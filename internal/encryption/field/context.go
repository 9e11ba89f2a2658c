// Package field implements the encrypted field descriptor: the per-field
// runtime object that routes typed values through encode/encrypt on write
// and decrypt/decode (or redaction) on read, against a triple of physical
// storage slots.
package field

import (
	"context"

	"github.com/allisson/fieldcrypt/internal/encryption/service"
)

// bindingKey is the context key type for the active encryption binding.
type bindingKey struct{}

// Binding is the active encryption context: the tenant's context key and
// the encryptor resolved for it. It is carried on context.Context so each
// request or run holds its own binding; concurrent operations for different
// tenants never observe each other's encryptor, and unwinding a call stack
// restores the previous binding automatically.
type Binding struct {
	ContextKey string
	Encryptor  service.Encryptor
}

// WithEncryptor returns a context carrying the tenant encryptor binding.
func WithEncryptor(ctx context.Context, contextKey string, encryptor service.Encryptor) context.Context {
	return context.WithValue(ctx, bindingKey{}, Binding{
		ContextKey: contextKey,
		Encryptor:  encryptor,
	})
}

// BoundEncryptor returns the active encryption binding, if any.
func BoundEncryptor(ctx context.Context) (Binding, bool) {
	binding, ok := ctx.Value(bindingKey{}).(Binding)
	return binding, ok
}
