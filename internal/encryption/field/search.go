package field

import (
	"context"

	"github.com/allisson/fieldcrypt/internal/encryption/domain"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
)

// Predicate is the storage-agnostic rewrite of an equality or inclusion
// test against an encrypted field: compare the beacon column against the
// beacon tokens of the searched literals, computed under the currently
// bound tenant. Repositories translate it into their query syntax.
//
// A MatchNothing predicate means the comparison cannot be satisfied:
// searching ciphertext without a beacon matches no rows.
type Predicate struct {
	Column       string
	Tokens       []string
	MatchNothing bool
}

// Equals rewrites an equality test into a beacon comparison. Fields without
// a declared beacon yield a match-nothing predicate rather than an error:
// equality search against ciphertext is a documented limitation, not a
// crash. An unbound context fails with domain.ErrEncryptorNotBound since a
// beacon cannot be computed for any tenant.
func (d *Descriptor[T]) Equals(ctx context.Context, value T) (Predicate, error) {
	return d.In(ctx, value)
}

// In rewrites an inclusion test into a beacon comparison over the tokens of
// every searched literal. See Equals for the degraded cases.
func (d *Descriptor[T]) In(ctx context.Context, values ...T) (Predicate, error) {
	if !d.beacon {
		return Predicate{MatchNothing: true}, nil
	}

	binding, bound := BoundEncryptor(ctx)
	if !bound {
		return Predicate{}, apperrors.Wrapf(domain.ErrEncryptorNotBound,
			"beacon search on field %q", d.name)
	}

	tokens := make([]string, len(values))
	for i, value := range values {
		encoded, err := d.encoder.Encode(value)
		if err != nil {
			return Predicate{}, apperrors.Wrapf(err, "field %q", d.name)
		}
		token, err := binding.Encryptor.Beacon(encoded)
		if err != nil {
			return Predicate{}, apperrors.Wrapf(err, "field %q", d.name)
		}
		tokens[i] = token
	}

	return Predicate{Column: d.BeaconColumn(), Tokens: tokens}, nil
}

// OrderBy returns the column for ordering on this field. Encrypted fields
// physically sort by beacon text, which is stable per tenant but carries no
// semantic relation to plaintext order. Callers wanting meaningful order
// must sort decrypted values in memory.
func (d *Descriptor[T]) OrderBy() string {
	if d.beacon {
		return d.BeaconColumn()
	}
	return d.UnencryptedColumn()
}
