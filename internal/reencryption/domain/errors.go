package domain

import "github.com/allisson/fieldcrypt/internal/errors"

var (
	// ErrModelNotCovered indicates a cataloged model with encrypted columns
	// is missing from the declared reencryption plan.
	ErrModelNotCovered = errors.Wrap(errors.ErrInvalidConfig, "model not covered by reencryption plan")

	// ErrDuplicateModel indicates two catalog registrations share a name.
	ErrDuplicateModel = errors.Wrap(errors.ErrConflict, "model already registered")
)
