// Package usecase implements the reencryption engine: validation of the
// target client and model coverage, the per-model rewrite sweep, and the
// read-only audit view.
package usecase

import (
	"context"

	"github.com/allisson/fieldcrypt/internal/reencryption/domain"
)

// ModelSource provides iteration and persistence for one cataloged model.
// Implementations live next to the model's repository and expose each
// instance's encrypted columns through domain.Record.
type ModelSource interface {
	// Name returns the model's catalog name.
	Name() string

	// EncryptedFields returns the logical names of the model's encrypted
	// fields, for coverage validation and auditing.
	EncryptedFields() []string

	// List loads every instance owned by the client.
	List(ctx context.Context, clientID string) ([]domain.Record, error)

	// Save persists one rewritten instance.
	Save(ctx context.Context, record domain.Record) error
}

// ReencryptionUseCase defines the reencryption engine operations.
type ReencryptionUseCase interface {
	// ValidateClient fails with domain.ErrNoKeyConfig semantics when the
	// client has no key configuration to reencrypt under.
	ValidateClient(clientID string) error

	// ValidateCoverage fails when any cataloged model carrying encrypted
	// fields is missing from the declared plan.
	ValidateCoverage(planned []string) error

	// Run sweeps every cataloged model for the client, forcing each
	// encrypted column through a write-read round trip under the client's
	// current primary key. With dryRun set, instances are classified but
	// never persisted.
	Run(ctx context.Context, clientID string, dryRun bool) ([]domain.Statistic, error)

	// Audit returns the read-only catalog view: model names and their
	// encrypted field names. No data is touched.
	Audit() []domain.ModelSummary
}
