package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/fieldcrypt/internal/database"
	encryptionDomain "github.com/allisson/fieldcrypt/internal/encryption/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
	"github.com/allisson/fieldcrypt/internal/encryption/service"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
	"github.com/allisson/fieldcrypt/internal/metrics"
	"github.com/allisson/fieldcrypt/internal/reencryption/domain"
)

// reencryptionUseCase implements the ReencryptionUseCase interface.
type reencryptionUseCase struct {
	catalog       *Catalog
	router        *service.Router
	txManager     database.TxManager
	cryptoMetrics metrics.CryptoMetrics
	logger        *slog.Logger
}

// NewReencryptionUseCase creates a reencryption engine over the given
// catalog and tenant router.
func NewReencryptionUseCase(
	catalog *Catalog,
	router *service.Router,
	txManager database.TxManager,
	cryptoMetrics metrics.CryptoMetrics,
	logger *slog.Logger,
) ReencryptionUseCase {
	return &reencryptionUseCase{
		catalog:       catalog,
		router:        router,
		txManager:     txManager,
		cryptoMetrics: cryptoMetrics,
		logger:        logger,
	}
}

// ValidateClient checks the client has its own key configuration to
// encrypt under. The default fallback entry does not count: keys cannot be
// rotated for a client that was never configured, even when a default entry
// would serve its field operations.
func (u *reencryptionUseCase) ValidateClient(clientID string) error {
	if !u.router.HasEntry(clientID) {
		return apperrors.Wrapf(encryptionDomain.ErrNoKeyConfig, "client %q", clientID)
	}
	return nil
}

// ValidateCoverage checks every cataloged model carrying encrypted fields
// appears in the declared plan, so a sweep cannot silently skip a model and
// leave old-key ciphertext behind.
func (u *reencryptionUseCase) ValidateCoverage(planned []string) error {
	covered := make(map[string]bool, len(planned))
	for _, name := range planned {
		covered[name] = true
	}

	for _, source := range u.catalog.Sources() {
		if len(source.EncryptedFields()) == 0 {
			continue
		}
		if !covered[source.Name()] {
			return apperrors.Wrapf(domain.ErrModelNotCovered, "model %q", source.Name())
		}
	}
	return nil
}

// Run sweeps every cataloged model for the client. Models run in parallel;
// instances within a model are serialized inside one transaction per model,
// so a failing model rolls back whole while finished models stand. The
// sweep is idempotent: a second run finds zero unencrypted instances and
// rewrites everything under the same primary key.
func (u *reencryptionUseCase) Run(ctx context.Context, clientID string, dryRun bool) ([]domain.Statistic, error) {
	if err := u.ValidateClient(clientID); err != nil {
		return nil, err
	}

	encryptor, err := u.router.Lookup(clientID)
	if err != nil {
		return nil, err
	}
	ctx = field.WithEncryptor(ctx, clientID, encryptor)
	ctx = field.WithRecorder(ctx, u.cryptoMetrics)

	sources := u.catalog.Sources()
	stats := make([]domain.Statistic, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for ix, source := range sources {
		g.Go(func() error {
			started := time.Now()
			stat, err := u.runModel(gctx, source, clientID, dryRun)

			status := "success"
			if err != nil {
				status = "error"
			}
			u.cryptoMetrics.RecordDuration(ctx, source.Name(), time.Since(started), status)
			if err != nil {
				return apperrors.Wrapf(err, "model %q", source.Name())
			}

			u.cryptoMetrics.RecordReencryption(ctx, stat.ModelName,
				stat.TotalInstancesFound,
				stat.InstancesFoundToBeUnencrypted,
				stat.InstancesReencrypted,
			)
			stat.LogStats(u.logger)
			stats[ix] = stat
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// runModel rewrites one model's instances inside a single transaction.
// Cancellation is honored between instances, never mid-instance.
func (u *reencryptionUseCase) runModel(
	ctx context.Context,
	source ModelSource,
	clientID string,
	dryRun bool,
) (domain.Statistic, error) {
	stat := domain.Statistic{ModelName: source.Name()}

	err := u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		records, err := source.List(txCtx, clientID)
		if err != nil {
			return err
		}

		for _, record := range records {
			if err := txCtx.Err(); err != nil {
				return err
			}

			stat.TotalInstancesFound++

			unencrypted := false
			for _, column := range record.Columns() {
				if column.IsUnencrypted() {
					unencrypted = true
				}
				if dryRun {
					continue
				}
				if err := column.Reencrypt(txCtx); err != nil {
					return apperrors.Wrapf(err, "column %q", column.Name())
				}
			}
			if unencrypted {
				stat.InstancesFoundToBeUnencrypted++
			}

			if dryRun {
				continue
			}
			if err := source.Save(txCtx, record); err != nil {
				return err
			}
			stat.InstancesReencrypted++
		}
		return nil
	})

	if err != nil {
		return domain.Statistic{ModelName: source.Name()}, err
	}
	return stat, nil
}

// Audit returns the catalog view without touching any data.
func (u *reencryptionUseCase) Audit() []domain.ModelSummary {
	sources := u.catalog.Sources()
	summaries := make([]domain.ModelSummary, len(sources))
	for ix, source := range sources {
		summaries[ix] = domain.ModelSummary{
			ModelName:       source.Name(),
			EncryptedFields: source.EncryptedFields(),
		}
	}
	return summaries
}
