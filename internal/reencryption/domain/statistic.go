// Package domain defines the models for reencryption sweeps: per-model run
// statistics and the record abstraction the engine iterates.
package domain

import (
	"log/slog"

	"github.com/allisson/fieldcrypt/internal/encryption/field"
)

// Record is one persisted model instance exposing its encrypted columns in
// a type-erased form the engine can rewrite without knowing field types.
type Record interface {
	Columns() []field.Column
}

// Statistic summarizes one model's reencryption sweep.
type Statistic struct {
	ModelName                     string
	TotalInstancesFound           int64
	InstancesFoundToBeUnencrypted int64
	InstancesReencrypted          int64
}

// LogStats emits the sweep summary as a structured log record.
func (s Statistic) LogStats(logger *slog.Logger) {
	logger.Info("reencryption finished",
		slog.String("model", s.ModelName),
		slog.Int64("total_instances_found", s.TotalInstancesFound),
		slog.Int64("instances_found_to_be_unencrypted", s.InstancesFoundToBeUnencrypted),
		slog.Int64("instances_reencrypted", s.InstancesReencrypted),
	)
}

// ModelSummary is the read-only audit view of one cataloged model.
type ModelSummary struct {
	ModelName       string
	EncryptedFields []string
}
