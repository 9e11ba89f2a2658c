package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/allisson/fieldcrypt/internal/app"
	"github.com/allisson/fieldcrypt/internal/config"
)

// RunAudit lists every cataloged model and its encrypted field names. The
// command is read-only: no database row is touched.
func RunAudit(ctx context.Context, format string) error {
	// Load and check configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create DI container
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	engine, err := container.ReencryptionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize reencryption engine: %w", err)
	}

	summaries := engine.Audit()

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}

	fmt.Println("Encrypted model catalog:")
	for _, summary := range summaries {
		fmt.Printf("  %s: %s\n", summary.ModelName, strings.Join(summary.EncryptedFields, ", "))
	}
	return nil
}

// RunVerifyCoverage checks the declared reencryption plan against the model
// catalog and fails when an encrypted model is missing from the plan.
func RunVerifyCoverage(ctx context.Context, models string) error {
	// Load and check configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create DI container
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	engine, err := container.ReencryptionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize reencryption engine: %w", err)
	}

	if err := engine.ValidateCoverage(config.SplitList(models)); err != nil {
		return fmt.Errorf("coverage check failed: %w", err)
	}

	fmt.Println("Coverage check passed: every encrypted model is in the plan")
	return nil
}
