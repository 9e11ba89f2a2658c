package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/allisson/fieldcrypt/internal/app"
	"github.com/allisson/fieldcrypt/internal/config"
	"github.com/allisson/fieldcrypt/internal/reencryption/domain"
)

// RunReencrypt sweeps every cataloged model for the client, rewriting each
// encrypted column under the client's current primary key. Supports dry-run
// mode to classify instances without writing.
//
// Requirements: the encryption registry must contain the client and the
// database must be accessible.
func RunReencrypt(ctx context.Context, clientID string, dryRun bool, format string) error {
	if clientID == "" {
		return fmt.Errorf("client-id must not be empty")
	}

	// Load and check configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting reencryption",
		slog.String("client_id", clientID),
		slog.Bool("dry_run", dryRun),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get reencryption engine from container
	engine, err := container.ReencryptionUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize reencryption engine: %w", err)
	}

	// Serve the Prometheus scrape endpoint for the duration of the sweep
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown metrics server", slog.Any("error", err))
			}
		}()
	}

	stats, err := engine.Run(ctx, clientID, dryRun)
	if err != nil {
		return fmt.Errorf("failed to reencrypt: %w", err)
	}

	if format == "json" {
		outputReencryptJSON(clientID, dryRun, stats)
	} else {
		outputReencryptText(clientID, dryRun, stats)
	}

	return nil
}

// outputReencryptText outputs the result in human-readable text format.
func outputReencryptText(clientID string, dryRun bool, stats []domain.Statistic) {
	if dryRun {
		fmt.Printf("Dry-run reencryption report for client %s:\n", clientID)
	} else {
		fmt.Printf("Reencryption report for client %s:\n", clientID)
	}
	for _, stat := range stats {
		fmt.Printf(
			"  %s: found=%d unencrypted=%d reencrypted=%d\n",
			stat.ModelName,
			stat.TotalInstancesFound,
			stat.InstancesFoundToBeUnencrypted,
			stat.InstancesReencrypted,
		)
	}
}

// outputReencryptJSON outputs the result in JSON format for machine consumption.
func outputReencryptJSON(clientID string, dryRun bool, stats []domain.Statistic) {
	result := map[string]interface{}{
		"client_id": clientID,
		"dry_run":   dryRun,
		"models":    stats,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
}
