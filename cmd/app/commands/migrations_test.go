package commands

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("unregistered connection scheme", func(t *testing.T) {
		err := RunMigrations(logger, "postgres", "bolt://localhost")
		require.ErrorContains(t, err, "failed to create migrate instance")
	})

	t.Run("connection string without a scheme", func(t *testing.T) {
		err := RunMigrations(logger, "postgres", "not-a-connection-string")
		require.ErrorContains(t, err, "failed to create migrate instance")
	})
}
