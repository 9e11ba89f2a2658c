// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/fieldcrypt/cmd/app/commands"
	"github.com/allisson/fieldcrypt/internal/app"
	"github.com/allisson/fieldcrypt/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:    "fieldcrypt",
		Usage:   "Per-tenant field encryption tooling",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					container := app.NewContainer(cfg)
					defer func() { _ = container.Shutdown(ctx) }()

					return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
				},
			},
			{
				Name:  "reencrypt",
				Usage: "Rewrite a client's encrypted columns under its current primary key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "client-id",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "Context key of the client to reencrypt",
					},
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"n"},
						Value:   false,
						Usage:   "Classify instances without writing anything",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunReencrypt(
						ctx,
						cmd.String("client-id"),
						cmd.Bool("dry-run"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "audit",
				Usage: "List the encrypted model catalog without touching data",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAudit(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "verify-coverage",
				Usage: "Check a reencryption plan covers every encrypted model",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "models",
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "Comma-separated model names in the plan",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyCoverage(ctx, cmd.String("models"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
