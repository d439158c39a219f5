package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/applebridge/internal"
	pkgconfig "github.com/starford/applebridge/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if transport := cmd.String("transport"); transport != "" {
		cfg.App.Transport = transport
		if err := cfg.App.Validate(); err != nil {
			return fmt.Errorf("invalid transport: %w", err)
		}
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if found {
		opts = append(opts, internal.WithConfigPath(configPath))
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "applebridge",
		Usage:  "MCP server for Contacts, Notes, Messages, Mail, Calendar, Reminders, Maps and web search on macOS",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				Usage:   "MCP transport: stdio or http (overrides config)",
				Sources: cli.EnvVars("APP_TRANSPORT"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
