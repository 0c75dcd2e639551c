package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/todoseq/internal"
	pkgconfig "github.com/starford/todoseq/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		if !errors.Is(err, pkgconfig.ErrNotFound) || cmd.IsSet("config") {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		// No config file: run on defaults.
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func scan(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target := cmd.Args().First()
	if target == "" {
		return fmt.Errorf("scan: a file or directory argument is required")
	}
	return internal.Scan(ctx, target, os.Stdout, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func main() {
	cmd := &cli.Command{
		Name:   "todoseq",
		Usage:  "Task index for Markdown vaults: finds TODO/DONE keyword lines and serves them over REST, SSE and MCP",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index the vault, watch it and serve the HTTP API",
				Action: serve,
			},
			{
				Name:      "scan",
				Usage:     "Print the tasks of a note or directory as JSON",
				ArgsUsage: "<file|dir>",
				Action:    scan,
			},
			{
				Name:   "mcp",
				Usage:  "Serve task tools over MCP stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
