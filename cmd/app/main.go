package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/altair/internal"
	pkgconfig "github.com/starford/altair/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func compileAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pointing := cmd.String("pointing")
	definition := cmd.String("definition")

	if cmd.Bool("watch") {
		return internal.CompileWatch(ctx, pointing, definition, internal.WithConfig(cfg))
	}
	return internal.Compile(ctx, pointing, definition, internal.WithConfig(cfg))
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if w := cmd.Int("workers"); w > 0 {
		cfg.Simulator.Workers = int(w)
	}
	if sim := cmd.String("simulator"); sim != "" {
		cfg.Simulator.Command = sim
	}
	return internal.RunBatch(ctx, cmd.Args().Slice(), internal.WithConfig(cfg))
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Serve(ctx, internal.WithConfig(cfg))
}

func ingestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Ingest(ctx, cmd.Args().Slice(), internal.WithConfig(cfg))
}

func aperturesAction(_ context.Context, _ *cli.Command) error {
	return internal.ListApertures(os.Stdout)
}

func main() {
	cmd := &cli.Command{
		Name:  "altair",
		Usage: "Compile observing proposals into per-exposure manifests and drive a batch simulator over them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("ALTAIR_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "compile",
				Usage: "Parse a proposal export, compile catalogs, and emit one manifest per exposure",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "pointing",
						Aliases:  []string{"p"},
						Usage:    "Path to the pointing table export",
						Required: true,
						Sources:  cli.EnvVars("ALTAIR_POINTING_FILE"),
					},
					&cli.StringFlag{
						Name:     "definition",
						Aliases:  []string{"d"},
						Usage:    "Path to the XML definition document",
						Required: true,
						Sources:  cli.EnvVars("ALTAIR_DEFINITION_FILE"),
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Recompile when the proposal files change",
					},
				},
				Action: compileAction,
			},
			{
				Name:      "run",
				Usage:     "Drive the external simulator over compiled manifests",
				ArgsUsage: "[manifest name ...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Parallel simulator processes (overrides config)",
						Sources: cli.EnvVars("ALTAIR_WORKERS"),
					},
					&cli.StringFlag{
						Name:    "simulator",
						Usage:   "Simulator command (overrides config)",
						Sources: cli.EnvVars("ALTAIR_SIMULATOR"),
					},
				},
				Action: runAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the catalog cone-search HTTP service",
				Action: serveAction,
			},
			{
				Name:      "ingest",
				Usage:     "Load catalog files into the SQLite source database",
				ArgsUsage: "<catalog file ...>",
				Action:    ingestAction,
			},
			{
				Name:   "apertures",
				Usage:  "Print the aperture registry",
				Action: aperturesAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
