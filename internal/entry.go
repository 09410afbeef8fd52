// Package internal wires configuration, logging, and the domain packages
// into the CLI entry points.
package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/driver"
	"github.com/starford/altair/internal/siaf"
	"github.com/starford/altair/internal/storage"
)

func newApplication(opts ...Option) (*application, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		// Structured JSON logger, level from config.
		app.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

// workspace creates the output tree root if needed and opens it.
func (a *application) workspace() (*storage.Workspace, error) {
	root := a.config.Workspace.Root
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return storage.NewWorkspace(root)
}

func (a *application) registry() (*siaf.Registry, error) {
	reg, err := siaf.Load()
	if err != nil {
		return nil, fmt.Errorf("load aperture registry: %w", err)
	}
	return reg, nil
}

// openBackend builds the configured catalog backend. The returned close
// func releases backend resources; it is a no-op for stateless backends.
func (a *application) openBackend() (catalog.Backend, func() error, error) {
	noop := func() error { return nil }
	if a.backend != nil {
		return a.backend, noop, nil
	}

	cfg := a.config.Catalog
	switch cfg.Backend {
	case BackendSynthetic:
		return catalog.SyntheticBackend{
			PointCount:    cfg.Synthetic.PointCount,
			ExtendedCount: cfg.Synthetic.ExtendedCount,
			MagMin:        cfg.Synthetic.MagnitudeMin,
			MagMax:        cfg.Synthetic.MagnitudeMax,
			Seed:          cfg.Synthetic.Seed,
		}, noop, nil
	case BackendSQLite:
		db, err := catalog.OpenSourceDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case BackendService:
		return catalog.NewServiceBackend(cfg.ServiceURL), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}
}

// simulator builds the exec simulator rooted at the workspace so manifest
// paths resolve for the external command.
func (a *application) simulator(ws *storage.Workspace) (driver.Simulator, error) {
	if a.sim != nil {
		return a.sim, nil
	}
	cfg := a.config.Simulator
	if cfg.Command == "" {
		return nil, fmt.Errorf("simulator command not configured")
	}
	return driver.ExecSimulator{
		Command: cfg.Command,
		Args:    cfg.Args,
		Dir:     ws.Root(),
	}, nil
}
