package internal

import (
	"log/slog"

	"github.com/starford/altair/internal/catalog"
	"github.com/starford/altair/internal/driver"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	backend catalog.Backend
	sim     driver.Simulator
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger overrides the default JSON logger. Mostly for tests.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithBackend overrides the configured catalog backend. Mostly for tests.
func WithBackend(b catalog.Backend) Option {
	return func(a *application) {
		a.backend = b
	}
}

// WithSimulator overrides the configured exec simulator. Mostly for tests.
func WithSimulator(sim driver.Simulator) Option {
	return func(a *application) {
		a.sim = sim
	}
}
