package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Catalog backend kinds.
const (
	BackendSynthetic = "synthetic"
	BackendSQLite    = "sqlite"
	BackendService   = "service"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Telescope TelescopeConfig   `yaml:"telescope"`
	Simulator SimulatorConfig   `yaml:"simulator"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.Telescope.Validate(); err != nil {
		return err
	}
	return c.Simulator.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the catalog service listen configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig holds the path to the output workspace directory.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// CatalogConfig selects and tunes the source catalog backend.
//
// Backend controls where sources come from:
//   - "synthetic" (default): deterministic generated field, no external data.
//   - "sqlite": cone search over a local source database; SQLitePath must be set.
//   - "service": HTTP cone-search service; ServiceURL must be set.
type CatalogConfig struct {
	Backend          string          `yaml:"backend"`
	SQLitePath       string          `yaml:"sqlite_path"`
	ServiceURL       string          `yaml:"service_url"`
	FieldRadiusDeg   float64         `yaml:"field_radius_deg"`
	DensityThreshold int             `yaml:"density_threshold"`
	MaxDepth         int             `yaml:"max_depth"`
	Synthetic        SyntheticConfig `yaml:"synthetic"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendSynthetic
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendSynthetic, BackendSQLite, BackendService)),
		validation.Field(&c.FieldRadiusDeg, validation.Min(0.0).Exclusive(), validation.Max(5.0)),
		validation.Field(&c.DensityThreshold, validation.Min(1)),
		validation.Field(&c.MaxDepth, validation.Min(1), validation.Max(16)),
	); err != nil {
		return err
	}
	if c.Backend == BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("catalog: backend is %q but sqlite_path is empty", BackendSQLite)
	}
	if c.Backend == BackendService && c.ServiceURL == "" {
		return fmt.Errorf("catalog: backend is %q but service_url is empty", BackendService)
	}
	return nil
}

// SyntheticConfig tunes the generated star field.
type SyntheticConfig struct {
	PointCount    int     `yaml:"point_count"`
	ExtendedCount int     `yaml:"extended_count"`
	MagnitudeMin  float64 `yaml:"magnitude_min"`
	MagnitudeMax  float64 `yaml:"magnitude_max"`
	Seed          int64   `yaml:"seed"`
}

// Validate validates the synthetic field configuration.
func (c *SyntheticConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PointCount, validation.Min(0)),
		validation.Field(&c.ExtendedCount, validation.Min(0)),
	)
}

// TelescopeConfig holds observatory-level pointing configuration.
type TelescopeConfig struct {
	RollDeg float64 `yaml:"roll_deg"`
}

// Validate validates the telescope configuration.
func (c *TelescopeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RollDeg, validation.Min(0.0), validation.Max(360.0)),
	)
}

// SimulatorConfig holds the external simulator invocation.
//
// Command is resolved at run time; the run command fails when it is empty.
type SimulatorConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Workers int      `yaml:"workers"`
}

// Validate validates the simulator configuration.
func (c *SimulatorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Workspace: WorkspaceConfig{
			Root: "./workspace",
		},
		Catalog: CatalogConfig{
			Backend:          BackendSynthetic,
			SQLitePath:       "./sources.db",
			FieldRadiusDeg:   0.1,
			DensityThreshold: 1000,
			MaxDepth:         8,
			Synthetic: SyntheticConfig{
				PointCount:    2000,
				ExtendedCount: 200,
				MagnitudeMin:  17,
				MagnitudeMax:  25,
			},
		},
		Telescope: TelescopeConfig{
			RollDeg: 0,
		},
		Simulator: SimulatorConfig{
			Workers: 4,
		},
	}
}
