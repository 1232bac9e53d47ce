// Package config holds the yaml-backed run configuration and named
// presets for the Brusselator lab.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reactsim/reactsim/internal/bruss"
	"github.com/reactsim/reactsim/internal/grid"
	"github.com/reactsim/reactsim/internal/sim"
)

const (
	DefaultN        = 32
	DefaultA        = 3.4
	DefaultB        = 1.0
	DefaultAlpha    = 0.002
	DefaultDt       = 0.01
	DefaultDuration = 10.0
)

type Config struct {
	// Grid resolution: N points per axis on the unit square; the grid
	// spacing (and the Laplacian scale) follows as 1/N.
	N int `yaml:"n"`

	// Brusselator parameters.
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	Alpha float64 `yaml:"alpha"`

	// Forcing enables the reference disk source term.
	Forcing bool `yaml:"forcing"`

	// Integrator: euler, rk4, dopri5 or imex.
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Adaptive   bool    `yaml:"adaptive"`
	Tolerance  float64 `yaml:"tolerance"`

	SnapshotEvery int `yaml:"snapshot_every"`

	// ParallelRows enables the parallel RHS sweep once the grid has at
	// least this many rows; 0 keeps it serial.
	ParallelRows int `yaml:"parallel_rows"`
}

func Default() *Config {
	return &Config{
		N:             DefaultN,
		A:             DefaultA,
		B:             DefaultB,
		Alpha:         DefaultAlpha,
		Integrator:    "rk4",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		Tolerance:     1e-6,
		SnapshotEvery: 10,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.N < 2 {
		return fmt.Errorf("config: n must be at least 2, got %d", c.N)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %f", c.Duration)
	}
	switch c.Integrator {
	case "euler", "rk4", "dopri5", "imex":
	default:
		return fmt.Errorf("config: unknown integrator %q", c.Integrator)
	}
	if c.Adaptive && c.Integrator != "dopri5" {
		return fmt.Errorf("config: adaptive stepping requires the dopri5 integrator")
	}
	return nil
}

// Grid returns the grid the configuration describes.
func (c *Config) Grid() (grid.Grid, error) {
	return grid.New(c.N)
}

// Params assembles the evaluator parameters for g, deriving the
// Laplacian spacing from the grid.
func (c *Config) Params(g grid.Grid) bruss.Params {
	return bruss.Params{A: c.A, B: c.B, Alpha: c.Alpha, Dx: g.Spacing}
}

// SimConfig assembles the runner configuration.
func (c *Config) SimConfig() sim.Config {
	sc := sim.DefaultConfig()
	sc.Dt = c.Dt
	sc.Duration = c.Duration
	sc.Adaptive = c.Adaptive
	sc.Tolerance = c.Tolerance
	if c.SnapshotEvery > 0 {
		sc.SnapshotEvery = c.SnapshotEvery
	}
	return sc
}
