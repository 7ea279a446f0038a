// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pthm-cable/sphfluid/fluid"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Seed jitter kinds.
const (
	JitterUniform = "uniform"
	JitterNoise   = "noise"
	JitterNone    = "none"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Fluid       fluid.Params      `yaml:"fluid"`
	Seed        SeedConfig        `yaml:"seed"`
	Parallel    ParallelConfig    `yaml:"parallel"`
	Interaction InteractionConfig `yaml:"interaction"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Render      RenderConfig      `yaml:"render"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window parameters.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SeedConfig controls how the dam is filled on start and reset.
type SeedConfig struct {
	Spacing         float64 `yaml:"spacing"`          // lattice spacing (0 = kernel radius)
	Jitter          string  `yaml:"jitter"`           // uniform | noise | none
	JitterAmplitude float64 `yaml:"jitter_amplitude"` // max horizontal offset
	NoiseFrequency  float64 `yaml:"noise_frequency"`  // simplex sample scale for noise jitter
	RNGSeed         int64   `yaml:"rng_seed"`
	MaxCount        int     `yaml:"max_count"` // 0 = fluid.dam_particles
}

// ParallelConfig holds worker pool parameters.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // particle count from which passes go parallel
}

// InteractionConfig holds mouse interaction parameters.
type InteractionConfig struct {
	DragForceScale float64 `yaml:"drag_force_scale"` // force per pixel of mouse movement
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // simulated seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	BookmarkHistory     int     `yaml:"bookmark_history"` // windows of rolling history
}

// RenderConfig holds drawing parameters.
type RenderConfig struct {
	PointRadius    float32 `yaml:"point_radius"`
	StepsPerUpdate int     `yaml:"steps_per_update"`
	ColorLow       string  `yaml:"color_low"`    // hex colour at density_low
	ColorHigh      string  `yaml:"color_high"`   // hex colour at density_high
	DensityLow     float64 `yaml:"density_low"`  // 0 = self density
	DensityHigh    float64 `yaml:"density_high"` // 0 = 4x self density
	Background     string  `yaml:"background"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32    float32 // Screen.Width as float32
	ScreenH32    float32 // Screen.Height as float32
	Boundary     float64 // resolved wall epsilon
	DragRadius   float64 // resolved interaction radius
	SeedSpacing  float64 // resolved lattice spacing
	SeedMaxCount int     // resolved particle cap
	DensityLow   float64 // resolved colour ramp bounds
	DensityHigh  float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.SolverParams().Validate(); err != nil {
		return nil, fmt.Errorf("validating fluid section: %w", err)
	}
	switch cfg.Seed.Jitter {
	case "", JitterUniform, JitterNoise, JitterNone:
	default:
		return nil, fmt.Errorf("unknown seed jitter %q", cfg.Seed.Jitter)
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// Input window defaults to the screen size
	if c.Fluid.Window.Width == 0 {
		c.Fluid.Window.Width = float64(c.Screen.Width)
	}
	if c.Fluid.Window.Height == 0 {
		c.Fluid.Window.Height = float64(c.Screen.Height)
	}

	c.Derived.Boundary = c.Fluid.BoundaryEps()
	c.Derived.DragRadius = c.Fluid.DragRadius()

	c.Derived.SeedSpacing = c.Seed.Spacing
	if c.Derived.SeedSpacing == 0 {
		c.Derived.SeedSpacing = c.Fluid.KernelRadius
	}
	c.Derived.SeedMaxCount = c.Seed.MaxCount
	if c.Derived.SeedMaxCount == 0 {
		c.Derived.SeedMaxCount = c.Fluid.DamParticles
	}

	// Colour ramp defaults to the self density of a lone particle and 4x that
	self := 0.0
	if c.Fluid.KernelRadius > 0 {
		self = c.Fluid.SelfDensity()
	}
	c.Derived.DensityLow = c.Render.DensityLow
	if c.Derived.DensityLow == 0 {
		c.Derived.DensityLow = self
	}
	c.Derived.DensityHigh = c.Render.DensityHigh
	if c.Derived.DensityHigh == 0 {
		c.Derived.DensityHigh = 4 * self
	}
}

// SolverParams returns the fluid parameters handed to the solver by value.
func (c *Config) SolverParams() fluid.Params {
	return c.Fluid
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
