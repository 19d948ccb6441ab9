// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Force pass names accepted in forces.passes.
const (
	PassGravity = "gravity"
	PassDensity = "density"
)

// Start domain names accepted in particles.start_domain.
const (
	StartRight = "right"
	StartLeft  = "left"
)

// Config holds all engine configuration parameters.
type Config struct {
	Particles ParticlesConfig `yaml:"particles"`
	Grid      GridConfig      `yaml:"grid"`
	Domain    DomainConfig    `yaml:"domain"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Forces    ForcesConfig    `yaml:"forces"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ParticlesConfig holds the particle store layout and material constants.
type ParticlesConfig struct {
	Count          int     `yaml:"count"`           // Must be a perfect cube
	TotalMass      float64 `yaml:"total_mass"`      // Split evenly across particles
	Density        float64 `yaml:"density"`         // Rest density assigned to every particle
	Viscosity      float64 `yaml:"viscosity"`       // Assigned to every particle
	LatticeOffset  float64 `yaml:"lattice_offset"`  // Offset from the container origin per axis
	LatticeSpacing float64 `yaml:"lattice_spacing"` // 0 = fill the container evenly
	StartDomain    string  `yaml:"start_domain"`    // right | left
}

// GridConfig holds the per-domain grid resolution.
type GridConfig struct {
	Resolution int `yaml:"resolution"`
}

// DomainConfig holds the physical extents of each container and the pipe.
type DomainConfig struct {
	SizeX      float64 `yaml:"size_x"`
	SizeY      float64 `yaml:"size_y"`
	SizeZ      float64 `yaml:"size_z"`
	PipeLength float64 `yaml:"pipe_length"`
}

// KernelConfig holds SPH kernel parameters.
type KernelConfig struct {
	Radius float64 `yaml:"radius"`
}

// PhysicsConfig holds step parameters.
type PhysicsConfig struct {
	DT      float64   `yaml:"dt"`
	Gravity []float64 `yaml:"gravity"`
	Workers int       `yaml:"workers"`
}

// ForcesConfig lists the force passes run between neighbor search and integration.
type ForcesConfig struct {
	Passes []string `yaml:"passes"`
}

// BoundaryConfig holds the container wall constraint parameters.
type BoundaryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Restitution float64 `yaml:"restitution"`
	PipeHeight  float64 `yaml:"pipe_height"` // Open height of the pipe between the tanks
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Size         r3.Vec // Container extents
	BinWidth     r3.Vec // Size / resolution per axis
	Gravity      r3.Vec
	ParticleMass float64 // TotalMass / Count
	LatticeSide  int     // Cube root of Count
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
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse overlays data (which may be empty) on the embedded defaults,
// validates the result and computes derived values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Refresh validates c and recomputes derived values. Call it after changing
// fields in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Physics.Gravity = slices.Clone(c.Physics.Gravity)
	cp.Forces.Passes = slices.Clone(c.Forces.Passes)
	return &cp
}

// Validate checks value ranges. Every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	if _, ok := CubeRoot(c.Particles.Count); !ok {
		return fmt.Errorf("%w: particles.count %d is not a positive perfect cube", ErrInvalid, c.Particles.Count)
	}
	if c.Particles.TotalMass <= 0 {
		return fmt.Errorf("%w: particles.total_mass must be positive", ErrInvalid)
	}
	if c.Particles.Density <= 0 {
		return fmt.Errorf("%w: particles.density must be positive", ErrInvalid)
	}
	if c.Particles.Viscosity < 0 {
		return fmt.Errorf("%w: particles.viscosity must not be negative", ErrInvalid)
	}
	if c.Particles.LatticeOffset < 0 || c.Particles.LatticeSpacing < 0 {
		return fmt.Errorf("%w: lattice offset and spacing must not be negative", ErrInvalid)
	}
	switch c.Particles.StartDomain {
	case StartRight, StartLeft:
	default:
		return fmt.Errorf("%w: particles.start_domain %q", ErrInvalid, c.Particles.StartDomain)
	}
	if c.Grid.Resolution < 1 {
		return fmt.Errorf("%w: grid.resolution must be at least 1", ErrInvalid)
	}
	if c.Domain.SizeX <= 0 || c.Domain.SizeY <= 0 || c.Domain.SizeZ <= 0 {
		return fmt.Errorf("%w: domain sizes must be positive", ErrInvalid)
	}
	if c.Domain.PipeLength < 0 {
		return fmt.Errorf("%w: domain.pipe_length must not be negative", ErrInvalid)
	}
	if !(c.Kernel.Radius > 0) || math.IsInf(c.Kernel.Radius, 0) {
		return fmt.Errorf("%w: kernel.radius must be positive and finite", ErrInvalid)
	}
	if c.Physics.DT <= 0 || math.IsInf(c.Physics.DT, 0) || math.IsNaN(c.Physics.DT) {
		return fmt.Errorf("%w: physics.dt must be positive and finite", ErrInvalid)
	}
	if len(c.Physics.Gravity) != 3 {
		return fmt.Errorf("%w: physics.gravity needs 3 components, got %d", ErrInvalid, len(c.Physics.Gravity))
	}
	if c.Physics.Workers < 0 {
		return fmt.Errorf("%w: physics.workers must not be negative", ErrInvalid)
	}
	for _, p := range c.Forces.Passes {
		if !slices.Contains([]string{PassGravity, PassDensity}, p) {
			return fmt.Errorf("%w: unknown force pass %q", ErrInvalid, p)
		}
	}
	if c.Boundary.Restitution < 0 || c.Boundary.Restitution > 1 {
		return fmt.Errorf("%w: boundary.restitution must be in [0, 1]", ErrInvalid)
	}
	if c.Boundary.PipeHeight < 0 || c.Boundary.PipeHeight > c.Domain.SizeY {
		return fmt.Errorf("%w: boundary.pipe_height must be in [0, domain.size_y]", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Physics.Workers == 0 {
		c.Physics.Workers = 1
	}
	if c.Telemetry.PerfCollectorWindow < 1 {
		c.Telemetry.PerfCollectorWindow = 60
	}

	size := r3.Vec{X: c.Domain.SizeX, Y: c.Domain.SizeY, Z: c.Domain.SizeZ}
	res := float64(c.Grid.Resolution)

	c.Derived.Size = size
	c.Derived.BinWidth = r3.Scale(1/res, size)
	c.Derived.Gravity = r3.Vec{X: c.Physics.Gravity[0], Y: c.Physics.Gravity[1], Z: c.Physics.Gravity[2]}
	c.Derived.ParticleMass = c.Particles.TotalMass / float64(c.Particles.Count)
	c.Derived.LatticeSide, _ = CubeRoot(c.Particles.Count)
}

// CubeRoot returns the integer cube root of n and whether n is a positive perfect cube.
func CubeRoot(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	k := int(math.Round(math.Cbrt(float64(n))))
	return k, k*k*k == n
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
