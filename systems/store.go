// Package systems implements the engine passes: binning, neighbor search,
// force passes and integration.
package systems

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
	"github.com/pthm-cable/twintank/config"
)

// ErrParticleCount is returned when the particle count does not fit the lattice layout.
var ErrParticleCount = errors.New("particle count must be a positive perfect cube")

// Lattice describes the initial packed particle layout.
type Lattice struct {
	Origin  r3.Vec // position of particle 0
	Spacing r3.Vec // distance between lattice neighbours per axis
}

// Material holds the per-particle constants assigned on initialization.
type Material struct {
	Mass      float64
	Density   float64
	Viscosity float64
}

// ParticleStore owns the canonical particle state. Grid cells and neighbor
// lists refer to particles by their index in this store.
type ParticleStore struct {
	particles []components.Particle
	initial   []components.Particle
	side      int
}

// NewParticleStore lays n particles out on a side x side x side lattice.
// n must be a perfect cube.
func NewParticleStore(n int, lat Lattice, mat Material) (*ParticleStore, error) {
	side, ok := config.CubeRoot(n)
	if !ok {
		return nil, fmt.Errorf("%w: got %d", ErrParticleCount, n)
	}

	s := &ParticleStore{
		particles: make([]components.Particle, n),
		initial:   make([]components.Particle, n),
		side:      side,
	}

	for k := 0; k < side; k++ {
		for j := 0; j < side; j++ {
			for i := 0; i < side; i++ {
				idx := i + side*(j+side*k)
				s.initial[idx] = components.Particle{
					Position: r3.Vec{
						X: lat.Origin.X + lat.Spacing.X*float64(i),
						Y: lat.Origin.Y + lat.Spacing.Y*float64(j),
						Z: lat.Origin.Z + lat.Spacing.Z*float64(k),
					},
					Mass:      mat.Mass,
					Density:   mat.Density,
					Viscosity: mat.Viscosity,
				}
			}
		}
	}
	copy(s.particles, s.initial)

	return s, nil
}

// NewParticleStoreFromConfig builds the store described by cfg.
func NewParticleStoreFromConfig(cfg *config.Config) (*ParticleStore, error) {
	mat := Material{
		Mass:      cfg.Derived.ParticleMass,
		Density:   cfg.Particles.Density,
		Viscosity: cfg.Particles.Viscosity,
	}
	return NewParticleStore(cfg.Particles.Count, LatticeFor(cfg), mat)
}

// LatticeFor derives the initial lattice from cfg. With no explicit spacing
// the lattice spreads evenly over the start container, keeping the offset
// clear on both sides of every axis.
func LatticeFor(cfg *config.Config) Lattice {
	off := cfg.Particles.LatticeOffset
	size := cfg.Derived.Size
	side := float64(cfg.Derived.LatticeSide)

	origin := r3.Vec{X: off, Y: off, Z: off}
	if cfg.Particles.StartDomain == config.StartLeft {
		origin.X -= size.X + cfg.Domain.PipeLength
	}

	var spacing r3.Vec
	if cfg.Particles.LatticeSpacing > 0 {
		d := cfg.Particles.LatticeSpacing
		spacing = r3.Vec{X: d, Y: d, Z: d}
	} else {
		spacing = r3.Vec{
			X: (size.X - 2*off) / side,
			Y: (size.Y - 2*off) / side,
			Z: (size.Z - 2*off) / side,
		}
	}

	return Lattice{Origin: origin, Spacing: spacing}
}

// Len returns the number of particles.
func (s *ParticleStore) Len() int {
	return len(s.particles)
}

// Side returns the lattice side length.
func (s *ParticleStore) Side() int {
	return s.side
}

// At returns a mutable pointer to particle i.
func (s *ParticleStore) At(i int) *components.Particle {
	return &s.particles[i]
}

// Particles exposes the backing slice. Callers may mutate elements but must
// not append.
func (s *ParticleStore) Particles() []components.Particle {
	return s.particles
}

// Positions appends every particle position to dst and returns it.
// Reuse dst across frames to avoid allocations.
func (s *ParticleStore) Positions(dst []r3.Vec) []r3.Vec {
	for i := range s.particles {
		dst = append(dst, s.particles[i].Position)
	}
	return dst
}

// SetPosition overwrites the position of particle i.
func (s *ParticleStore) SetPosition(i int, p r3.Vec) {
	s.particles[i].Position = p
}

// SetVelocity overwrites the velocity of particle i.
func (s *ParticleStore) SetVelocity(i int, v r3.Vec) {
	s.particles[i].Velocity = v
}

// Reset restores the initial lattice state.
func (s *ParticleStore) Reset() {
	copy(s.particles, s.initial)
}
