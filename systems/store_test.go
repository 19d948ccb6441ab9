package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/config"
)

func TestNewParticleStoreLattice(t *testing.T) {
	lat := Lattice{Origin: r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}, Spacing: r3.Vec{X: 0.2, Y: 0.2, Z: 0.2}}
	mat := Material{Mass: 0.5, Density: 1000, Viscosity: 0.01}

	s, err := NewParticleStore(8, lat, mat)
	require.NoError(t, err)
	require.Equal(t, 8, s.Len())
	assert.Equal(t, 2, s.Side())

	tests := []struct {
		idx  int
		want r3.Vec
	}{
		{0, r3.Vec{X: 0.1, Y: 0.1, Z: 0.1}},
		{1, r3.Vec{X: 0.3, Y: 0.1, Z: 0.1}},
		{2, r3.Vec{X: 0.1, Y: 0.3, Z: 0.1}},
		{4, r3.Vec{X: 0.1, Y: 0.1, Z: 0.3}},
		{7, r3.Vec{X: 0.3, Y: 0.3, Z: 0.3}},
	}
	for _, tt := range tests {
		got := s.At(tt.idx).Position
		assert.InDelta(t, tt.want.X, got.X, 1e-12, "particle %d x", tt.idx)
		assert.InDelta(t, tt.want.Y, got.Y, 1e-12, "particle %d y", tt.idx)
		assert.InDelta(t, tt.want.Z, got.Z, 1e-12, "particle %d z", tt.idx)
	}

	for _, p := range s.Particles() {
		assert.Equal(t, 0.5, p.Mass)
		assert.Equal(t, 1000.0, p.Density)
		assert.Equal(t, 0.01, p.Viscosity)
		assert.Equal(t, r3.Vec{}, p.Velocity)
	}
}

func TestNewParticleStoreRejectsNonCube(t *testing.T) {
	for _, n := range []int{0, 2, 10, -27} {
		_, err := NewParticleStore(n, Lattice{}, Material{})
		assert.ErrorIs(t, err, ErrParticleCount, "n=%d", n)
	}
}

func TestParticleStoreReset(t *testing.T) {
	s, err := NewParticleStore(1, Lattice{Origin: r3.Vec{X: 0.2}}, Material{Mass: 1})
	require.NoError(t, err)

	s.SetPosition(0, r3.Vec{X: 5, Y: 5})
	s.SetVelocity(0, r3.Vec{Y: -1})
	s.Reset()

	assert.Equal(t, r3.Vec{X: 0.2}, s.At(0).Position)
	assert.Equal(t, r3.Vec{}, s.At(0).Velocity)
}

func TestParticleStorePositionsAppends(t *testing.T) {
	s := storeAt(r3.Vec{X: 1}, r3.Vec{X: 2})
	buf := []r3.Vec{{Z: 9}}

	got := s.Positions(buf[:0])
	assert.Equal(t, []r3.Vec{{X: 1}, {X: 2}}, got)
}

func TestStoreFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	s, err := NewParticleStoreFromConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, 1000, s.Len())

	first, last := s.At(0).Position, s.At(999).Position
	assert.InDelta(t, 0.01, first.X, 1e-12)
	assert.InDelta(t, 0.01+9*0.098, last.X, 1e-9)
	assert.InDelta(t, 0.01+9*0.098, last.Y, 1e-9)
	assert.InDelta(t, cfg.Derived.ParticleMass, s.At(0).Mass, 1e-15)

	// Every particle starts inside the right container.
	c := NewCategorizer(BoundsFor(cfg), cfg.Grid.Resolution)
	for i := 0; i < s.Len(); i++ {
		p := s.At(i).Position
		assert.Equal(t, "right", c.DomainOf(p).String())
		assert.True(t, p.X > 0 && p.X < 1 && p.Y > 0 && p.Y < 1)
	}
}

func TestLatticeForLeftStart(t *testing.T) {
	cfg, err := config.Parse([]byte("particles: {start_domain: left, lattice_spacing: 0.05}"))
	require.NoError(t, err)

	lat := LatticeFor(cfg)
	assert.InDelta(t, 0.01-1.5, lat.Origin.X, 1e-12)
	assert.InDelta(t, 0.01, lat.Origin.Y, 1e-12)
	assert.Equal(t, r3.Vec{X: 0.05, Y: 0.05, Z: 0.05}, lat.Spacing)
}
