package systems

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
)

// testBounds is the unit twin-tank layout: 1x1x1 containers, pipe length 0.5.
var testBounds = Bounds{Size: r3.Vec{X: 1, Y: 1, Z: 1}, PipeLength: 0.5}

// storeAt builds a store holding exactly the given positions with unit mass.
func storeAt(positions ...r3.Vec) *ParticleStore {
	ps := make([]components.Particle, len(positions))
	for i, p := range positions {
		ps[i] = components.Particle{Position: p, Mass: 1, Density: 1000}
	}
	s := &ParticleStore{particles: ps, initial: make([]components.Particle, len(ps))}
	copy(s.initial, ps)
	return s
}

// randomStore scatters n particles over both tanks, the pipe, and a margin
// past every wall.
func randomStore(n int, seed uint64) *ParticleStore {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	positions := make([]r3.Vec, n)
	for i := range positions {
		positions[i] = r3.Vec{
			X: -2.7 + rng.Float64()*4.0,
			Y: -0.2 + rng.Float64()*1.4,
			Z: -0.2 + rng.Float64()*1.4,
		}
	}
	return storeAt(positions...)
}

// cellCentre returns the centre of cell (x, y, z) in the right container for
// a grid of res cells per unit axis.
func cellCentre(res, x, y, z int) r3.Vec {
	w := 1 / float64(res)
	return r3.Vec{X: (float64(x) + 0.5) * w, Y: (float64(y) + 0.5) * w, Z: (float64(z) + 0.5) * w}
}

// categorized bins store into a fresh grid of resolution res.
func categorized(store *ParticleStore, res int) (*DualGrid, []components.Home) {
	grid, err := NewDualGrid(res)
	if err != nil {
		panic(err)
	}
	homes := NewCategorizer(testBounds, res).Categorize(store, grid, nil)
	return grid, homes
}
