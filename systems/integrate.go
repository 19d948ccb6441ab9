package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
)

// Integrate advances one particle by h with semi-implicit Euler:
// velocity first, then position from the updated velocity.
func Integrate(p *components.Particle, h float64) {
	p.Velocity = r3.Add(p.Velocity, r3.Scale(h, p.Acceleration))
	p.Position = r3.Add(p.Position, r3.Scale(h, p.Velocity))
}

// IntegrateAll advances every particle in store by h.
func IntegrateAll(store *ParticleStore, h float64) {
	ps := store.Particles()
	for i := range ps {
		Integrate(&ps[i], h)
	}
}
