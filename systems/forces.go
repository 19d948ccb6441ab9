package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/config"
)

// ForcePass is one stage of the force/density evaluation that runs between
// neighbor search and integration. Passes accumulate into Acceleration.
type ForcePass interface {
	Name() string
	Apply(store *ParticleStore, lists *NeighborLists)
}

// Constraint runs after integration and may correct positions and velocities.
type Constraint interface {
	Name() string
	Apply(store *ParticleStore)
}

// ClearAcceleration zeroes every acceleration so later passes can accumulate.
type ClearAcceleration struct{}

func (ClearAcceleration) Name() string { return "clear" }

func (ClearAcceleration) Apply(store *ParticleStore, _ *NeighborLists) {
	ps := store.Particles()
	for i := range ps {
		ps[i].Acceleration = r3.Vec{}
	}
}

// Gravity adds a constant acceleration to every particle.
type Gravity struct {
	G r3.Vec
}

func (Gravity) Name() string { return config.PassGravity }

func (g Gravity) Apply(store *ParticleStore, _ *NeighborLists) {
	ps := store.Particles()
	for i := range ps {
		ps[i].Acceleration = r3.Add(ps[i].Acceleration, g.G)
	}
}

// DensitySummation recomputes each particle's density from its neighbor
// list with the poly6 kernel. Candidates beyond the support radius
// contribute nothing; the self term at r = 0 is kept.
type DensitySummation struct {
	h2    float64
	coeff float64
}

// NewDensitySummation creates a density pass with support radius h.
func NewDensitySummation(h float64) *DensitySummation {
	return &DensitySummation{
		h2:    h * h,
		coeff: 315.0 / (64.0 * math.Pi * math.Pow(h, 9)),
	}
}

func (*DensitySummation) Name() string { return config.PassDensity }

// Poly6 returns the kernel weight at squared distance r2.
func (d *DensitySummation) Poly6(r2 float64) float64 {
	if r2 >= d.h2 {
		return 0
	}
	x := d.h2 - r2
	return d.coeff * x * x * x
}

func (d *DensitySummation) Apply(store *ParticleStore, lists *NeighborLists) {
	ps := store.Particles()
	for i := range ps {
		pi := ps[i].Position
		rho := 0.0
		for _, j := range lists.Of(i) {
			r2 := r3.Norm2(r3.Sub(pi, ps[j].Position))
			rho += ps[j].Mass * d.Poly6(r2)
		}
		if rho > 0 {
			ps[i].Density = rho
		}
	}
}

// ForcePassesFor builds the pass chain named in cfg, led by ClearAcceleration.
func ForcePassesFor(cfg *config.Config) ([]ForcePass, error) {
	passes := []ForcePass{ClearAcceleration{}}
	for _, name := range cfg.Forces.Passes {
		switch name {
		case config.PassGravity:
			passes = append(passes, Gravity{G: cfg.Derived.Gravity})
		case config.PassDensity:
			passes = append(passes, NewDensitySummation(cfg.Kernel.Radius))
		default:
			return nil, fmt.Errorf("unknown force pass %q", name)
		}
	}
	return passes, nil
}

// Container keeps particles inside the two tanks and the pipe joining them.
// Walls reflect the normal velocity component scaled by the restitution.
type Container struct {
	bounds      Bounds
	pipeHeight  float64
	restitution float64
}

// NewContainer creates the wall constraint for b. The pipe spans
// y in [0, pipeHeight] between the tanks.
func NewContainer(b Bounds, pipeHeight, restitution float64) *Container {
	return &Container{bounds: b, pipeHeight: pipeHeight, restitution: restitution}
}

func (*Container) Name() string { return "container" }

func (c *Container) Apply(store *ParticleStore) {
	size := c.bounds.Size
	pipe := c.bounds.PipeLength
	e := c.restitution

	ps := store.Particles()
	for i := range ps {
		p := &ps[i]

		reflectAxis(&p.Position.X, &p.Velocity.X, -(size.X + pipe), size.X, e)
		reflectAxis(&p.Position.Y, &p.Velocity.Y, 0, size.Y, e)
		reflectAxis(&p.Position.Z, &p.Velocity.Z, 0, size.Z, e)

		// Between the tanks only the pipe is open.
		if p.Position.X > -pipe && p.Position.X < 0 && p.Position.Y > c.pipeHeight {
			if p.Position.X >= -pipe/2 {
				p.Position.X = 0
				if p.Velocity.X < 0 {
					p.Velocity.X = -p.Velocity.X * e
				}
			} else {
				p.Position.X = -pipe
				if p.Velocity.X > 0 {
					p.Velocity.X = -p.Velocity.X * e
				}
			}
		}
	}
}

func reflectAxis(pos, vel *float64, lo, hi, e float64) {
	if *pos < lo {
		*pos = lo
		if *vel < 0 {
			*vel = -*vel * e
		}
	} else if *pos > hi {
		*pos = hi
		if *vel > 0 {
			*vel = -*vel * e
		}
	}
}
