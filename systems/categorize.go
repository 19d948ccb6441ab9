package systems

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
	"github.com/pthm-cable/twintank/config"
)

// Bounds describes the physical layout of the two containers. Each container
// spans Size; the pipe joining them is centred at x = -PipeLength/2, so the
// right container starts at x = 0 and the left one at x = -(Size.X + PipeLength).
type Bounds struct {
	Size       r3.Vec
	PipeLength float64
}

// BoundsFor returns the container layout described by cfg.
func BoundsFor(cfg *config.Config) Bounds {
	return Bounds{Size: cfg.Derived.Size, PipeLength: cfg.Domain.PipeLength}
}

// Categorizer assigns particles to a domain and a cell within that domain's grid.
type Categorizer struct {
	bounds Bounds
	res    int
	width  r3.Vec // bin width per axis
}

// NewCategorizer creates a categorizer for res cells per axis.
func NewCategorizer(b Bounds, res int) *Categorizer {
	r := float64(res)
	return &Categorizer{
		bounds: b,
		res:    res,
		width:  r3.Vec{X: b.Size.X / r, Y: b.Size.Y / r, Z: b.Size.Z / r},
	}
}

// BinWidth returns the physical cell size per axis.
func (c *Categorizer) BinWidth() r3.Vec {
	return c.width
}

// DomainOf returns DomainRight when x >= -PipeLength/2, DomainLeft otherwise.
func (c *Categorizer) DomainOf(p r3.Vec) components.Domain {
	if p.X >= -c.bounds.PipeLength/2 {
		return components.DomainRight
	}
	return components.DomainLeft
}

// CellOf returns the clamped cell coordinate of p inside domain d's grid.
// Left-domain x is shifted by Size.X + PipeLength so both containers share
// the [0, Size.X) index space.
func (c *Categorizer) CellOf(d components.Domain, p r3.Vec) components.CellCoord {
	x := p.X
	if d == components.DomainLeft {
		x += c.bounds.Size.X + c.bounds.PipeLength
	}
	return components.CellCoord{
		X: binIndex(x, c.width.X, c.res),
		Y: binIndex(p.Y, c.width.Y, c.res),
		Z: binIndex(p.Z, c.width.Z, c.res),
	}
}

// Locate returns the domain and cell of p.
func (c *Categorizer) Locate(p r3.Vec) components.Home {
	d := c.DomainOf(p)
	return components.Home{Domain: d, Cell: c.CellOf(d, p)}
}

// Categorize clears grid and re-bins every particle in store. The home of
// each particle is written to homes, which is grown if needed and returned.
func (c *Categorizer) Categorize(store *ParticleStore, grid *DualGrid, homes []components.Home) []components.Home {
	if grid.Res() != c.res {
		panic(fmt.Sprintf("systems: categorizer resolution %d does not match grid %d", c.res, grid.Res()))
	}

	grid.Clear()

	n := store.Len()
	if cap(homes) < n {
		homes = make([]components.Home, n)
	}
	homes = homes[:n]

	for i, p := range store.Particles() {
		h := c.Locate(p.Position)
		homes[i] = h
		grid.Grid(h.Domain).Append(h.Cell, i)
	}

	return homes
}

// binIndex returns floor(v/width) clamped to [0, res-1]. Positions past the
// walls are expected after force steps and land in the boundary cells.
func binIndex(v, width float64, res int) int {
	f := math.Floor(v / width)
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f >= float64(res):
		return res - 1
	}
	return int(f)
}
