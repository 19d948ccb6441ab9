package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/twintank/components"
)

// ErrGridResolution is returned when a grid is requested with fewer than one cell per axis.
var ErrGridResolution = errors.New("grid resolution must be at least 1")

// Grid is a fixed-resolution 3-D uniform grid. Each cell holds indices into
// the particle store; cells never own particles.
type Grid struct {
	res   int
	cells [][]int // flat grid of particle index lists, x fastest
}

// NewGrid creates a res x res x res grid.
func NewGrid(res int) (*Grid, error) {
	if res < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrGridResolution, res)
	}

	cells := make([][]int, res*res*res)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &Grid{res: res, cells: cells}, nil
}

// Res returns the number of cells per axis.
func (g *Grid) Res() int {
	return g.res
}

// Clear removes all particle references, keeping cell capacity for the next pass.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// InBounds reports whether (x, y, z) is a valid cell coordinate.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.res && y >= 0 && y < g.res && z >= 0 && z < g.res
}

// Append adds particle idx to cell c. Panics if c is out of range.
func (g *Grid) Append(c components.CellCoord, idx int) {
	i := g.flat(c.X, c.Y, c.Z)
	g.cells[i] = append(g.cells[i], idx)
}

// Cell returns the particle indices in cell c. The slice is only valid until
// the next Clear.
func (g *Grid) Cell(c components.CellCoord) []int {
	return g.cells[g.flat(c.X, c.Y, c.Z)]
}

// at is Cell without the struct wrapper, for the probe loop.
func (g *Grid) at(x, y, z int) []int {
	return g.cells[x+g.res*(y+g.res*z)]
}

// Occupancy returns the total number of references across all cells.
func (g *Grid) Occupancy() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// CellCounts appends the occupancy of every cell to dst.
func (g *Grid) CellCounts(dst []float64) []float64 {
	for _, c := range g.cells {
		dst = append(dst, float64(len(c)))
	}
	return dst
}

func (g *Grid) flat(x, y, z int) int {
	if !g.InBounds(x, y, z) {
		panic(fmt.Sprintf("systems: cell (%d,%d,%d) outside %d^3 grid", x, y, z, g.res))
	}
	return x + g.res*(y+g.res*z)
}

// DualGrid holds one grid per domain.
type DualGrid struct {
	grids [2]*Grid
}

// NewDualGrid creates left and right grids of the same resolution.
func NewDualGrid(res int) (*DualGrid, error) {
	left, err := NewGrid(res)
	if err != nil {
		return nil, err
	}
	right, err := NewGrid(res)
	if err != nil {
		return nil, err
	}

	d := &DualGrid{}
	d.grids[components.DomainLeft] = left
	d.grids[components.DomainRight] = right
	return d, nil
}

// Grid returns the grid for domain d.
func (d *DualGrid) Grid(dom components.Domain) *Grid {
	return d.grids[dom]
}

// Res returns the shared resolution.
func (d *DualGrid) Res() int {
	return d.grids[0].res
}

// Clear empties every cell in both grids.
func (d *DualGrid) Clear() {
	for _, g := range d.grids {
		g.Clear()
	}
}

// Occupancy returns the number of references held by both grids.
func (d *DualGrid) Occupancy() int {
	return d.grids[0].Occupancy() + d.grids[1].Occupancy()
}
