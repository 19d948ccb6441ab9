package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/twintank/components"
)

func TestNewGridRejectsZeroResolution(t *testing.T) {
	_, err := NewGrid(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGridResolution)

	_, err = NewDualGrid(-3)
	assert.ErrorIs(t, err, ErrGridResolution)
}

func TestGridAppendClear(t *testing.T) {
	g, err := NewGrid(4)
	require.NoError(t, err)

	c := components.CellCoord{X: 1, Y: 2, Z: 3}
	g.Append(c, 7)
	g.Append(c, 9)
	g.Append(components.CellCoord{}, 1)

	assert.Equal(t, []int{7, 9}, g.Cell(c))
	assert.Equal(t, 3, g.Occupancy())

	counts := g.CellCounts(nil)
	assert.Len(t, counts, 64)
	assert.Equal(t, 2.0, counts[1+4*(2+4*3)])

	g.Clear()
	assert.Zero(t, g.Occupancy())
	assert.Empty(t, g.Cell(c))
}

func TestGridAppendOutOfRangePanics(t *testing.T) {
	g, err := NewGrid(2)
	require.NoError(t, err)

	assert.Panics(t, func() { g.Append(components.CellCoord{X: 2}, 0) })
	assert.Panics(t, func() { g.Append(components.CellCoord{Y: -1}, 0) })
}

func TestGridInBounds(t *testing.T) {
	g, err := NewGrid(3)
	require.NoError(t, err)

	tests := []struct {
		x, y, z int
		want    bool
	}{
		{0, 0, 0, true},
		{2, 2, 2, true},
		{3, 0, 0, false},
		{0, -1, 0, false},
		{0, 0, 3, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.InBounds(tt.x, tt.y, tt.z), "InBounds(%d,%d,%d)", tt.x, tt.y, tt.z)
	}
}

func TestDualGridDomainsAreIndependent(t *testing.T) {
	d, err := NewDualGrid(2)
	require.NoError(t, err)

	d.Grid(components.DomainLeft).Append(components.CellCoord{}, 0)
	d.Grid(components.DomainRight).Append(components.CellCoord{X: 1}, 1)
	d.Grid(components.DomainRight).Append(components.CellCoord{X: 1}, 2)

	assert.Equal(t, 2, d.Res())
	assert.Equal(t, 1, d.Grid(components.DomainLeft).Occupancy())
	assert.Equal(t, 2, d.Grid(components.DomainRight).Occupancy())
	assert.Equal(t, 3, d.Occupancy())

	d.Clear()
	assert.Zero(t, d.Occupancy())
}
