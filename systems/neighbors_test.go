package systems

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
)

func TestRingCount(t *testing.T) {
	tests := []struct {
		name  string
		h     float64
		res   int
		sizeX float64
		want  int
	}{
		{"one bin", 0.1, 10, 1, 1},
		{"rounds up", 0.25, 10, 1, 3},
		{"coarse grid", 0.5, 4, 1, 2},
		{"whole grid", 1, 10, 1, 10},
		{"beyond grid", 5, 10, 1, 10},
		{"huge radius", 1e300, 10, 1, 10},
		{"infinite radius", math.Inf(1), 10, 1, 10},
		{"nan radius", math.NaN(), 10, 1, 0},
		{"zero radius", 0, 10, 1, 0},
		{"zero resolution", 0.1, 0, 1, 0},
		{"zero width", 1, 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RingCount(tt.h, tt.res, tt.sizeX))
		})
	}
}

func TestNeighborScenarioNearOrigin(t *testing.T) {
	store := storeAt(
		r3.Vec{X: 0.01, Y: 0.01, Z: 0.01},
		r3.Vec{X: 0.02, Y: 0.02, Z: 0.02},
	)
	grid, homes := categorized(store, 10)

	want := components.Home{Domain: components.DomainRight}
	assert.Equal(t, want, homes[0])
	assert.Equal(t, want, homes[1])

	lists := NewNeighborLists(store.Len())
	NewNeighborSearch(RingCount(0.1, 10, 1)).Build(lists, grid, homes)

	assert.Contains(t, lists.Of(0), 1)
	assert.Contains(t, lists.Of(1), 0)
	assert.Contains(t, lists.Of(0), 0, "candidate lists include the particle itself")
}

func TestQueryRingZeroIsHomeCell(t *testing.T) {
	store := randomStore(1500, 3)
	grid, homes := categorized(store, 5)
	search := NewNeighborSearch(0)

	for i, h := range homes {
		got := search.Query(nil, grid.Grid(h.Domain), h.Cell)
		assert.Equal(t, grid.Grid(h.Domain).Cell(h.Cell), got, "particle %d", i)
		assert.Contains(t, got, i)
	}
}

func TestQueryProbePattern(t *testing.T) {
	const res = 10
	cells := []components.CellCoord{
		{X: 5, Y: 5, Z: 5}, // 0: home
		{X: 6, Y: 5, Z: 5}, // 1: axis, ring 1
		{X: 5, Y: 7, Z: 5}, // 2: axis, ring 2
		{X: 4, Y: 6, Z: 5}, // 3: x-y diagonal, ring 1
		{X: 6, Y: 6, Z: 6}, // 4: corner, ring 1
		{X: 7, Y: 7, Z: 3}, // 5: corner, ring 2
		{X: 7, Y: 6, Z: 5}, // 6: off-diagonal, never probed
		{X: 5, Y: 6, Z: 6}, // 7: y-z diagonal, never probed
		{X: 8, Y: 5, Z: 5}, // 8: axis, ring 3
	}
	positions := make([]r3.Vec, len(cells))
	for i, c := range cells {
		positions[i] = cellCentre(res, c.X, c.Y, c.Z)
	}
	grid, homes := categorized(storeAt(positions...), res)
	for i, c := range cells {
		require.Equal(t, c, homes[i].Cell)
	}

	got := NewNeighborSearch(2).Query(nil, grid.Grid(components.DomainRight), cells[0])
	slices.Sort(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestQueryDiagonalNeedsBothAxes(t *testing.T) {
	const res = 4
	// Home at the grid corner: only the positive side of each axis exists.
	cells := []components.CellCoord{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 1},
		{X: 3, Y: 3, Z: 3},
	}
	positions := make([]r3.Vec, len(cells))
	for i, c := range cells {
		positions[i] = cellCentre(res, c.X, c.Y, c.Z)
	}
	grid, _ := categorized(storeAt(positions...), res)

	got := NewNeighborSearch(10).Query(nil, grid.Grid(components.DomainRight), cells[0])
	slices.Sort(got)
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func TestNeighborMonotonicInRadius(t *testing.T) {
	store := randomStore(1200, 4)
	grid, homes := categorized(store, 10)

	radii := []float64{0.05, 0.1, 0.25, 0.4, 1e18, 1e300}
	var prev *NeighborLists
	prevRings := -1
	for _, h := range radii {
		rings := RingCount(h, 10, testBounds.Size.X)
		require.GreaterOrEqual(t, rings, prevRings)

		lists := NewNeighborLists(store.Len())
		NewNeighborSearch(rings).Build(lists, grid, homes)

		if prev != nil {
			for i := 0; i < store.Len(); i++ {
				for _, j := range prev.Of(i) {
					require.Contains(t, lists.Of(i), j, "radius %v dropped neighbor %d of %d", h, j, i)
				}
			}
		}
		prev, prevRings = lists, rings
	}
}

func TestNeighborsStayInDomain(t *testing.T) {
	store := randomStore(800, 5)
	grid, homes := categorized(store, 8)
	lists := NewNeighborLists(store.Len())
	NewNeighborSearch(3).Build(lists, grid, homes)

	for i := 0; i < store.Len(); i++ {
		for _, j := range lists.Of(i) {
			assert.Equal(t, homes[i].Domain, homes[j].Domain)
		}
	}
}

func TestNeighborListsLengths(t *testing.T) {
	store := storeAt(r3.Vec{X: 0.05}, r3.Vec{X: 0.06}, r3.Vec{X: 0.95, Y: 0.95, Z: 0.95})
	grid, homes := categorized(store, 10)
	lists := NewNeighborLists(0)
	NewNeighborSearch(1).Build(lists, grid, homes)

	require.Equal(t, 3, lists.Len())
	assert.Equal(t, []float64{2, 2, 1}, lists.Lengths(nil))

	lists.Reset()
	require.Equal(t, 3, lists.Len())
	assert.Equal(t, []float64{0, 0, 0}, lists.Lengths(nil))
}

func BenchmarkNeighborBuild(b *testing.B) {
	store := randomStore(8000, 6)
	grid, homes := categorized(store, 16)
	lists := NewNeighborLists(store.Len())
	search := NewNeighborSearch(RingCount(0.1, 16, 1))

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		search.Build(lists, grid, homes)
	}
}
