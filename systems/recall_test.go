package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRecallCountsSkippedCells(t *testing.T) {
	const h = 0.2
	store := storeAt(
		r3.Vec{X: 0.59, Y: 0.59, Z: 0.55}, // cell (5,5,5)
		r3.Vec{X: 0.61, Y: 0.71, Z: 0.55}, // cell (6,7,5), an off-diagonal offset
		r3.Vec{X: 0.58, Y: 0.58, Z: 0.55}, // cell (5,5,5)
	)
	grid, homes := categorized(store, 10)
	lists := NewNeighborLists(store.Len())
	NewNeighborSearch(RingCount(h, 10, 1)).Build(lists, grid, homes)

	rep := Recall(store, lists, h)

	assert.Equal(t, 6, rep.Expected)
	assert.Equal(t, 2, rep.Found)
	assert.Equal(t, 4, rep.Missed)
	assert.Equal(t, 2, rep.Candidates)
	assert.InDelta(t, 1.0/3.0, rep.Recall, 1e-12)
	assert.InDelta(t, 1.0, rep.Precision, 1e-12)
}

func TestRecallCompleteOnAxisLattice(t *testing.T) {
	s, err := NewParticleStore(27, Lattice{
		Origin:  r3.Vec{X: 0.35, Y: 0.35, Z: 0.35},
		Spacing: r3.Vec{X: 0.1, Y: 0.1, Z: 0.1},
	}, Material{Mass: 1})
	if err != nil {
		t.Fatal(err)
	}
	grid, homes := categorized(s, 10)
	lists := NewNeighborLists(s.Len())
	// Radius reaches axis neighbours only; those are always probed.
	NewNeighborSearch(RingCount(0.11, 10, 1)).Build(lists, grid, homes)

	rep := Recall(s, lists, 0.11)
	assert.Equal(t, rep.Expected, rep.Found)
	assert.Equal(t, 1.0, rep.Recall)
	assert.Positive(t, rep.Expected)
}

func TestRecallEmptyStore(t *testing.T) {
	rep := Recall(storeAt(), NewNeighborLists(0), 0.1)
	assert.Zero(t, rep.Expected)
	assert.Equal(t, 1.0, rep.Recall)
}
