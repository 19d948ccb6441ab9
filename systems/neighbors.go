package systems

import (
	"math"

	"github.com/pthm-cable/twintank/components"
)

// RingCount returns the number of cell rings needed to cover kernel radius h
// with res cells across sizeX: ceil(h*res/sizeX). It is an upper bound,
// capped at res since no probe at ring res or beyond is ever in bounds.
func RingCount(h float64, res int, sizeX float64) int {
	if !(h > 0) || !(sizeX > 0) || res < 1 {
		return 0
	}
	r := h * float64(res) / sizeX
	if r >= float64(res) {
		return res
	}
	return int(math.Ceil(r))
}

// NeighborLists holds one candidate list per particle. Lists are rebuilt
// every step; their backing arrays are reused.
type NeighborLists struct {
	lists [][]int
}

// NewNeighborLists allocates lists for n particles.
func NewNeighborLists(n int) *NeighborLists {
	l := &NeighborLists{}
	l.resize(n)
	return l
}

// Len returns the number of particles covered.
func (l *NeighborLists) Len() int {
	return len(l.lists)
}

// Of returns the candidate list of particle i. It may contain i itself.
func (l *NeighborLists) Of(i int) []int {
	return l.lists[i]
}

// Lengths appends the length of every list to dst.
func (l *NeighborLists) Lengths(dst []float64) []float64 {
	for _, nl := range l.lists {
		dst = append(dst, float64(len(nl)))
	}
	return dst
}

// Reset empties every list, keeping capacity.
func (l *NeighborLists) Reset() {
	for i := range l.lists {
		l.lists[i] = l.lists[i][:0]
	}
}

func (l *NeighborLists) resize(n int) {
	if cap(l.lists) < n {
		grown := make([][]int, n)
		copy(grown, l.lists)
		l.lists = grown
	}
	l.lists = l.lists[:n]
}

// NeighborBuilder fills neighbor lists from a categorized grid.
type NeighborBuilder interface {
	Build(lists *NeighborLists, grid *DualGrid, homes []components.Home)
}

// NeighborSearch collects candidates by expanding ring by ring from a home
// cell. Each ring probes the six axis cells, the four x-y diagonals and the
// eight corners at that offset, so a query visits O(rings) cells instead of
// the full (2R+1)^3 cube. Off-diagonal cells such as (+2,+1,0) are skipped;
// callers needing an exact sphere must filter by distance themselves.
type NeighborSearch struct {
	rings int
}

// NewNeighborSearch creates a search covering the given number of rings.
func NewNeighborSearch(rings int) *NeighborSearch {
	if rings < 0 {
		rings = 0
	}
	return &NeighborSearch{rings: rings}
}

// Rings returns the ring count.
func (s *NeighborSearch) Rings() int {
	return s.rings
}

var ringSigns = [2]int{-1, 1}

// Query appends every particle referenced by the probed cells around home to
// dst and returns it. Home-cell particles come first. No de-duplication.
func (s *NeighborSearch) Query(dst []int, grid *Grid, home components.CellCoord) []int {
	x, y, z := home.X, home.Y, home.Z
	dst = append(dst, grid.at(x, y, z)...)

	for i := 1; i <= s.rings; i++ {
		var inX, inY, inZ [2]bool
		hit := false

		for k, sign := range ringSigns {
			d := sign * i
			if grid.InBounds(x+d, y, z) {
				inX[k] = true
				dst = append(dst, grid.at(x+d, y, z)...)
			}
			if grid.InBounds(x, y+d, z) {
				inY[k] = true
				dst = append(dst, grid.at(x, y+d, z)...)
			}
			if grid.InBounds(x, y, z+d) {
				inZ[k] = true
				dst = append(dst, grid.at(x, y, z+d)...)
			}
			hit = hit || inX[k] || inY[k] || inZ[k]
		}
		if !hit {
			// Every later ring is further out on all axes.
			break
		}

		for a, sx := range ringSigns {
			if !inX[a] {
				continue
			}
			for b, sy := range ringSigns {
				if !inY[b] {
					continue
				}
				dx, dy := sx*i, sy*i
				dst = append(dst, grid.at(x+dx, y+dy, z)...)

				for c, sz := range ringSigns {
					if inZ[c] {
						dst = append(dst, grid.at(x+dx, y+dy, z+sz*i)...)
					}
				}
			}
		}
	}

	return dst
}

// Build fills lists for every particle sequentially.
func (s *NeighborSearch) Build(lists *NeighborLists, grid *DualGrid, homes []components.Home) {
	lists.resize(len(homes))
	s.buildRange(lists, grid, homes, 0, len(homes))
}

// buildRange fills lists[i0:i1]. Each index is written by exactly one caller,
// which keeps sharded builds race-free.
func (s *NeighborSearch) buildRange(lists *NeighborLists, grid *DualGrid, homes []components.Home, i0, i1 int) {
	for i := i0; i < i1; i++ {
		h := homes[i]
		lists.lists[i] = s.Query(lists.lists[i][:0], grid.Grid(h.Domain), h.Cell)
	}
}
