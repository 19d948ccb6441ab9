package systems

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"
)

// RecallReport compares candidate lists with the exact set of ordered pairs
// (i, j), i != j, closer than the kernel radius.
type RecallReport struct {
	Radius     float64 `csv:"radius"`
	Expected   int     `csv:"expected_pairs"`
	Found      int     `csv:"found_pairs"`
	Missed     int     `csv:"missed_pairs"`
	Candidates int     `csv:"candidates"`
	Recall     float64 `csv:"recall"`
	Precision  float64 `csv:"precision"`
}

// LogValue implements slog.LogValuer.
func (r RecallReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("radius", r.Radius),
		slog.Int("expected", r.Expected),
		slog.Int("found", r.Found),
		slog.Int("missed", r.Missed),
		slog.Int("candidates", r.Candidates),
		slog.Float64("recall", r.Recall),
		slog.Float64("precision", r.Precision),
	)
}

// Recall checks lists against a brute-force O(n^2) pair scan. It is a
// diagnostic and never runs inside Step.
func Recall(store *ParticleStore, lists *NeighborLists, h float64) RecallReport {
	ps := store.Particles()
	n := len(ps)
	h2 := h * h

	rep := RecallReport{Radius: h}
	// stamp[j] == i+1 marks j as a candidate of i.
	stamp := make([]int, n)

	for i := 0; i < n; i++ {
		for _, j := range lists.Of(i) {
			stamp[j] = i + 1
			if j != i {
				rep.Candidates++
			}
		}

		pi := ps[i].Position
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if r3.Norm2(r3.Sub(pi, ps[j].Position)) > h2 {
				continue
			}
			rep.Expected++
			if stamp[j] == i+1 {
				rep.Found++
			}
		}
	}

	rep.Missed = rep.Expected - rep.Found
	if rep.Expected > 0 {
		rep.Recall = float64(rep.Found) / float64(rep.Expected)
	} else {
		rep.Recall = 1
	}
	if rep.Candidates > 0 {
		rep.Precision = float64(rep.Found) / float64(rep.Candidates)
	}
	return rep
}
