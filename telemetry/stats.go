package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Steps           int     `csv:"steps"`

	// Domain populations at window end
	LeftCount  int `csv:"left"`
	RightCount int `csv:"right"`

	// Particles whose domain changed between consecutive steps
	Transfers int `csv:"transfers"`

	// Cell occupancy across both grids (sampled at window end)
	OccupiedCells int     `csv:"occupied_cells"`
	CellMean      float64 `csv:"cell_mean"`
	CellStd       float64 `csv:"cell_std"`
	CellMax       float64 `csv:"cell_max"`

	// Candidate list lengths (sampled at window end)
	NeighborMean float64 `csv:"neighbor_mean"`
	NeighborStd  float64 `csv:"neighbor_std"`
	NeighborP10  float64 `csv:"neighbor_p10"`
	NeighborP50  float64 `csv:"neighbor_p50"`
	NeighborP90  float64 `csv:"neighbor_p90"`
	NeighborMax  float64 `csv:"neighbor_max"`

	// Fluid state
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxSpeed      float64 `csv:"max_speed"`
	MinY          float64 `csv:"min_y"`
	MeanDensity   float64 `csv:"mean_density"`
}

// Summary describes a distribution of values.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Summarize computes the population mean, standard deviation, percentiles
// and maximum of values. values is not modified.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Summary{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  floats.Max(values),
	}
}

// countNonZero returns the number of non-zero entries.
func countNonZero(values []float64) int {
	n := 0
	for _, v := range values {
		if v != 0 {
			n++
		}
	}
	return n
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("steps", s.Steps),
		slog.Int("left", s.LeftCount),
		slog.Int("right", s.RightCount),
		slog.Int("transfers", s.Transfers),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Float64("cell_mean", s.CellMean),
		slog.Float64("cell_std", s.CellStd),
		slog.Float64("cell_max", s.CellMax),
		slog.Float64("neighbor_mean", s.NeighborMean),
		slog.Float64("neighbor_std", s.NeighborStd),
		slog.Float64("neighbor_p10", s.NeighborP10),
		slog.Float64("neighbor_p50", s.NeighborP50),
		slog.Float64("neighbor_p90", s.NeighborP90),
		slog.Float64("neighbor_max", s.NeighborMax),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("min_y", s.MinY),
		slog.Float64("mean_density", s.MeanDensity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"left", s.LeftCount,
		"right", s.RightCount,
		"transfers", s.Transfers,
		"occupied_cells", s.OccupiedCells,
		"cell_max", s.CellMax,
		"neighbor_mean", s.NeighborMean,
		"neighbor_p90", s.NeighborP90,
		"neighbor_max", s.NeighborMax,
		"kinetic_energy", s.KineticEnergy,
		"max_speed", s.MaxSpeed,
		"min_y", s.MinY,
	)
}
