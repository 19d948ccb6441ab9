package telemetry

// GridSample is the engine state the Collector needs at a window boundary.
type GridSample struct {
	LeftCount, RightCount int

	CellCounts      []float64 // occupancy of every cell in both grids
	NeighborLengths []float64 // candidate list length per particle

	KineticEnergy float64
	MaxSpeed      float64
	MinY          float64
	MeanDensity   float64
}

// Collector accumulates step events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	steps     int
	transfers int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordStep records one completed step.
func (c *Collector) RecordStep() {
	c.steps++
}

// RecordTransfers records particles that moved to the other domain.
func (c *Collector) RecordTransfers(n int) {
	c.transfers += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample GridSample) WindowStats {
	cells := Summarize(sample.CellCounts)
	neighbors := Summarize(sample.NeighborLengths)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Steps:           c.steps,

		LeftCount:  sample.LeftCount,
		RightCount: sample.RightCount,
		Transfers:  c.transfers,

		OccupiedCells: countNonZero(sample.CellCounts),
		CellMean:      cells.Mean,
		CellStd:       cells.Std,
		CellMax:       cells.Max,

		NeighborMean: neighbors.Mean,
		NeighborStd:  neighbors.Std,
		NeighborP10:  neighbors.P10,
		NeighborP50:  neighbors.P50,
		NeighborP90:  neighbors.P90,
		NeighborMax:  neighbors.Max,

		KineticEnergy: sample.KineticEnergy,
		MaxSpeed:      sample.MaxSpeed,
		MinY:          sample.MinY,
		MeanDensity:   sample.MeanDensity,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.steps = 0
	c.transfers = 0

	return stats
}

// Reset restarts windowing at tick.
func (c *Collector) Reset(tick int32) {
	c.windowStartTick = tick
	c.steps = 0
	c.transfers = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
