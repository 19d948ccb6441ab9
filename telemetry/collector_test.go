package telemetry

import (
	"math"
	"testing"
)

func TestCollector_Windowing(t *testing.T) {
	c := NewCollector(1.0, 0.25)

	if got := c.WindowDurationTicks(); got != 4 {
		t.Fatalf("WindowDurationTicks = %d, want 4", got)
	}

	for tick := int32(1); tick <= 3; tick++ {
		c.RecordStep()
		if c.ShouldFlush(tick) {
			t.Fatalf("unexpected flush at tick %d", tick)
		}
	}
	c.RecordStep()
	if !c.ShouldFlush(4) {
		t.Fatal("expected flush at tick 4")
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(1.0, 0.5)
	c.RecordStep()
	c.RecordStep()
	c.RecordTransfers(3)
	c.RecordTransfers(1)

	stats := c.Flush(2, GridSample{
		LeftCount:       4,
		RightCount:      6,
		CellCounts:      []float64{0, 5, 0, 5},
		NeighborLengths: []float64{1, 2, 3, 4, 5},
		KineticEnergy:   0.75,
		MaxSpeed:        2,
		MinY:            0.01,
		MeanDensity:     998,
	})

	if stats.WindowStartTick != 0 || stats.WindowEndTick != 2 {
		t.Errorf("window = [%d, %d], want [0, 2]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-12 {
		t.Errorf("SimTimeSec = %v, want 1", stats.SimTimeSec)
	}
	if stats.Steps != 2 || stats.Transfers != 4 {
		t.Errorf("steps/transfers = %d/%d, want 2/4", stats.Steps, stats.Transfers)
	}
	if stats.LeftCount != 4 || stats.RightCount != 6 {
		t.Errorf("counts = %d/%d, want 4/6", stats.LeftCount, stats.RightCount)
	}
	if stats.OccupiedCells != 2 || stats.CellMax != 5 || stats.CellMean != 2.5 {
		t.Errorf("cells = %d occupied, max %v, mean %v", stats.OccupiedCells, stats.CellMax, stats.CellMean)
	}
	if stats.NeighborMean != 3 || stats.NeighborP50 != 3 || stats.NeighborMax != 5 {
		t.Errorf("neighbors = mean %v, p50 %v, max %v", stats.NeighborMean, stats.NeighborP50, stats.NeighborMax)
	}
	if stats.KineticEnergy != 0.75 || stats.MinY != 0.01 {
		t.Errorf("fluid state not copied: %+v", stats)
	}

	// Counters reset for the next window
	next := c.Flush(4, GridSample{})
	if next.Steps != 0 || next.Transfers != 0 || next.WindowStartTick != 2 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollector_MinimumOneTick(t *testing.T) {
	c := NewCollector(0.001, 0.01)
	if got := c.WindowDurationTicks(); got != 1 {
		t.Errorf("WindowDurationTicks = %d, want 1", got)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	c.RecordStep()
	c.RecordTransfers(5)
	c.Reset(100)

	if c.ShouldFlush(105) {
		t.Error("window should restart at tick 100")
	}
	stats := c.Flush(110, GridSample{})
	if stats.WindowStartTick != 100 || stats.Steps != 0 || stats.Transfers != 0 {
		t.Errorf("reset did not clear window: %+v", stats)
	}
}
