package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/twintank/components"
	"github.com/pthm-cable/twintank/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (e *Engine) flushTelemetry() {
	if !e.collector.ShouldFlush(e.tick) {
		return
	}

	stats := e.collector.Flush(e.tick, e.sample())
	perfStats := e.perfCollector.Stats()

	if e.statsCallback != nil {
		e.statsCallback(stats)
	}

	if e.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if e.outputManager != nil {
		if err := e.outputManager.WriteStats(stats); err != nil {
			slog.Error("failed to write stats", "error", err)
		}
		if err := e.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range e.bookmarkDetector.Check(stats) {
		if e.logStats {
			bm.LogBookmark()
		}

		if e.outputManager != nil {
			if err := e.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		// Save snapshot on bookmark
		if e.snapshotDir != "" {
			e.saveSnapshot(&bm)
		}
	}
}

// sample collects the grid and fluid state for a stats window.
func (e *Engine) sample() telemetry.GridSample {
	e.cellCounts = e.cellCounts[:0]
	for _, dom := range components.Domains {
		e.cellCounts = e.grid.Grid(dom).CellCounts(e.cellCounts)
	}
	e.neighborLen = e.lists.Lengths(e.neighborLen[:0])

	s := telemetry.GridSample{
		LeftCount:       e.grid.Grid(components.DomainLeft).Occupancy(),
		RightCount:      e.grid.Grid(components.DomainRight).Occupancy(),
		CellCounts:      e.cellCounts,
		NeighborLengths: e.neighborLen,
		MinY:            math.Inf(1),
	}

	ps := e.store.Particles()
	var densitySum float64
	for i := range ps {
		p := &ps[i]
		v2 := p.Velocity.X*p.Velocity.X + p.Velocity.Y*p.Velocity.Y + p.Velocity.Z*p.Velocity.Z
		s.KineticEnergy += 0.5 * p.Mass * v2
		s.MaxSpeed = math.Max(s.MaxSpeed, math.Sqrt(v2))
		s.MinY = math.Min(s.MinY, p.Position.Y)
		densitySum += p.Density
	}
	if len(ps) > 0 {
		s.MeanDensity = densitySum / float64(len(ps))
	} else {
		s.MinY = 0
	}

	return s
}

// Snapshot captures the current particle state.
func (e *Engine) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	size := e.cfg.Derived.Size
	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Size:       [3]float64{size.X, size.Y, size.Z},
		PipeLength: e.cfg.Domain.PipeLength,
		Resolution: e.grid.Res(),
		Tick:       e.tick,
		SimTimeSec: e.simTime,
		Particles:  make([]telemetry.ParticleState, e.store.Len()),
		Bookmark:   bookmark,
	}
	for i, p := range e.store.Particles() {
		snapshot.Particles[i] = telemetry.NewParticleState(p)
	}
	return snapshot
}

// Restore replaces the particle state and clock with a snapshot. The grid is
// rebuilt by the next Step.
func (e *Engine) Restore(s *telemetry.Snapshot) error {
	if len(s.Particles) != e.store.Len() {
		return fmt.Errorf("%w: %d particles, engine has %d", ErrSnapshotMismatch, len(s.Particles), e.store.Len())
	}
	if s.Resolution != e.grid.Res() {
		return fmt.Errorf("%w: resolution %d, engine has %d", ErrSnapshotMismatch, s.Resolution, e.grid.Res())
	}
	size := e.cfg.Derived.Size
	if s.Size != [3]float64{size.X, size.Y, size.Z} {
		return fmt.Errorf("%w: tank size %v, engine has %v", ErrSnapshotMismatch, s.Size, size)
	}
	if s.PipeLength != e.cfg.Domain.PipeLength {
		return fmt.Errorf("%w: pipe length %v, engine has %v", ErrSnapshotMismatch, s.PipeLength, e.cfg.Domain.PipeLength)
	}

	for i, ps := range s.Particles {
		ps.Apply(e.store.At(i))
	}
	e.grid.Clear()
	e.homes = e.homes[:0]
	e.prevDomains = e.prevDomains[:0]
	e.lists.Reset()
	e.tick = s.Tick
	e.simTime = s.SimTimeSec
	e.collector.Reset(s.Tick)

	slog.Info("snapshot restored", "tick", s.Tick, "particles", len(s.Particles))
	return nil
}

// saveSnapshot creates and saves a snapshot to disk.
func (e *Engine) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(e.Snapshot(bookmark), e.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", e.tick)
}
