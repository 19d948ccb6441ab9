// Package engine wires the particle store, dual grid, neighbor search, force
// passes and integrator into a fixed-step simulation with telemetry.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/twintank/components"
	"github.com/pthm-cable/twintank/config"
	"github.com/pthm-cable/twintank/systems"
	"github.com/pthm-cable/twintank/telemetry"
)

// ErrSnapshotMismatch is returned when a snapshot does not fit the engine layout.
var ErrSnapshotMismatch = errors.New("snapshot does not match engine layout")

// Options configures engine behavior.
type Options struct {
	LogStats       bool    // log window stats and perf via slog
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // empty = no CSV output
	SnapshotDir    string  // empty = no snapshots
	SnapshotEvery  int32   // ticks between periodic snapshots, 0 = bookmarks only
	Workers        int     // neighbor search workers, 0 = use config

	// ForcePasses replaces the config-driven pass chain when non-nil.
	ForcePasses []systems.ForcePass

	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Engine holds the complete simulation state.
type Engine struct {
	cfg *config.Config

	store       *systems.ParticleStore
	grid        *systems.DualGrid
	categorizer *systems.Categorizer
	search      systems.NeighborBuilder
	parallel    *systems.ParallelSearch // nil when searching sequentially
	rings       int
	lists       *systems.NeighborLists
	homes       []components.Home
	prevDomains []components.Domain
	passes      []systems.ForcePass
	constraint  systems.Constraint // nil when walls are disabled

	// State
	tick    int32
	simTime float64

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	snapshotDir      string
	snapshotEvery    int32
	statsCallback    func(telemetry.WindowStats)

	// Sample buffers reused across windows
	cellCounts  []float64
	neighborLen []float64
}

// New builds an engine from cfg. Call Setup before the first Step.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	store, err := systems.NewParticleStoreFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating particle store: %w", err)
	}

	res := cfg.Grid.Resolution
	grid, err := systems.NewDualGrid(res)
	if err != nil {
		return nil, fmt.Errorf("creating grid: %w", err)
	}

	passes := opts.ForcePasses
	if passes == nil {
		if passes, err = systems.ForcePassesFor(cfg); err != nil {
			return nil, fmt.Errorf("building force passes: %w", err)
		}
	}

	bounds := systems.BoundsFor(cfg)
	rings := systems.RingCount(cfg.Kernel.Radius, res, cfg.Derived.Size.X)

	e := &Engine{
		cfg:         cfg,
		store:       store,
		grid:        grid,
		categorizer: systems.NewCategorizer(bounds, res),
		rings:       rings,
		lists:       systems.NewNeighborLists(store.Len()),
		passes:      passes,

		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
		snapshotEvery: opts.SnapshotEvery,
		statsCallback: opts.StatsCallback,
	}

	search := systems.NewNeighborSearch(rings)
	workers := opts.Workers
	if workers == 0 {
		workers = cfg.Physics.Workers
	}
	if workers > 1 {
		e.parallel = systems.NewParallelSearch(search, workers)
		e.search = e.parallel
	} else {
		e.search = search
	}

	if cfg.Boundary.Enabled {
		e.constraint = systems.NewContainer(bounds, cfg.Boundary.PipeHeight, cfg.Boundary.Restitution)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	e.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	e.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	e.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	if e.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		e.Close()
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := e.outputManager.WriteConfig(cfg); err != nil {
		e.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name()
	}
	slog.Info("engine created",
		"particles", store.Len(),
		"resolution", res,
		"rings", rings,
		"workers", workers,
		"passes", names,
		"walls", e.constraint != nil,
	)

	return e, nil
}

// Setup restores the initial lattice, clears both grids and rewinds the
// clock. Safe to call more than once.
func (e *Engine) Setup() {
	e.store.Reset()
	e.grid.Clear()
	e.homes = e.homes[:0]
	e.prevDomains = e.prevDomains[:0]
	e.lists.Reset()
	e.tick = 0
	e.simTime = 0
	e.collector.Reset(0)
}

// Step advances the simulation by dt.
func (e *Engine) Step(dt float64) {
	e.perfCollector.StartTick()

	e.perfCollector.StartPhase(telemetry.PhaseCategorize)
	e.homes = e.categorizer.Categorize(e.store, e.grid, e.homes)
	e.collector.RecordTransfers(e.countTransfers())

	e.perfCollector.StartPhase(telemetry.PhaseNeighborSearch)
	e.search.Build(e.lists, e.grid, e.homes)

	e.perfCollector.StartPhase(telemetry.PhaseForces)
	for _, p := range e.passes {
		p.Apply(e.store, e.lists)
	}

	e.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	systems.IntegrateAll(e.store, dt)

	if e.constraint != nil {
		e.perfCollector.StartPhase(telemetry.PhaseConstraint)
		e.constraint.Apply(e.store)
	}

	e.tick++
	e.simTime += dt

	e.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	e.collector.RecordStep()
	e.flushTelemetry()
	if e.snapshotDir != "" && e.snapshotEvery > 0 && e.tick%e.snapshotEvery == 0 {
		e.saveSnapshot(nil)
	}

	e.perfCollector.EndTick()
}

// countTransfers returns how many particles changed domain since the
// previous categorization and records the current domains.
func (e *Engine) countTransfers() int {
	n := 0
	if len(e.prevDomains) == len(e.homes) {
		for i, h := range e.homes {
			if e.prevDomains[i] != h.Domain {
				n++
			}
		}
	}

	if cap(e.prevDomains) < len(e.homes) {
		e.prevDomains = make([]components.Domain, len(e.homes))
	}
	e.prevDomains = e.prevDomains[:len(e.homes)]
	for i, h := range e.homes {
		e.prevDomains[i] = h.Domain
	}
	return n
}

// Positions appends every particle position to dst and returns it.
func (e *Engine) Positions(dst []r3.Vec) []r3.Vec {
	return e.store.Positions(dst)
}

// Particle returns a copy of particle i.
func (e *Engine) Particle(i int) components.Particle {
	return *e.store.At(i)
}

// Neighbors returns the candidate list of particle i from the last step.
// The slice is reused by the next Step.
func (e *Engine) Neighbors(i int) []int {
	return e.lists.Of(i)
}

// Home returns the domain and cell particle i was binned into during the
// last step. Panics before the first Step.
func (e *Engine) Home(i int) components.Home {
	return e.homes[i]
}

// Grid returns the dual grid as of the last categorization.
func (e *Engine) Grid() *systems.DualGrid {
	return e.grid
}

// Len returns the particle count.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Rings returns the neighbor search ring count.
func (e *Engine) Rings() int {
	return e.rings
}

// Tick returns the number of completed steps.
func (e *Engine) Tick() int32 {
	return e.tick
}

// SimTime returns the simulated time in seconds.
func (e *Engine) SimTime() float64 {
	return e.simTime
}

// Close stops the worker pool and closes output files.
func (e *Engine) Close() error {
	if e.parallel != nil {
		e.parallel.Stop()
	}
	return e.outputManager.Close()
}

// Recall rebuilds the grid and candidate lists from the current positions and
// compares them with a brute-force pair scan at the kernel radius.
func (e *Engine) Recall() systems.RecallReport {
	e.homes = e.categorizer.Categorize(e.store, e.grid, e.homes)
	e.search.Build(e.lists, e.grid, e.homes)
	return systems.Recall(e.store, e.lists, e.cfg.Kernel.Radius)
}
