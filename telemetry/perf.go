package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase is one timed stage of an engine step.
type Phase uint8

const (
	PhaseCategorize Phase = iota
	PhaseNeighborSearch
	PhaseForces
	PhaseIntegrate
	PhaseConstraint
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{
	"categorize", "neighbor_search", "forces", "integrate", "constraint", "telemetry",
}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseTimes holds one duration per phase.
type PhaseTimes [numPhases]time.Duration

// PerfCollector times step phases over a ring of the most recent ticks.
type PerfCollector struct {
	ticks  []time.Duration
	phases []PhaseTimes
	next   int
	filled int

	current    PhaseTimes
	tickStart  time.Time
	phaseStart time.Time
	active     Phase
	inPhase    bool
}

// NewPerfCollector keeps the last window ticks. window < 1 falls back to 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		ticks:  make([]time.Duration, window),
		phases: make([]PhaseTimes, window),
	}
}

func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = PhaseTimes{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.active, p.phaseStart, p.inPhase = ph, now, true
}

func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.ticks[p.next] = now.Sub(p.tickStart)
	p.phases[p.next] = p.current
	p.next = (p.next + 1) % len(p.ticks)
	p.filled = min(p.filled+1, len(p.ticks))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current[p.active] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// PerfStats summarizes the collector window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg PhaseTimes
	PhasePct [numPhases]float64 // share of the average tick, 0-100
}

// Stats summarizes the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	n := p.filled
	if n == 0 {
		return PerfStats{}
	}

	ns := make([]float64, n)
	for i, d := range p.ticks[:n] {
		ns[i] = float64(d)
	}
	mean := stat.Mean(ns, nil)

	s := PerfStats{
		AvgTickDuration: time.Duration(mean),
		MinTickDuration: time.Duration(floats.Min(ns)),
		MaxTickDuration: time.Duration(floats.Max(ns)),
	}
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
	}

	for ph := range numPhases {
		var sum time.Duration
		for _, pt := range p.phases[:n] {
			sum += pt[ph]
		}
		s.PhaseAvg[ph] = sum / time.Duration(n)
		if mean > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / mean * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer. Phases that never ran are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := range numPhases {
		if s.PhaseAvg[ph] > 0 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
		}
	}
	return slog.GroupValue(attrs...)
}

func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd         int32   `csv:"window_end"`
	AvgTickUS         int64   `csv:"avg_tick_us"`
	MinTickUS         int64   `csv:"min_tick_us"`
	MaxTickUS         int64   `csv:"max_tick_us"`
	TicksPerSec       float64 `csv:"ticks_per_sec"`
	CategorizePct     float64 `csv:"categorize_pct"`
	NeighborSearchPct float64 `csv:"neighbor_search_pct"`
	ForcesPct         float64 `csv:"forces_pct"`
	IntegratePct      float64 `csv:"integrate_pct"`
	ConstraintPct     float64 `csv:"constraint_pct"`
	TelemetryPct      float64 `csv:"telemetry_pct"`
}

func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	pct := s.PhasePct
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		AvgTickUS:         s.AvgTickDuration.Microseconds(),
		MinTickUS:         s.MinTickDuration.Microseconds(),
		MaxTickUS:         s.MaxTickDuration.Microseconds(),
		TicksPerSec:       s.TicksPerSecond,
		CategorizePct:     pct[PhaseCategorize],
		NeighborSearchPct: pct[PhaseNeighborSearch],
		ForcesPct:         pct[PhaseForces],
		IntegratePct:      pct[PhaseIntegrate],
		ConstraintPct:     pct[PhaseConstraint],
		TelemetryPct:      pct[PhaseTelemetry],
	}
}
