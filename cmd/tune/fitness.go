package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pthm-cable/twintank/config"
	"github.com/pthm-cable/twintank/engine"
	"github.com/pthm-cable/twintank/systems"
)

// penalty is returned for parameter vectors the engine rejects.
const penalty = 1e6

// FitnessEvaluator runs headless simulations and scores neighbor search quality.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	target     float64 // Desired mean true neighbors per particle
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastReport  systems.RecallReport
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, target float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		target:      target,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastReport returns the recall report from the most recent evaluation.
func (fe *FitnessEvaluator) LastReport() systems.RecallReport {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastReport
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return fe.reject()
	}

	report, err := fe.run(cfg)
	if err != nil {
		return fe.reject()
	}
	fitness := fe.computeFitness(report, cfg.Particles.Count)

	fe.mu.Lock()
	fe.lastReport = report
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.mu.Unlock()

	return fitness
}

// reject clears the last report so it is not logged against a penalty.
func (fe *FitnessEvaluator) reject() float64 {
	fe.mu.Lock()
	fe.lastReport = systems.RecallReport{}
	fe.mu.Unlock()
	return penalty
}

func (fe *FitnessEvaluator) run(cfg *config.Config) (systems.RecallReport, error) {
	e, err := engine.New(cfg, engine.Options{})
	if err != nil {
		return systems.RecallReport{}, err
	}
	defer e.Close()

	e.Setup()
	for range fe.ticks {
		e.Step(cfg.Physics.DT)
	}
	return e.Recall(), nil
}

// computeFitness combines three terms:
// squared relative error of the mean true neighbor count against target,
// missed pairs, and candidate volume per particle.
func (fe *FitnessEvaluator) computeFitness(r systems.RecallReport, n int) float64 {
	perParticle := float64(r.Expected) / float64(n)
	rel := (perParticle - fe.target) / fe.target
	work := float64(r.Candidates) / float64(n)
	return rel*rel + 2*(1-r.Recall) + 0.001*work
}

// formatDuration formats a duration as HhMMmSSs or MmSSs for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
