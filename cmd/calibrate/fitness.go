package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/sim"
	"github.com/pthm-cable/crush/telemetry"
)

// FitnessEvaluator runs headless simulations and scores them.
type FitnessEvaluator struct {
	params          *ParamVector
	maxTicks        int32
	seeds           []int64
	baseConfig      *config.Config
	collapsePenalty float64
	statsWindow     float64

	mu          sync.Mutex
	bestFitness float64
	lastResult  runResult // Seed average from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, collapsePenalty float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:          params,
		maxTicks:        maxTicks,
		seeds:           seeds,
		baseConfig:      baseCfg,
		collapsePenalty: collapsePenalty,
		statsWindow:     10.0,
		bestFitness:     math.Inf(1),
	}
}

// runResult holds the outcome of one run, or the seed average.
type runResult struct {
	Arrived    float64
	Collapses  float64
	PeakStress float64 // Highest window heat stress peak
}

// LastResult returns the seed-averaged outcome of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() runResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Seeds run in parallel, each on its own simulation.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var avg runResult
	for _, r := range results {
		avg.Arrived += r.Arrived
		avg.Collapses += r.Collapses
		avg.PeakStress = math.Max(avg.PeakStress, r.PeakStress)
	}
	n := float64(len(results))
	avg.Arrived /= n
	avg.Collapses /= n

	fitness := fe.computeFitness(avg)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastResult = avg
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run for maxTicks.
// cfg is shared read-only between concurrent runs.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	var result runResult
	s, err := sim.New(cfg, sim.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Logger:         slog.New(slog.DiscardHandler),
		StatsCallback: func(stats telemetry.WindowStats) {
			result.PeakStress = math.Max(result.PeakStress, stats.HeatStressPeak)
		},
	})
	if err != nil {
		// Only output setup can fail, and no output dir is set.
		slog.Error("failed to create simulation", "seed", seed, "error", err)
		return result
	}
	defer s.Close()

	for s.Tick() < fe.maxTicks {
		s.Step()
	}

	totals := s.Totals()
	result.Arrived = float64(totals.Arrived)
	result.Collapses = float64(totals.Collisions + totals.Heat)
	return result
}

// copyConfig returns a copy of the base config whose crowd settings can be
// changed without touching the base.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness negates the throughput score:
// -(arrivals - collapsePenalty × collapses).
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	return -(r.Arrived - fe.collapsePenalty*r.Collapses)
}
