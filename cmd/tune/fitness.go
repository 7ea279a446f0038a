package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/game"
	"github.com/pthm-cable/sphfluid/telemetry"
)

// Fitness weights. Lower fitness is better.
const (
	haltPenalty      = 1e6  // a run that blew up scores at least this
	kineticWeight    = 1.0  // mean kinetic energy per particle over the settled windows
	spreadWeight     = 50   // density std / mean over the settled windows
	degenerateWeight = 10   // per degenerate density per step
	wallHitWeight    = 0.1  // per wall clamp per particle per step
	settleFraction   = 0.5  // trailing share of windows scored as settled
	statsWindowSec   = 0.05 // sim seconds per scored window
)

// FitnessEvaluator runs headless dam breaks and scores how quietly they settle.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastHalted  int // halted seeds in the most recent Evaluate call
	lastSettled float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: statsWindowSec,
	}
}

// LastRun returns the number of halted seeds and the mean settled kinetic
// energy per particle of the most recent evaluation.
func (fe *FitnessEvaluator) LastRun() (halted int, settledKE float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastHalted, fe.lastSettled
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks       int64                   // ticks completed before halting or maxTicks
	halted      bool                    // solver reported a non-finite state
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate computes fitness for raw parameter values (lower = better),
// averaged over all seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	halted := 0
	for _, r := range results {
		total += fe.computeFitness(r)
		if r.halted {
			halted++
		}
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastHalted = halted
	fe.lastSettled = meanSettledKE(results)
	fe.mu.Unlock()

	return total / n
}

// runSimulation executes a single headless run until maxTicks or a halt.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Workers:        1,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.halted = true
		return result
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
		if g.Err() != nil {
			result.halted = true
			break
		}
	}
	result.ticks = g.Tick()
	return result
}

// copyConfig returns a copy of the base config. Every section is a value type.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness scores one run. Halted runs score above every finished run,
// and the earlier the halt the worse the score.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	if r.halted {
		return haltPenalty + float64(fe.maxTicks-r.ticks)
	}
	ke, spread, events := settledMetrics(r.windowStats)
	if math.IsNaN(ke) {
		return haltPenalty
	}
	return kineticWeight*ke + spreadWeight*spread + events
}

// meanSettledKE averages settled kinetic energy over runs that produced at
// least one stats window. Returns 0 when none did.
func meanSettledKE(results []*runResult) float64 {
	var sum float64
	n := 0
	for _, r := range results {
		if len(r.windowStats) == 0 {
			continue
		}
		ke, _, _ := settledMetrics(r.windowStats)
		sum += ke
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// settledMetrics averages the trailing settleFraction of windows: kinetic energy
// per particle, relative density spread, and weighted degenerate and wall events
// per particle step.
func settledMetrics(windows []telemetry.WindowStats) (ke, spread, events float64) {
	if len(windows) == 0 {
		return math.NaN(), 0, 0
	}
	start := int(float64(len(windows)) * (1 - settleFraction))
	start = min(start, len(windows)-1)

	tail := windows[start:]
	for _, w := range tail {
		particles := float64(max(1, w.Particles))
		steps := float64(max(1, w.Steps))
		ke += w.KineticEnergy / particles
		if w.DensityMean > 0 {
			spread += w.DensityStd / w.DensityMean
		}
		events += degenerateWeight*float64(w.Degenerate)/steps +
			wallHitWeight*float64(w.BoundaryHits)/(steps*particles)
	}
	n := float64(len(tail))
	return ke / n, spread / n, events / n
}
