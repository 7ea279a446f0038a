// Package game drives the fluid solver: seeding, stepping, telemetry,
// and the raylib front end.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/fluid"
	"github.com/pthm-cable/sphfluid/renderer"
	"github.com/pthm-cable/sphfluid/telemetry"
	"github.com/pthm-cable/sphfluid/ui"
)

// Options configures a new game instance.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64          // jitter seed (0 = seed.rng_seed)
	LogStats       bool           // log window stats via slog
	StatsWindowSec float64        // stats window in sim seconds (0 = telemetry.stats_window)
	OutputDir      string         // CSV + config snapshot directory (empty = disabled)
	SnapshotDir    string         // bookmark snapshot directory (empty = disabled)
	SnapshotPath   string         // snapshot to start from instead of the seeded dam
	Headless       bool           // skip raylib resources
	StepsPerUpdate int            // solver steps per Update call (0 = render.steps_per_update)
	Workers        int            // solver worker count (0 = parallel.workers)
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation driver state.
type Game struct {
	cfg    *config.Config
	solver *fluid.Solver
	seed   int64

	// State
	tick           int64
	paused         bool
	err            error // set when the solver reports a non-finite state
	stepsPerUpdate int
	dragScale      float64
	dragging       bool

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	bookmarks     *telemetry.BookmarkDetector
	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	lastStats     telemetry.WindowStats
	haveStats     bool

	particles []fluid.Particle // snapshot scratch reused by stats and drawing

	// Rendering (nil when headless)
	headless         bool
	particleRenderer *renderer.ParticleRenderer
	hud              *ui.HUD
	perfPanel        *ui.PerfPanel
	statsPanel       *ui.StatsPanel
	controlsPanel    *ui.ControlsPanel
	showStats        bool
	showPerf         bool
	background       rl.Color
	boundsColor      rl.Color
}

// NewGameWithOptions creates a game, seeds the dam and prepares telemetry.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Seed.RNGSeed
	}
	steps := opts.StepsPerUpdate
	if steps <= 0 {
		steps = max(1, cfg.Render.StepsPerUpdate)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Parallel.Workers
	}
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	solver, err := fluid.NewSolver(cfg.SolverParams(),
		fluid.WithWorkers(workers),
		fluid.WithParallelThreshold(cfg.Parallel.Threshold),
		fluid.WithPhaseTimer(perf),
	)
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}

	g := &Game{
		cfg:            cfg,
		solver:         solver,
		seed:           seed,
		stepsPerUpdate: steps,
		dragScale:      cfg.Interaction.DragForceScale,
		collector:      telemetry.NewCollector(statsWindow, cfg.Fluid.DT),
		perfCollector:  perf,
		bookmarks:      telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		snapshotDir:    opts.SnapshotDir,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		headless:       opts.Headless,
	}

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			solver.Close()
			return nil, fmt.Errorf("creating output manager: %w", err)
		}
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
		g.outputManager = om
	}

	if !g.headless {
		if err := g.initRendering(); err != nil {
			g.Unload()
			return nil, err
		}
	}

	g.Reset()
	if opts.SnapshotPath != "" {
		if err := g.LoadSnapshot(opts.SnapshotPath); err != nil {
			g.Unload()
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
	}
	return g, nil
}

// Reset re-seeds the dam with the configured jitter and starts a new stats window.
// The jitter source is rebuilt from the seed, so every reset reproduces the same layout.
func (g *Game) Reset() {
	g.solver.Reset()
	n := g.solver.Seed(
		fluid.DamBounds(g.solver.Params()),
		g.cfg.Derived.SeedSpacing,
		newJitter(g.cfg.Seed, g.seed),
		g.cfg.Derived.SeedMaxCount,
	)
	g.tick = 0
	g.err = nil
	g.haveStats = false
	g.collector.Reset(0)
	g.bookmarks.Reset()

	slog.Info("dam seeded",
		"particles", n,
		"jitter", g.cfg.Seed.Jitter,
		"seed", g.seed,
	)
}

// SaveSnapshot writes the current particle state to the snapshot directory
// (or the current directory when none is configured). bm may be nil.
func (g *Game) SaveSnapshot(bm *telemetry.Bookmark) (string, error) {
	g.particles = g.solver.ParticlesInto(g.particles)
	snap := telemetry.NewSnapshot(g.solver.Params(), g.seed, g.tick, g.particles, bm)
	dir := g.snapshotDir
	if dir == "" {
		dir = "."
	}
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		return "", fmt.Errorf("saving snapshot at tick %d: %w", g.tick, err)
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick, "particles", len(snap.Particles))
	return path, nil
}

// LoadSnapshot replaces the fluid with a saved snapshot and resumes from its tick.
// The snapshot's parameters are informational; the game keeps its own.
func (g *Game) LoadSnapshot(path string) error {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if snap.Params != g.solver.Params() {
		slog.Warn("snapshot parameters differ from config", "path", path)
	}
	snap.Restore(g.solver)
	g.tick = snap.Tick
	g.err = nil
	g.haveStats = false
	g.collector.Reset(g.tick)
	g.bookmarks.Reset()

	slog.Info("snapshot loaded", "path", path, "tick", g.tick, "particles", len(snap.Particles))
	return nil
}

// UpdateHeadless runs one batch of solver steps without any raylib calls.
func (g *Game) UpdateHeadless() {
	g.stepBatch()
}

// stepBatch advances the solver stepsPerUpdate times unless paused or halted.
func (g *Game) stepBatch() {
	if g.paused || g.err != nil {
		return
	}
	for range g.stepsPerUpdate {
		if !g.simulationStep() {
			return
		}
	}
}

// simulationStep advances the solver one step and feeds telemetry.
// Returns false when the solver halted.
func (g *Game) simulationStep() bool {
	g.perfCollector.StartTick()
	err := g.solver.Step()
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)

	if err != nil {
		g.halt(err)
		g.perfCollector.EndTick()
		return false
	}

	g.tick++
	g.collector.RecordStep(g.solver.StepStats())
	g.flushTelemetry()
	g.perfCollector.EndTick()
	return true
}

// halt stops stepping after a solver error.
func (g *Game) halt(err error) {
	g.err = err
	g.paused = true
	slog.Error("solver halted", "tick", g.tick, "error", err)
}

// Drag injects a mouse drag at a window point. delta is the mouse movement in
// screen pixels (y down); the resulting force points the same way in
// simulation space (y up). Drags are dropped while paused or halted.
func (g *Game) Drag(screenPoint, delta r2.Vec) {
	if !g.acceptsInput() || (delta.X == 0 && delta.Y == 0) {
		return
	}
	force := r2.Scale(g.dragScale, r2.Vec{X: delta.X, Y: -delta.Y})
	g.solver.InjectForce(screenPoint, force)
}

// DragAt injects a force directly at a simulation-space point.
// Like Drag it does nothing while paused or halted.
func (g *Game) DragAt(simPoint, force r2.Vec) {
	if !g.acceptsInput() {
		return
	}
	g.solver.InjectForceAt(simPoint, force)
}

// acceptsInput reports whether the next step will consume injected forces.
// Queued forces are applied all at once, so none may pile up between steps.
func (g *Game) acceptsInput() bool {
	return !g.paused && g.err == nil
}

// Solver returns the underlying solver.
func (g *Game) Solver() *fluid.Solver {
	return g.solver
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Tick returns the number of completed solver steps since the last reset.
func (g *Game) Tick() int64 {
	return g.tick
}

// SimTime returns simulated seconds since the last reset.
func (g *Game) SimTime() float64 {
	return float64(g.tick) * g.cfg.Fluid.DT
}

// Err returns the error that halted the solver, if any.
func (g *Game) Err() error {
	return g.err
}

// Paused reports whether stepping is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused pauses or resumes stepping. A halted game stays halted until Reset.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// StepsPerUpdate returns the number of solver steps per Update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate sets the number of solver steps per Update call (minimum 1).
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = max(1, n)
}

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() (telemetry.WindowStats, bool) {
	return g.lastStats, g.haveStats
}

// PerfStats returns the step timing over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Unload releases solver workers and closes output files.
func (g *Game) Unload() {
	if g.solver != nil {
		g.solver.Close()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output files", "error", err)
		}
		g.outputManager = nil
	}
}
