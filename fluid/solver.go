package fluid

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrNonFinite is returned by Step when integration produced NaN or Inf state.
// The solver never retries; the caller is expected to halt the loop.
var ErrNonFinite = errors.New("fluid: non-finite particle state")

// Phase names reported to a PhaseTimer during Step.
const (
	PhaseSpatialGrid = "spatial_grid"
	PhaseDensity     = "density"
	PhaseForces      = "forces"
	PhaseExternal    = "external_force"
	PhaseIntegrate   = "integrate"
)

// PhaseTimer receives a call at the start of each pipeline phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// StepStats counts notable events of the last Step.
type StepStats struct {
	Degenerate    int // density fallbacks and skipped neighbor contributions
	BoundaryHits  int // axis clamps at the domain walls
	DragEvents    int // external forces applied
	DragParticles int // particle/force pairs touched by external forces
}

// Option configures a Solver.
type Option func(*Solver)

// WithWorkers sets the worker pool size (0 = GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(s *Solver) { s.workers = n }
}

// WithParallelThreshold sets the particle count from which passes run on the pool.
func WithParallelThreshold(n int) Option {
	return func(s *Solver) { s.threshold = n }
}

// WithPhaseTimer installs a per-phase timing hook.
func WithPhaseTimer(t PhaseTimer) Option {
	return func(s *Solver) { s.timer = t }
}

// externalForce is a queued one-shot point force in simulation space.
type externalForce struct {
	at    r2.Vec
	force r2.Vec
}

// Solver owns a particle set and advances it with a fixed-timestep SPH pipeline:
// grid, densities, forces, external forces, integration.
//
// The particle slice is guarded by an RWMutex. Step and every mutator hold the
// write lock for their whole duration, so readers only ever observe settled state.
type Solver struct {
	mu sync.RWMutex

	params   Params
	kernels  Kernels
	viewport Viewport
	allPairs bool

	particles []Particle
	grid      *SpatialGrid
	pool      *workerPool
	pending   []externalForce
	stats     StepStats

	workers   int
	threshold int
	timer     PhaseTimer
}

// NewSolver validates params and creates an empty solver.
func NewSolver(params Params, opts ...Option) (*Solver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.NeighborSearch == "" {
		params.NeighborSearch = NeighborGrid
	}

	s := &Solver{
		params:   params,
		kernels:  NewKernels(params.KernelRadius),
		viewport: NewViewport(params),
		allPairs: params.NeighborSearch == NeighborAllPairs,
		grid:     NewSpatialGrid(params.KernelRadius),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pool = newWorkerPool(s.workers, s.threshold)
	return s, nil
}

// Close stops the worker pool. The solver must not be stepped afterwards.
func (s *Solver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool.stop()
}

// Params returns the solver's constants.
func (s *Solver) Params() Params {
	return s.params
}

// Viewport returns the screen/simulation mapping used for force injection.
func (s *Solver) Viewport() Viewport {
	return s.viewport
}

// Grid returns the spatial grid built by the last step.
// It must not be used concurrently with Step.
func (s *Solver) Grid() *SpatialGrid {
	return s.grid
}

// Reset removes all particles and drops any queued external force.
func (s *Solver) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = s.particles[:0]
	s.pending = s.pending[:0]
	s.grid.Clear()
}

// ReplaceParticles swaps in a copy of ps as the whole particle set under a
// single lock, dropping queued external forces as Reset does.
func (s *Solver) ReplaceParticles(ps []Particle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = append(s.particles[:0], ps...)
	s.pending = s.pending[:0]
	s.grid.Clear()
}

// AddParticle appends a particle at rest at pos.
func (s *Solver) AddParticle(pos r2.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = append(s.particles, NewParticle(pos))
}

// Count returns the number of particles.
func (s *Solver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.particles)
}

// Positions returns a copy of all particle positions in simulation units.
func (s *Solver) Positions() []r2.Vec {
	return s.PositionsInto(nil)
}

// PositionsInto overwrites dst with all particle positions and returns it.
// Reuse dst across frames to avoid allocations.
func (s *Solver) PositionsInto(dst []r2.Vec) []r2.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dst = dst[:0]
	for i := range s.particles {
		dst = append(dst, s.particles[i].pos)
	}
	return dst
}

// Particles returns a copy of the full particle state.
func (s *Solver) Particles() []Particle {
	return s.ParticlesInto(nil)
}

// ParticlesInto overwrites dst with the full particle state and returns it.
func (s *Solver) ParticlesInto(dst []Particle) []Particle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(dst[:0], s.particles...)
}

// SetParticle overwrites the state of particle i. Used to stage experiments.
func (s *Solver) SetParticle(i int, p Particle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles[i] = p
}

// StepStats returns the counters of the last Step.
func (s *Solver) StepStats() StepStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// InjectForce queues force at an input-device coordinate. The point is mapped
// into simulation space and the force is applied once, by the next Step.
func (s *Solver) InjectForce(screenPoint, force r2.Vec) {
	s.InjectForceAt(s.viewport.ToSim(screenPoint), force)
}

// InjectForceAt queues force at a point already in simulation space.
func (s *Solver) InjectForceAt(simPoint, force r2.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, externalForce{at: simPoint, force: force})
}

// Step advances the simulation by one fixed timestep.
func (s *Solver) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = StepStats{}

	s.startPhase(PhaseSpatialGrid)
	s.buildGrid()

	s.startPhase(PhaseDensity)
	s.calculateDensities()

	s.startPhase(PhaseForces)
	s.calculateForces()

	// External forces land after the force pass overwrote the accumulators
	// and before integration consumes them.
	if len(s.pending) > 0 {
		s.startPhase(PhaseExternal)
		for _, ef := range s.pending {
			s.applyForceAt(ef.at, ef.force)
		}
		s.pending = s.pending[:0]
	}

	s.startPhase(PhaseIntegrate)
	s.integrate()

	s.stats.Degenerate, s.stats.BoundaryHits = s.pool.collect()
	return s.validate()
}

// BuildGrid rebuilds the spatial grid from current positions.
func (s *Solver) BuildGrid() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildGrid()
}

// CalculateDensities runs the density and pressure pass. BuildGrid must have run
// since positions last changed.
func (s *Solver) CalculateDensities() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateDensities()
}

// CalculateForces runs the pressure, viscosity and gravity pass.
func (s *Solver) CalculateForces() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateForces()
}

// ApplyExternalForce maps screenPoint into simulation space and adds force to every
// particle within the interaction radius. It must run after CalculateForces and
// before Integrate.
func (s *Solver) ApplyExternalForce(screenPoint, force r2.Vec) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyForceAt(s.viewport.ToSim(screenPoint), force)
}

// Integrate advances velocities and positions and enforces the domain walls.
func (s *Solver) Integrate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrate()
}

func (s *Solver) startPhase(phase string) {
	if s.timer != nil {
		s.timer.StartPhase(phase)
	}
}

// buildGrid inserts every particle index single-threaded.
func (s *Solver) buildGrid() {
	s.grid.Clear()
	if s.allPairs {
		return
	}
	for i := range s.particles {
		s.grid.Insert(i, s.particles[i].pos)
	}
}

// candidatesInto appends the broad-phase neighbor candidates of pos to dst.
func (s *Solver) candidatesInto(dst []int, pos r2.Vec) []int {
	if s.allPairs {
		for j := range s.particles {
			dst = append(dst, j)
		}
		return dst
	}
	return s.grid.CandidatesInto(dst, pos)
}

// validate reports the first particle with non-finite position or velocity.
func (s *Solver) validate() error {
	for i := range s.particles {
		p := &s.particles[i]
		if !finite(p.pos) || !finite(p.vel) {
			return fmt.Errorf("%w: particle %d pos=(%g,%g) vel=(%g,%g) density=%g",
				ErrNonFinite, i, p.pos.X, p.pos.Y, p.vel.X, p.vel.Y, p.rho)
		}
	}
	return nil
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
