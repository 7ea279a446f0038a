package fluid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func newTestSolver(t testing.TB, p Params, opts ...Option) *Solver {
	t.Helper()
	s, err := NewSolver(p, opts...)
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func seededDam(t testing.TB, p Params, seed int64, opts ...Option) *Solver {
	t.Helper()
	s := newTestSolver(t, p, opts...)
	if n := s.SeedDam(UniformJitter(rand.New(rand.NewSource(seed)), 1)); n != p.DamParticles {
		t.Fatalf("SeedDam added %d, want %d", n, p.DamParticles)
	}
	return s
}

func TestDensityLowerBound(t *testing.T) {
	p := DefaultParams()
	s := seededDam(t, p, 1)

	s.BuildGrid()
	s.CalculateDensities()

	floor := p.SelfDensity()
	for i, pt := range s.Particles() {
		rho := pt.Density()
		if math.IsNaN(rho) || math.IsInf(rho, 0) {
			t.Fatalf("particle %d density not finite: %v", i, rho)
		}
		if rho < floor*(1-1e-12) {
			t.Errorf("particle %d density %v below self contribution %v", i, rho, floor)
		}
		if want := p.GasConstant * (rho - p.RestDensity); pt.Pressure() != want {
			t.Errorf("particle %d pressure = %v, want %v", i, pt.Pressure(), want)
		}
	}
}

func TestGravityFall(t *testing.T) {
	calibrated := DefaultParams()
	calibrated.KernelRadius = 2
	calibrated.Mass = math.Pi * math.Pi // MASS / rho_self^2 == 1

	tests := []struct {
		name   string
		params Params
	}{
		{"defaults", DefaultParams()},
		{"calibrated", calibrated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.params
			s := newTestSolver(t, p)
			x0 := r2.Vec{X: 600, Y: 450}
			s.AddParticle(x0)

			if err := s.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}

			rho := p.SelfDensity()
			wantV := r2.Scale(p.DT*p.Mass/(rho*rho), p.Gravity)
			wantX := r2.Add(x0, r2.Scale(p.DT, wantV))

			pt := s.Particles()[0]
			if math.Abs(pt.Density()-rho) > 1e-12*rho {
				t.Errorf("density = %v, want %v", pt.Density(), rho)
			}
			if v := pt.Velocity(); v.X != 0 || math.Abs(v.Y-wantV.Y) > 1e-9*math.Abs(wantV.Y) {
				t.Errorf("velocity = %v, want %v", v, wantV)
			}
			if x := pt.Position(); x.X != x0.X || math.Abs(x.Y-wantX.Y) > 1e-9 {
				t.Errorf("position = %v, want %v", x, wantX)
			}
		})
	}

	t.Run("calibrated equals DT*G", func(t *testing.T) {
		s := newTestSolver(t, calibrated)
		s.AddParticle(r2.Vec{X: 600, Y: 450})
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		want := calibrated.DT * calibrated.Gravity.Y
		if got := s.Particles()[0].Velocity().Y; math.Abs(got-want) > 1e-9 {
			t.Errorf("v.y = %v, want %v", got, want)
		}
	})
}

func TestBoundaryReflection(t *testing.T) {
	p := DefaultParams()
	b := p.BoundaryEps()
	rho := p.SelfDensity()
	dvy := p.DT * p.Mass / (rho * rho) * p.Gravity.Y

	tests := []struct {
		name    string
		pos     r2.Vec
		vel     r2.Vec
		wantPos r2.Vec
		wantVel r2.Vec
	}{
		{
			name:    "left wall",
			pos:     r2.Vec{X: b + 0.01, Y: 450},
			vel:     r2.Vec{X: -100},
			wantPos: r2.Vec{X: b},
			wantVel: r2.Vec{X: 50, Y: dvy},
		},
		{
			name:    "right wall",
			pos:     r2.Vec{X: p.Domain.Width - b - 0.01, Y: 450},
			vel:     r2.Vec{X: 100},
			wantPos: r2.Vec{X: p.Domain.Width - b},
			wantVel: r2.Vec{X: -50, Y: dvy},
		},
		{
			name:    "floor",
			pos:     r2.Vec{X: 600, Y: b + 0.01},
			vel:     r2.Vec{Y: -100},
			wantPos: r2.Vec{Y: b},
			wantVel: r2.Vec{Y: -0.5 * (-100 + dvy)},
		},
		{
			name:    "ceiling",
			pos:     r2.Vec{X: 600, Y: p.Domain.Height - b - 0.01},
			vel:     r2.Vec{Y: 1000},
			wantPos: r2.Vec{Y: p.Domain.Height - b},
			wantVel: r2.Vec{Y: -0.5 * (1000 + dvy)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSolver(t, p)
			s.AddParticle(tt.pos)
			pt := NewParticle(tt.pos)
			pt.SetVelocity(tt.vel)
			s.SetParticle(0, pt)

			if err := s.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			got := s.Particles()[0]

			// Only the clamped axis is checked for position.
			if tt.wantPos.X != 0 && got.Position().X != tt.wantPos.X {
				t.Errorf("x = %v, want %v", got.Position().X, tt.wantPos.X)
			}
			if tt.wantPos.Y != 0 && got.Position().Y != tt.wantPos.Y {
				t.Errorf("y = %v, want %v", got.Position().Y, tt.wantPos.Y)
			}
			v := got.Velocity()
			if math.Abs(v.X-tt.wantVel.X) > 1e-9 || math.Abs(v.Y-tt.wantVel.Y) > 1e-6 {
				t.Errorf("velocity = %v, want %v", v, tt.wantVel)
			}
			if hits := s.StepStats().BoundaryHits; hits != 1 {
				t.Errorf("BoundaryHits = %d, want 1", hits)
			}
		})
	}
}

func TestPressureRepelsBelowRestDensity(t *testing.T) {
	p := DefaultParams()
	s := newTestSolver(t, p)
	s.AddParticle(r2.Vec{X: 600, Y: 450})
	s.AddParticle(r2.Vec{X: 600 + p.KernelRadius/2, Y: 450})

	s.BuildGrid()
	s.CalculateDensities()
	s.CalculateForces()

	pts := s.Particles()
	if pts[0].Pressure() >= 0 {
		t.Fatalf("pressure = %v, expected negative below rest density", pts[0].Pressure())
	}
	if fx := pts[0].Force().X; fx >= 0 {
		t.Errorf("left particle force.x = %v, want < 0", fx)
	}
	if fx := pts[1].Force().X; fx <= 0 {
		t.Errorf("right particle force.x = %v, want > 0", fx)
	}
	if math.Abs(pts[0].Force().X+pts[1].Force().X) > 1e-9*math.Abs(pts[0].Force().X) {
		t.Errorf("pressure forces not symmetric: %v vs %v", pts[0].Force().X, pts[1].Force().X)
	}
}

func TestCoincidentParticlesStayFinite(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	s.AddParticle(r2.Vec{X: 600, Y: 450})
	s.AddParticle(r2.Vec{X: 600, Y: 450})

	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	for i, pt := range s.Particles() {
		if pt.Force().X != 0 {
			t.Errorf("particle %d force.x = %v, want 0", i, pt.Force().X)
		}
		if !finite(pt.Position()) || !finite(pt.Velocity()) {
			t.Errorf("particle %d not finite: %v %v", i, pt.Position(), pt.Velocity())
		}
	}
}

func TestDegenerateDensityFallsBackToRest(t *testing.T) {
	p := DefaultParams()
	s := newTestSolver(t, p)
	s.AddParticle(r2.Vec{X: 600, Y: 450})

	// Forces without a density pass: density is still zero.
	s.BuildGrid()
	s.CalculateForces()

	got := s.Particles()[0].Force()
	want := r2.Scale(p.Mass/p.RestDensity, p.Gravity)
	if math.Abs(got.Y-want.Y) > 1e-12 || got.X != 0 {
		t.Errorf("force = %v, want %v", got, want)
	}
}

func TestStepReportsNonFinite(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	s.AddParticle(r2.Vec{X: 600, Y: 450})
	pt := NewParticle(r2.Vec{X: 600, Y: 450})
	pt.SetVelocity(r2.Vec{X: math.NaN()})
	s.SetParticle(0, pt)

	err := s.Step()
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("Step() = %v, want ErrNonFinite", err)
	}
}

func TestResetIdempotent(t *testing.T) {
	p := DefaultParams()

	jitters := []struct {
		name string
		make func() JitterFunc
	}{
		{"uniform", func() JitterFunc { return UniformJitter(rand.New(rand.NewSource(42)), 1) }},
		{"noise", func() JitterFunc { return NoiseJitter(42, 1, 0.05) }},
	}

	for _, jt := range jitters {
		t.Run(jt.name, func(t *testing.T) {
			s := newTestSolver(t, p)
			s.SeedDam(jt.make())
			first := s.Particles()

			s.Reset()
			if s.Count() != 0 {
				t.Fatalf("Count() after Reset = %d, want 0", s.Count())
			}

			s.SeedDam(jt.make())
			second := s.Particles()
			if len(first) != len(second) {
				t.Fatalf("reseeded %d particles, want %d", len(second), len(first))
			}
			for i := range first {
				if first[i] != second[i] {
					t.Errorf("particle %d differs: %v vs %v", i, first[i], second[i])
				}
			}
		})
	}
}

func TestSeedCapacityClamp(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	// 25 columns (inclusive x) by 20 rows (exclusive y) = 500 slots.
	bounds := r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 24, Y: 20}}

	if n := s.Seed(bounds, 1, nil, 200); n != 200 {
		t.Fatalf("Seed added %d, want 200", n)
	}
	for i, pt := range s.Particles() {
		want := r2.Vec{X: float64(i % 25), Y: float64(i / 25)}
		if pt.Position() != want {
			t.Fatalf("particle %d at %v, want %v", i, pt.Position(), want)
		}
	}

	s.Reset()
	if n := s.Seed(bounds, 1, nil, 0); n != 500 {
		t.Errorf("uncapped Seed added %d, want 500", n)
	}
}

func TestSeedDamLayout(t *testing.T) {
	p := DefaultParams()
	s := newTestSolver(t, p)
	if n := s.SeedDam(nil); n != p.DamParticles {
		t.Fatalf("SeedDam added %d, want %d", n, p.DamParticles)
	}

	pts := s.Particles()
	b := DamBounds(p)
	if pts[0].Position() != b.Min {
		t.Errorf("first particle at %v, want %v", pts[0].Position(), b.Min)
	}
	// 19 columns fit in [300, 600] at spacing 16.
	if got, want := pts[19].Position(), (r2.Vec{X: 300, Y: 32}); got != want {
		t.Errorf("particle 19 at %v, want %v", got, want)
	}
}

func TestExternalForceConsumedOnce(t *testing.T) {
	p := DefaultParams()
	control := newTestSolver(t, p)
	dragged := newTestSolver(t, p)
	for _, s := range []*Solver{control, dragged} {
		s.AddParticle(r2.Vec{X: 600, Y: 450})
		s.AddParticle(r2.Vec{X: 200, Y: 450})
	}

	force := r2.Vec{X: 1000}
	dragged.InjectForce(r2.Vec{X: 400, Y: 300}, force) // window centre maps to (600, 450)

	step := func(s *Solver) {
		t.Helper()
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	step(control)
	step(dragged)
	if st := dragged.StepStats(); st.DragEvents != 1 || st.DragParticles != 1 {
		t.Errorf("StepStats = %+v, want 1 drag event touching 1 particle", st)
	}

	wantDV := p.DT * force.X / p.SelfDensity()
	dv := dragged.Particles()[0].Velocity().X - control.Particles()[0].Velocity().X
	if math.Abs(dv-wantDV) > 1e-9*wantDV {
		t.Errorf("dv = %v after first step, want %v", dv, wantDV)
	}
	if far := dragged.Particles()[1].Velocity().X; far != 0 {
		t.Errorf("far particle v.x = %v, want 0", far)
	}

	step(control)
	step(dragged)
	if st := dragged.StepStats(); st.DragEvents != 0 {
		t.Errorf("DragEvents on second step = %d, want 0", st.DragEvents)
	}
	dv = dragged.Particles()[0].Velocity().X - control.Particles()[0].Velocity().X
	if math.Abs(dv-wantDV) > 1e-9*wantDV {
		t.Errorf("dv = %v after second step, want %v (force applied again?)", dv, wantDV)
	}
}

func TestResetDropsPendingForce(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	s.InjectForceAt(r2.Vec{X: 600, Y: 450}, r2.Vec{X: 1000})
	s.Reset()
	s.AddParticle(r2.Vec{X: 600, Y: 450})
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if st := s.StepStats(); st.DragEvents != 0 {
		t.Errorf("DragEvents = %d, want 0", st.DragEvents)
	}
}

func TestGridMatchesAllPairs(t *testing.T) {
	gp := DefaultParams()
	ap := DefaultParams()
	ap.NeighborSearch = NeighborAllPairs

	grid := seededDam(t, gp, 7)
	brute := seededDam(t, ap, 7)

	for step := 0; step < 5; step++ {
		if err := grid.Step(); err != nil {
			t.Fatalf("grid Step: %v", err)
		}
		if err := brute.Step(); err != nil {
			t.Fatalf("all_pairs Step: %v", err)
		}
	}

	a, b := grid.Particles(), brute.Particles()
	for i := range a {
		if d := math.Abs(a[i].Density() - b[i].Density()); d > 1e-9*b[i].Density() {
			t.Errorf("particle %d density %v vs %v", i, a[i].Density(), b[i].Density())
		}
		if d := r2.Norm(r2.Sub(a[i].Position(), b[i].Position())); d > 1e-6 {
			t.Errorf("particle %d position %v vs %v", i, a[i].Position(), b[i].Position())
		}
	}
}

func TestWorkerCountIndependence(t *testing.T) {
	p := DefaultParams()
	serial := seededDam(t, p, 11, WithWorkers(1))
	parallel := seededDam(t, p, 11, WithWorkers(4), WithParallelThreshold(1))

	for step := 0; step < 20; step++ {
		if err := serial.Step(); err != nil {
			t.Fatalf("serial Step: %v", err)
		}
		if err := parallel.Step(); err != nil {
			t.Fatalf("parallel Step: %v", err)
		}
	}

	a, b := serial.Particles(), parallel.Particles()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d differs between worker counts: %+v vs %+v", i, a[i], b[i])
		}
	}
	if serial.StepStats() != parallel.StepStats() {
		t.Errorf("StepStats differ: %+v vs %+v", serial.StepStats(), parallel.StepStats())
	}
}

func TestPositionsInto(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	s.AddParticle(r2.Vec{X: 100, Y: 100})
	s.AddParticle(r2.Vec{X: 200, Y: 100})

	buf := make([]r2.Vec, 0, 8)
	got := s.PositionsInto(buf)
	if len(got) != 2 || got[1] != (r2.Vec{X: 200, Y: 100}) {
		t.Errorf("PositionsInto = %v", got)
	}
	if &got[0] != &buf[:1][0] {
		t.Error("PositionsInto did not reuse dst")
	}
}

func BenchmarkStep(b *testing.B) {
	sizes := []struct {
		name  string
		count int
	}{
		{"dam200", 200},
		{"dam1000", 1000},
	}

	for _, sz := range sizes {
		b.Run(sz.name, func(b *testing.B) {
			p := DefaultParams()
			s := newTestSolver(b, p)
			s.Seed(DamBounds(p), p.KernelRadius, UniformJitter(rand.New(rand.NewSource(1)), 1), sz.count)

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				if err := s.Step(); err != nil {
					b.Fatalf("Step: %v", err)
				}
			}
		})
	}
}

func TestReplaceParticles(t *testing.T) {
	s := newTestSolver(t, DefaultParams())
	s.AddParticle(r2.Vec{X: 100, Y: 100})
	s.InjectForceAt(r2.Vec{X: 600, Y: 450}, r2.Vec{X: 1000})

	src := []Particle{NewParticle(r2.Vec{X: 600, Y: 450}), NewParticle(r2.Vec{X: 300, Y: 450})}
	src[0].SetVelocity(r2.Vec{X: 1, Y: 2})
	s.ReplaceParticles(src)
	src[0].SetPosition(r2.Vec{}) // the solver keeps its own copy

	ps := s.Particles()
	if len(ps) != 2 {
		t.Fatalf("Count() = %d, want 2", len(ps))
	}
	if got := ps[0].Position(); got != (r2.Vec{X: 600, Y: 450}) {
		t.Errorf("particle 0 position = %v", got)
	}
	if got := ps[0].Velocity(); got != (r2.Vec{X: 1, Y: 2}) {
		t.Errorf("particle 0 velocity = %v", got)
	}

	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if st := s.StepStats(); st.DragEvents != 0 {
		t.Errorf("DragEvents = %d, want 0 after replace", st.DragEvents)
	}
}
