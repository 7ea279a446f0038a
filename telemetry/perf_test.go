package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/sphfluid/fluid"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseSpatialGrid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(fluid.PhaseForces)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[fluid.PhaseSpatialGrid]; !ok {
		t.Error("expected spatial_grid phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[fluid.PhaseForces]; !ok {
		t.Error("expected forces phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[fluid.PhaseExternal]; ok {
		t.Error("external_force phase never ran but was reported")
	}
}

func TestPerfCollector_TimesSolverPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	s, err := fluid.NewSolver(fluid.DefaultParams(), fluid.WithPhaseTimer(pc))
	if err != nil {
		t.Fatalf("NewSolver: %v", err)
	}
	defer s.Close()
	s.SeedDam(nil)

	for i := 0; i < 3; i++ {
		pc.StartTick()
		if err := s.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		pc.EndTick()
	}

	stats := pc.Stats()
	for _, phase := range []string{fluid.PhaseSpatialGrid, fluid.PhaseDensity, fluid.PhaseForces, fluid.PhaseIntegrate} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %s not recorded", phase)
		}
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseSpatialGrid)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseIntegrate)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(fluid.PhaseDensity)
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct[fluid.PhaseIntegrate]
	slowPct := stats.PhasePct[fluid.PhaseDensity]
	if slowPct <= fastPct {
		t.Errorf("expected density phase (%v%%) > integrate phase (%v%%)", slowPct, fastPct)
	}

	row := stats.ToCSV(42)
	if row.WindowEnd != 42 || row.DensityPct != slowPct {
		t.Errorf("ToCSV = %+v", row)
	}
}

func TestPerfCollector_UnknownPhaseIgnored(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.StartTick()
	pc.StartPhase("bogus")
	pc.EndTick()

	stats := pc.Stats()
	if len(stats.PhaseAvg) != 0 {
		t.Errorf("PhaseAvg = %v, want empty", stats.PhaseAvg)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}
	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond) // ~60fps frame time
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}
}
