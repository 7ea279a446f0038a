package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/sphfluid/fluid"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(0.7, 0.0007)
	if got := c.WindowDurationTicks(); got != 1000 {
		t.Fatalf("WindowDurationTicks() = %d, want 1000", got)
	}

	if c.ShouldFlush(999) {
		t.Error("ShouldFlush(999) = true before window end")
	}
	if !c.ShouldFlush(1000) {
		t.Error("ShouldFlush(1000) = false at window end")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1, 0.5) // two ticks per window
	c.RecordStep(fluid.StepStats{BoundaryHits: 2, DragEvents: 1, DragParticles: 5})
	c.RecordStep(fluid.StepStats{BoundaryHits: 1, Degenerate: 3})

	ps := particlesWith([]float64{1, 3}, []float64{0, 2})
	stats := c.Flush(2, ps, 1)

	if stats.Steps != 2 || stats.BoundaryHits != 3 || stats.DragEvents != 1 ||
		stats.DragParticles != 5 || stats.Degenerate != 3 {
		t.Errorf("counters = %+v", stats)
	}
	if stats.Particles != 2 || stats.DensityMean != 2 || stats.MaxSpeed != 2 {
		t.Errorf("particle summary = %+v", stats)
	}
	if stats.SimTimeSec != 1 {
		t.Errorf("SimTimeSec = %v, want 1", stats.SimTimeSec)
	}

	// Counters reset for the next window
	next := c.Flush(4, nil, 1)
	if next.WindowStartTick != 2 || next.Steps != 0 || next.BoundaryHits != 0 {
		t.Errorf("next window = %+v", next)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for tick := int64(1000); tick <= 3000; tick += 1000 {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: tick, Particles: 200}); err != nil {
			t.Fatalf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{}, 1000); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Tick: 3000, Description: "flat"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,particles,") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header written more than once")
	}

	if _, err := os.Stat(filepath.Join(dir, "perf.csv")); err != nil {
		t.Errorf("perf.csv missing: %v", err)
	}

	bms, err := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "type,tick,description\nsettled,3000,flat\n"; string(bms) != want {
		t.Errorf("bookmarks.csv = %q, want %q", bms, want)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil manager discards writes
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil manager: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("Dir() = %q, want empty", om.Dir())
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}
