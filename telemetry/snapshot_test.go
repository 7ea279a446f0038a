package telemetry

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sphfluid/fluid"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	particles := []fluid.Particle{
		fluid.NewParticle(r2.Vec{X: 300, Y: 16}),
		fluid.NewParticle(r2.Vec{X: 316.5, Y: 32}),
	}
	particles[1].SetVelocity(r2.Vec{X: 0.5, Y: -0.3})

	snapshot := NewSnapshot(fluid.DefaultParams(), 42, 1000, particles, &Bookmark{
		Type:        BookmarkSplash,
		Tick:        1000,
		Description: "Test bookmark",
	})

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != SnapshotVersion {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, SnapshotVersion)
	}
	if loaded.RNGSeed != 42 {
		t.Errorf("RNGSeed mismatch: got %d, want 42", loaded.RNGSeed)
	}
	if loaded.Tick != 1000 {
		t.Errorf("Tick mismatch: got %d, want 1000", loaded.Tick)
	}
	if loaded.Params != fluid.DefaultParams() {
		t.Errorf("Params mismatch: got %+v", loaded.Params)
	}
	if len(loaded.Particles) != 2 {
		t.Fatalf("Particles count mismatch: got %d, want 2", len(loaded.Particles))
	}
	if got := loaded.Particles[1]; got != (ParticleState{X: 316.5, Y: 32, VelX: 0.5, VelY: -0.3}) {
		t.Errorf("Particle 1 = %+v", got)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != BookmarkSplash {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, BookmarkSplash)
	}
}

func TestSnapshotRestore(t *testing.T) {
	solver, err := fluid.NewSolver(fluid.DefaultParams())
	if err != nil {
		t.Fatalf("NewSolver() error: %v", err)
	}
	defer solver.Close()
	solver.AddParticle(r2.Vec{X: 1, Y: 1})

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Particles: []ParticleState{
			{X: 600, Y: 450, VelX: 1, VelY: 2},
			{X: 610, Y: 450},
		},
	}
	snapshot.Restore(solver)

	ps := solver.Particles()
	if len(ps) != 2 {
		t.Fatalf("Count() = %d, want 2", len(ps))
	}
	if got := ps[0].Position(); got != (r2.Vec{X: 600, Y: 450}) {
		t.Errorf("particle 0 position = %v", got)
	}
	if got := ps[0].Velocity(); got != (r2.Vec{X: 1, Y: 2}) {
		t.Errorf("particle 0 velocity = %v", got)
	}
	if err := solver.Step(); err != nil {
		t.Errorf("Step() after Restore: %v", err)
	}
}

func TestSnapshotRestoreIsAtomic(t *testing.T) {
	solver, err := fluid.NewSolver(fluid.DefaultParams())
	if err != nil {
		t.Fatalf("NewSolver() error: %v", err)
	}
	defer solver.Close()
	for i := 0; i < 3; i++ {
		solver.AddParticle(r2.Vec{X: 300 + 16*float64(i), Y: 100})
	}

	snapshot := &Snapshot{Version: SnapshotVersion, Particles: make([]ParticleState, 400)}
	for i := range snapshot.Particles {
		snapshot.Particles[i] = ParticleState{X: 100 + float64(i%40)*16, Y: 100 + float64(i/40)*16}
	}

	stop := make(chan struct{})
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				seen[solver.Count()] = true
			}
		}
	}()

	for i := 0; i < 20; i++ {
		snapshot.Restore(solver)
	}
	close(stop)
	wg.Wait()

	for n := range seen {
		if n != 3 && n != len(snapshot.Particles) {
			t.Errorf("reader saw a partial particle set of %d", n)
		}
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkDensitySpike,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_density_spike.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	snapshotNoBookmark := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(snapshotNoBookmark, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("LoadSnapshot accepted an unknown version")
	}
}
