package fluid

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestSpatialGridKey(t *testing.T) {
	g := NewSpatialGrid(16)

	tests := []struct {
		name string
		pos  r2.Vec
		want int64
	}{
		{"origin", r2.Vec{X: 0, Y: 0}, 0},
		{"first cell x", r2.Vec{X: 16, Y: 0}, 73856093},
		{"first cell y", r2.Vec{X: 15.9, Y: 16}, 19349663},
		{"negative floors down", r2.Vec{X: -0.5, Y: 0}, -73856093},
		{"both axes", r2.Vec{X: 40, Y: 33}, 2*73856093 + 2*19349663},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.KeyOf(tt.pos); got != tt.want {
				t.Errorf("KeyOf(%v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestNeighborKeys(t *testing.T) {
	g := NewSpatialGrid(16)
	pos := r2.Vec{X: 100, Y: 50}
	keys := g.NeighborKeys(pos)

	// Centre of the 3x3 block is the containing cell.
	if keys[4] != g.KeyOf(pos) {
		t.Errorf("keys[4] = %d, want own key %d", keys[4], g.KeyOf(pos))
	}

	cx, cy := g.CellOf(pos)
	want := map[int64]bool{}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			want[Key(cx+dx, cy+dy)] = true
		}
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected key %d", k)
		}
	}
}

func TestBucketAbsentKey(t *testing.T) {
	g := NewSpatialGrid(16)
	if b := g.Bucket(12345); len(b) != 0 {
		t.Errorf("Bucket on empty grid = %v, want empty", b)
	}
}

func TestSpatialGridClear(t *testing.T) {
	g := NewSpatialGrid(16)
	g.Insert(0, r2.Vec{X: 1, Y: 1})
	g.Insert(1, r2.Vec{X: 2, Y: 2})
	g.Insert(2, r2.Vec{X: 100, Y: 100})

	if g.Len() != 3 {
		t.Errorf("Len() = %d, want 3", g.Len())
	}
	if g.Cells() != 2 {
		t.Errorf("Cells() = %d, want 2", g.Cells())
	}
	if b := g.Bucket(g.KeyOf(r2.Vec{X: 1, Y: 1})); len(b) != 2 {
		t.Errorf("bucket size = %d, want 2", len(b))
	}

	g.Clear()
	if g.Len() != 0 || g.Cells() != 0 {
		t.Errorf("after Clear: Len() = %d, Cells() = %d, want 0, 0", g.Len(), g.Cells())
	}
	if b := g.Bucket(g.KeyOf(r2.Vec{X: 1, Y: 1})); len(b) != 0 {
		t.Errorf("bucket after Clear = %v, want empty", b)
	}
}

func TestEveryIndexInExactlyOneBucket(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewSpatialGrid(16)
	const n = 300
	for i := 0; i < n; i++ {
		g.Insert(i, r2.Vec{X: rng.Float64()*400 - 200, Y: rng.Float64()*400 - 200})
	}

	seen := make([]int, n)
	for _, b := range g.cells {
		for _, idx := range b {
			seen[idx]++
		}
	}
	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d stored %d times, want 1", i, c)
		}
	}
}

// Every pair closer than the cell size must be found through the 3x3 block.
func TestNeighborCompleteness(t *testing.T) {
	const h = 16.0
	rng := rand.New(rand.NewSource(1))
	g := NewSpatialGrid(h)

	pts := make([]r2.Vec, 400)
	for i := range pts {
		pts[i] = r2.Vec{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100}
		g.Insert(i, pts[i])
	}

	var candidates []int
	for i := range pts {
		candidates = g.CandidatesInto(candidates[:0], pts[i])
		found := make(map[int]bool, len(candidates))
		for _, j := range candidates {
			found[j] = true
		}
		for j := range pts {
			if r2.Norm(r2.Sub(pts[j], pts[i])) < h && !found[j] {
				t.Fatalf("pair (%d, %d) at distance %v not in candidates", i, j, r2.Norm(r2.Sub(pts[j], pts[i])))
			}
		}
	}
}

func TestCandidatesIntoNoDuplicates(t *testing.T) {
	g := NewSpatialGrid(16)
	for i := 0; i < 9; i++ {
		g.Insert(i, r2.Vec{X: float64(i%3)*16 + 1, Y: float64(i/3)*16 + 1})
	}

	got := g.CandidatesInto(nil, r2.Vec{X: 17, Y: 17})
	if len(got) != 9 {
		t.Fatalf("len(candidates) = %d, want 9", len(got))
	}
	seen := map[int]bool{}
	for _, j := range got {
		if seen[j] {
			t.Errorf("index %d returned twice", j)
		}
		seen[j] = true
	}
}
