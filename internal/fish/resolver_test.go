package fish

import (
	"errors"
	"math"
	mrand "math/rand"
	"testing"
)

func testCatalog(t *testing.T, species ...Species) *Catalog {
	t.Helper()
	c, err := NewCatalog(species)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return c
}

func TestNewResolverEmptyCatalog(t *testing.T) {
	c, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	if _, err := NewResolver(c, nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}
	if _, err := NewResolver(nil, nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("nil catalog err = %v, want ErrEmptyCatalog", err)
	}
}

func TestResolveStaysInBounds(t *testing.T) {
	c := testCatalog(t,
		Species{Name: "Trout", Abundance: 70, ValueMin: 1, ValueMax: 5, WeightMin: 0.5, WeightMax: 3.0},
		Species{Name: "Boot", Abundance: 30, IsTrash: true},
	)
	r, err := NewResolver(c, mrand.New(mrand.NewSource(42)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	for i := 0; i < 5000; i++ {
		out := r.Resolve()
		switch out.Species.Name {
		case "Trout":
			if !out.HasWeight {
				t.Fatalf("trout has no weight")
			}
			if out.Weight < 0.5 || out.Weight > 3.0 {
				t.Fatalf("weight %g out of [0.5, 3.0]", out.Weight)
			}
			if out.Value < 1 || out.Value > 5 {
				t.Fatalf("value %g out of [1, 5]", out.Value)
			}
		case "Boot":
			if out.HasWeight {
				t.Fatalf("trash must not have a weight")
			}
			if out.Value != 0 {
				t.Fatalf("boot value = %g, want 0", out.Value)
			}
		default:
			t.Fatalf("unknown species %q", out.Species.Name)
		}
	}
}

func TestResolveFixedValueSpecies(t *testing.T) {
	c := testCatalog(t,
		Species{Name: "Skull", Abundance: 1, ValueMin: 50, ValueMax: 50, IsTrash: true},
	)
	r, err := NewResolver(c, mrand.New(mrand.NewSource(1)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	out := r.Resolve()
	if out.Value != 50 || out.HasWeight {
		t.Fatalf("got %+v, want fixed value 50 and no weight", out)
	}
}

func TestResolveDeterministicForFixedSeed(t *testing.T) {
	species := []Species{
		{Name: "Trout", Abundance: 70, ValueMin: 1, ValueMax: 5, WeightMin: 0.5, WeightMax: 3.0},
		{Name: "Duck", Abundance: 20, ValueMin: 5, ValueMax: 15, WeightMin: 2.0, WeightMax: 5.0},
		{Name: "Boot", Abundance: 10, IsTrash: true},
	}

	a, err := NewResolver(testCatalog(t, species...), mrand.New(mrand.NewSource(7)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	b, err := NewResolver(testCatalog(t, species...), mrand.New(mrand.NewSource(7)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	for i := 0; i < 100; i++ {
		x, y := a.Resolve(), b.Resolve()
		if x != y {
			t.Fatalf("draw %d diverged: %+v vs %+v", i, x, y)
		}
	}
}

func TestResolveSelectionFrequencies(t *testing.T) {
	c := testCatalog(t,
		Species{Name: "Common", Abundance: 70, ValueMin: 1, ValueMax: 2, WeightMin: 1, WeightMax: 2},
		Species{Name: "Uncommon", Abundance: 25, ValueMin: 1, ValueMax: 2, WeightMin: 1, WeightMax: 2},
		Species{Name: "Rare", Abundance: 5, ValueMin: 1, ValueMax: 2, WeightMin: 1, WeightMax: 2},
	)
	r, err := NewResolver(c, mrand.New(mrand.NewSource(1234)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	const n = 50000
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		counts[r.Resolve().Species.Name]++
	}

	want := map[string]float64{"Common": 0.70, "Uncommon": 0.25, "Rare": 0.05}
	for name, p := range want {
		got := float64(counts[name]) / n
		if math.Abs(got-p) > 0.01 {
			t.Fatalf("%s frequency = %.4f, want %.2f ± 0.01", name, got, p)
		}
	}
}

func TestRollDegenerateRange(t *testing.T) {
	c := testCatalog(t,
		Species{Name: "Brick", Abundance: 1, ValueMin: 3, ValueMax: 3, WeightMin: 2, WeightMax: 2},
	)
	r, err := NewResolver(c, mrand.New(mrand.NewSource(1)))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	out := r.Resolve()
	if out.Value != 3 || out.Weight != 2 {
		t.Fatalf("degenerate range not constant: %+v", out)
	}
}
