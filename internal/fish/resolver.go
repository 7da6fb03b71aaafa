package fish

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

// Resolver performs weighted species selection against one catalog
// snapshot and derives a concrete weight and value for each catch.
// Resolution has no side effects; given the same rng sequence and the
// same catalog it produces the same outcomes.
type Resolver struct {
	species    []Species
	cumulative []float64
	total      float64

	mu  sync.Mutex
	rng *mrand.Rand
}

// NewResolver builds a resolver over a catalog snapshot. Pass a seeded
// rng for deterministic outcomes; nil uses a crypto-seeded source.
func NewResolver(c *Catalog, rng *mrand.Rand) (*Resolver, error) {
	if c == nil || c.Len() == 0 || c.TotalAbundance() <= 0 {
		return nil, ErrEmptyCatalog
	}

	if rng == nil {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
		} else {
			rng = mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
		}
	}

	species := c.Snapshot()
	cumulative := make([]float64, len(species))
	total := 0.0
	for i, sp := range species {
		total += sp.Abundance
		cumulative[i] = total
	}

	return &Resolver{
		species:    species,
		cumulative: cumulative,
		total:      total,
		rng:        rng,
	}, nil
}

// Resolve rolls one catch: species by cumulative-weight search over
// [0, total), then weight and value within the species bounds.
func (r *Resolver) Resolve() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	sp := r.species[r.pickLocked()]

	out := Outcome{Species: sp}
	if sp.IsTrash {
		// degenerate range, fixed value
		out.Value = sp.ValueMin
		return out
	}

	out.Weight = r.rollLocked(sp.WeightMin, sp.WeightMax)
	out.HasWeight = true
	out.Value = r.rollLocked(sp.ValueMin, sp.ValueMax)
	return out
}

// pickLocked maps a uniform draw in [0, total) to the species whose
// half-open cumulative interval contains it.
func (r *Resolver) pickLocked() int {
	roll := r.rng.Float64() * r.total

	lo, hi := 0, len(r.cumulative)-1
	for lo < hi {
		mid := (lo + hi) >> 1
		if roll < r.cumulative[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (r *Resolver) rollLocked(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.rng.Float64()*(max-min)
}
