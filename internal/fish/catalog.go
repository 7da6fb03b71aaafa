package fish

import (
	"fmt"
	"sort"
)

// Catalog is an immutable, name-sorted view of the configured species.
// Reloads build a fresh Catalog and swap the reference; a Catalog is never
// mutated after construction, so one instance can back many concurrent
// resolutions.
type Catalog struct {
	ordered []Species
	byName  map[string]Species
	total   float64
}

// NewCatalog validates the species set and builds a catalog. Malformed
// bounds are rejected here, not at resolution time.
func NewCatalog(species []Species) (*Catalog, error) {
	ordered := make([]Species, len(species))
	copy(ordered, species)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	byName := make(map[string]Species, len(ordered))
	total := 0.0
	for _, sp := range ordered {
		if err := sp.validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[sp.Name]; dup {
			return nil, fmt.Errorf("duplicate species %q", sp.Name)
		}
		byName[sp.Name] = sp
		total += sp.Abundance
	}

	return &Catalog{ordered: ordered, byName: byName, total: total}, nil
}

// Snapshot returns the species in stable name order.
func (c *Catalog) Snapshot() []Species {
	out := make([]Species, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Lookup(name string) (Species, bool) {
	sp, ok := c.byName[name]
	return sp, ok
}

func (c *Catalog) Len() int { return len(c.ordered) }

// TotalAbundance is the sum of selection weights across the catalog.
func (c *Catalog) TotalAbundance() float64 { return c.total }

// Chance is the probability of catching sp on a single attempt.
func (c *Catalog) Chance(name string) float64 {
	sp, ok := c.byName[name]
	if !ok || c.total <= 0 {
		return 0
	}
	return sp.Abundance / c.total
}

// DefaultSpecies is the seed catalog used when the species table is empty.
func DefaultSpecies() []Species {
	return []Species{
		{Name: "Old Boot", Abundance: 400, IsTrash: true},
		{Name: "Bomb", Abundance: 200, IsTrash: true},
		{Name: "Duck", Abundance: 150, ValueMin: 5, ValueMax: 15, WeightMin: 2.0, WeightMax: 5.0},
		{Name: "Fish", Abundance: 100, ValueMin: 10, ValueMax: 30, WeightMin: 0.2, WeightMax: 5.0},
		{Name: "Skull", Abundance: 50, ValueMin: 50, ValueMax: 50, IsTrash: true},
		{Name: "FishMoley", Abundance: 90, ValueMin: 50, ValueMax: 150, WeightMin: 3.5, WeightMax: 10.0},
		{Name: "Hhhehehe", Abundance: 10, ValueMin: 200, ValueMax: 200, IsTrash: true},
	}
}
