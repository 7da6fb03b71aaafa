package fish

import (
	"fmt"
	"math"
	"time"
)

// Outcome is the result of resolving one catch. HasWeight is false for
// trash species, which carry no physical weight.
type Outcome struct {
	Species   Species
	Weight    float64
	HasWeight bool
	Value     float64
}

func (o Outcome) String() string {
	s := o.Species.Name
	if o.HasWeight {
		s = fmt.Sprintf("%s (%.1fkg)", s, o.Weight)
	}
	if math.Abs(o.Value) < 1e-9 {
		return s + " worth nothing"
	}
	return fmt.Sprintf("%s worth $%.2f", s, o.Value)
}

// Catch is the canonical persisted record used by handlers and stores.
type Catch struct {
	ID        int64
	Player    string
	Species   string
	Weight    float64
	HasWeight bool
	Value     float64
	CaughtAt  time.Time
}
