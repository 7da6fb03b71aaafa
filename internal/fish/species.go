package fish

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCatalog    = errors.New("species catalog is empty")
	ErrSpeciesNotFound = errors.New("species not found")
)

// Species is one configured kind of catch. Trash species carry no
// physical weight and a fixed value; everything else rolls a weight in
// [WeightMin, WeightMax] and a value in [ValueMin, ValueMax].
type Species struct {
	Name      string
	Abundance float64 // relative selection weight (higher = more common)
	ValueMin  float64
	ValueMax  float64
	WeightMin float64 // in kg
	WeightMax float64
	IsTrash   bool
}

func (sp Species) validate() error {
	if sp.Name == "" {
		return errors.New("species has no name")
	}
	if sp.Abundance <= 0 {
		return fmt.Errorf("species %q: abundance must be positive, got %g", sp.Name, sp.Abundance)
	}
	if sp.ValueMin > sp.ValueMax {
		return fmt.Errorf("species %q: value bounds inverted (%g > %g)", sp.Name, sp.ValueMin, sp.ValueMax)
	}
	if sp.IsTrash {
		if sp.ValueMin != sp.ValueMax {
			return fmt.Errorf("species %q: trash must have a fixed value", sp.Name)
		}
		return nil
	}
	if sp.WeightMin > sp.WeightMax {
		return fmt.Errorf("species %q: weight bounds inverted (%g > %g)", sp.Name, sp.WeightMin, sp.WeightMax)
	}
	return nil
}

// HasWeight reports whether catching this species produces a physical weight.
func (sp Species) HasWeight() bool {
	return !sp.IsTrash
}
