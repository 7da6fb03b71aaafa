package fish

import (
	"encoding/json"
	"fmt"
	"os"
)

type speciesJSON struct {
	Name      string  `json:"name"`
	Abundance float64 `json:"abundance"`
	ValueMin  float64 `json:"valueMin"`
	ValueMax  float64 `json:"valueMax"`
	WeightMin float64 `json:"weightMin"`
	WeightMax float64 `json:"weightMax"`
	IsTrash   bool    `json:"isTrash"`
}

// LoadSpeciesFromJSON reads a species definition file, used to seed the
// species table. Bounds are validated the same way NewCatalog validates
// them, so a bad file is rejected before it reaches storage.
func LoadSpeciesFromJSON(path string) ([]Species, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []speciesJSON
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, fmt.Errorf("parse species file: %w", err)
	}
	if len(arr) == 0 {
		return nil, ErrEmptyCatalog
	}

	species := make([]Species, len(arr))
	for i, sj := range arr {
		species[i] = Species{
			Name:      sj.Name,
			Abundance: sj.Abundance,
			ValueMin:  sj.ValueMin,
			ValueMax:  sj.ValueMax,
			WeightMin: sj.WeightMin,
			WeightMax: sj.WeightMax,
			IsTrash:   sj.IsTrash,
		}
	}

	// catalog construction runs the full validation pass
	if _, err := NewCatalog(species); err != nil {
		return nil, err
	}
	return species, nil
}
