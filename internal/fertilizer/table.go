package fertilizer

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

//go:embed data/fertilizers.yaml
var fertilizersYAML []byte

// Entry is what the table holds for one soil/crop pair.
type Entry struct {
	Fertilizer   string   `yaml:"fertilizer"`
	Alternatives []string `yaml:"alternatives"`
	Note         string   `yaml:"note"`
}

// Table maps soil type then crop type to an entry. It is never modified
// after ParseTable returns.
type Table struct {
	entries map[entities.SoilType]map[entities.CropType]Entry
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the bundled table.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(fertilizersYAML)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// ParseTable reads the YAML form and rejects unknown soil or crop keys.
func ParseTable(raw []byte) (*Table, error) {
	var m map[string]map[string]Entry
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse fertilizer table: %w", err)
	}
	t := &Table{entries: make(map[entities.SoilType]map[entities.CropType]Entry, len(m))}
	for soilKey, crops := range m {
		soil := entities.ParseSoilType(soilKey)
		if !soil.Valid() {
			return nil, fmt.Errorf("fertilizer table: unknown soil type %q", soilKey)
		}
		inner := make(map[entities.CropType]Entry, len(crops))
		for cropKey, e := range crops {
			crop := entities.ParseCropType(cropKey)
			if !crop.Valid() {
				return nil, fmt.Errorf("fertilizer table: unknown crop type %q under %s", cropKey, soil)
			}
			if e.Fertilizer == "" {
				return nil, fmt.Errorf("fertilizer table: %s/%s has no fertilizer", soil, crop)
			}
			inner[crop] = e
		}
		t.entries[soil] = inner
	}
	return t, nil
}

// Lookup returns the entry for the pair, if the table has one.
func (t *Table) Lookup(soil entities.SoilType, crop entities.CropType) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[soil][crop]
	if !ok {
		return Entry{}, false
	}
	e.Alternatives = append([]string(nil), e.Alternatives...)
	return e, true
}

// Len is the number of soil/crop pairs in the table.
func (t *Table) Len() int {
	n := 0
	for _, inner := range t.entries {
		n += len(inner)
	}
	return n
}
