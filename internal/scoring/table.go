package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/model/entities"
)

//go:embed data/crops.yaml
var cropsYAML []byte

// Table is an immutable set of crop profiles. The zero value is an empty table.
type Table struct {
	version  string
	profiles []entities.CropProfile
}

type tableFile struct {
	Version string                 `yaml:"version"`
	Crops   []entities.CropProfile `yaml:"crops"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the bundled reference table, parsed on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = MustParse(cropsYAML)
	})
	return defaultTable
}

// NewTable copies profiles into a new table.
func NewTable(profiles []entities.CropProfile) *Table {
	cp := make([]entities.CropProfile, len(profiles))
	copy(cp, profiles)
	return &Table{profiles: cp}
}

// Parse reads a table from its YAML form. Names must be present and unique.
func Parse(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse crop table: %w", err)
	}
	if len(f.Crops) == 0 {
		return nil, errors.New("crop table is empty")
	}
	seen := make(map[string]bool, len(f.Crops))
	for i, c := range f.Crops {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			return nil, fmt.Errorf("crop table entry %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("crop table has duplicate entry %q", name)
		}
		seen[name] = true
	}
	t := NewTable(f.Crops)
	t.version = f.Version
	return t, nil
}

func MustParse(raw []byte) *Table {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Version() string { return t.version }

func (t *Table) Len() int { return len(t.profiles) }

// Profiles returns a copy of the profiles in table order.
func (t *Table) Profiles() []entities.CropProfile {
	cp := make([]entities.CropProfile, len(t.profiles))
	copy(cp, t.profiles)
	return cp
}

// Lookup finds a profile by name, ignoring case.
func (t *Table) Lookup(name string) (entities.CropProfile, bool) {
	for _, p := range t.profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return entities.CropProfile{}, false
}

// Rank ranks the whole table against query.
func (t *Table) Rank(query entities.FeatureVector) []entities.ScoredCrop {
	return Rank(query, t.profiles)
}

// Recommend ranks the table and keeps the primary plus alternatives.
func (t *Table) Recommend(query entities.FeatureVector) entities.Recommendation {
	return Recommend(t.Rank(query))
}
