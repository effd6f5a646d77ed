// Package guides serves the static farming guides (seasonal crops, soil
// health, sustainable farming).
package guides

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/guides.yaml
var guidesYAML []byte

var ErrUnknownTopic = errors.New("unknown guide topic")

type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body"`
}

type Guide struct {
	Slug     string    `yaml:"slug" json:"slug"`
	Title    string    `yaml:"title" json:"title"`
	Sections []Section `yaml:"sections" json:"sections"`
}

// Summary is a guide without its sections, for listings.
type Summary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type Library struct {
	guides []Guide
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := Parse(guidesYAML)
		if err != nil {
			panic(err)
		}
		defaultLib = lib
	})
	return defaultLib
}

func Parse(raw []byte) (*Library, error) {
	var gs []Guide
	if err := yaml.Unmarshal(raw, &gs); err != nil {
		return nil, fmt.Errorf("parse guides: %w", err)
	}
	seen := map[string]bool{}
	for _, g := range gs {
		if g.Slug == "" || seen[g.Slug] {
			return nil, fmt.Errorf("guides: missing or duplicate slug %q", g.Slug)
		}
		seen[g.Slug] = true
	}
	return &Library{guides: gs}, nil
}

func (l *Library) List() []Summary {
	out := make([]Summary, 0, len(l.guides))
	for _, g := range l.guides {
		out = append(out, Summary{Slug: g.Slug, Title: g.Title})
	}
	return out
}

// Get returns a copy of the guide, or ErrUnknownTopic.
func (l *Library) Get(slug string) (Guide, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, g := range l.guides {
		if g.Slug == slug {
			g.Sections = append([]Section(nil), g.Sections...)
			return g, nil
		}
	}
	return Guide{}, fmt.Errorf("%w: %s", ErrUnknownTopic, slug)
}
