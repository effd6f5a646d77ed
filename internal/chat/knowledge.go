package chat

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/knowledge.yaml
var knowledgeYAML []byte

// Entry is one topic of the knowledge base.
type Entry struct {
	Topic    string   `yaml:"topic" json:"topic"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Response string   `yaml:"response" json:"response"`
}

// KnowledgeBase is read-only once parsed.
type KnowledgeBase struct {
	Greeting string  `yaml:"greeting"`
	Fallback string  `yaml:"fallback"`
	Entries  []Entry `yaml:"entries"`
}

var (
	defaultOnce sync.Once
	defaultKB   *KnowledgeBase
)

// DefaultKnowledgeBase returns the bundled knowledge base.
func DefaultKnowledgeBase() *KnowledgeBase {
	defaultOnce.Do(func() {
		kb, err := ParseKnowledgeBase(knowledgeYAML)
		if err != nil {
			panic(err)
		}
		defaultKB = kb
	})
	return defaultKB
}

func ParseKnowledgeBase(raw []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(raw, &kb); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if strings.TrimSpace(kb.Fallback) == "" {
		return nil, errors.New("knowledge base has no fallback answer")
	}
	for i, e := range kb.Entries {
		if len(e.Keywords) == 0 || strings.TrimSpace(e.Response) == "" {
			return nil, fmt.Errorf("knowledge base entry %d (%s) needs keywords and a response", i, e.Topic)
		}
		for j, k := range e.Keywords {
			kb.Entries[i].Keywords[j] = strings.ToLower(k)
		}
	}
	return &kb, nil
}

// Match returns the entry with the most keywords contained in question,
// case-insensitively. Ties go to the earliest entry. ok is false when no
// keyword matches at all.
func (kb *KnowledgeBase) Match(question string) (best Entry, hits int, ok bool) {
	q := strings.ToLower(question)
	for _, e := range kb.Entries {
		n := 0
		for _, k := range e.Keywords {
			if strings.Contains(q, k) {
				n++
			}
		}
		if n > hits {
			best, hits = e, n
		}
	}
	return best, hits, hits > 0
}
