// Package chat answers farming questions from a small keyword knowledge
// base, with an optional remote assistant for questions it cannot match.
package chat

import (
	"context"
	"strings"

	"github.com/LeonardoBeccarini/eco_crop_advisor/internal/logging"
)

// Asker is a remote assistant.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceRemote        Source = "remote"
	SourceFallback      Source = "fallback"
)

type Reply struct {
	Text   string `json:"reply"`
	Source Source `json:"source"`
	Topic  string `json:"topic,omitempty"`
}

type Responder struct {
	kb     *KnowledgeBase
	remote Asker
}

// NewResponder answers from kb; remote may be nil.
func NewResponder(kb *KnowledgeBase, remote Asker) *Responder {
	return &Responder{kb: kb, remote: remote}
}

func (r *Responder) Greeting() string { return r.kb.Greeting }

// Reply never fails: remote errors and empty remote answers give the
// canned fallback.
func (r *Responder) Reply(ctx context.Context, question string) Reply {
	if e, _, ok := r.kb.Match(question); ok {
		return Reply{Text: e.Response, Source: SourceKnowledgeBase, Topic: e.Topic}
	}
	if r.remote != nil {
		text, err := r.remote.Ask(ctx, question)
		if err == nil && strings.TrimSpace(text) != "" {
			return Reply{Text: strings.TrimSpace(text), Source: SourceRemote}
		}
		if err != nil {
			logging.Warn().Err(err).Msg("chat: remote assistant failed, using fallback")
		}
	}
	return Reply{Text: r.kb.Fallback, Source: SourceFallback}
}
