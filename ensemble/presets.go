package ensemble

import (
	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/selection"
)

// Preset is a named, ready-made round shape. Presets only pick models and a
// strategy; callers still supply the conversation and knowledge context.
type Preset struct {
	Name        string
	Models      []string
	Strategy    string
	SelfCorrect bool
}

// Quick trades quality for latency and cost: two fast models, pick the most
// confident, no correction pass.
func Quick() Preset {
	return Preset{
		Name:     "quick",
		Models:   []string{"claude-haiku-4-5", "gpt-4o-mini"},
		Strategy: selection.NameConfidence,
	}
}

// Premium favors answer quality: three frontier models and a self-correction
// pass when the selection scores low.
func Premium() Preset {
	return Preset{
		Name:        "premium",
		Models:      []string{"claude-sonnet-4-5", "gpt-4o", "claude-opus-4-1"},
		Strategy:    selection.NameConfidence,
		SelfCorrect: true,
	}
}

// Request builds an ensemble request from the preset for one conversation.
func (p Preset) Request(turns []chorus.Turn, context []chorus.KnowledgeSnippet) chorus.EnsembleRequest {
	return chorus.EnsembleRequest{
		Models:      p.Models,
		Turns:       turns,
		Strategy:    p.Strategy,
		SelfCorrect: p.SelfCorrect,
		Context:     context,
	}
}
