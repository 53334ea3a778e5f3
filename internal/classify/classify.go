// Package classify turns a fetched item's text into a protection verdict.
//
// Evidence is tiered: phrases found inside labeled notice blocks are the
// only tier trusted to return an affirmative verdict, because free page
// text is full of marketing copy that name-drops the same launchers and
// services. Anti-cheat markers and phrases found in publisher or
// developer names are recorded but never decide on their own.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/model"
)

// Input carries everything a strategy may inspect for one item. HTML and
// Text are empty when the page fetch degraded; strategies must still
// return a verdict.
type Input struct {
	Record *model.Record
	HTML   string
	Text   string
}

// Evidence records what a strategy saw, match by match. It survives into
// logs and inspection output so a verdict can be audited.
type Evidence struct {
	BlockPhrases    []string `json:"phrases_found,omitempty"`
	DirectMarker    bool     `json:"direct_marker"`
	TextMarker      bool     `json:"text_marker"`
	AntiCheat       []string `json:"anti,omitempty"`
	MetadataPhrases []string `json:"metadata_phrases,omitempty"`
}

// Result is one strategy's answer.
type Result struct {
	Verdict  model.Verdict `json:"verdict"`
	Evidence Evidence      `json:"evidence"`
	Strategy string        `json:"strategy"`
}

// Strategy classifies one item. Implementations are pure text analysis
// over the Input; they never fetch.
type Strategy interface {
	Name() string
	Classify(in Input) Result
}

// Engine runs the primary strategy and, while the verdict stays
// inconclusive, each fallback in order. The first affirmative answer
// wins; if none arrives, the primary's result stands since it is the
// trusted tier.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an Engine. The first strategy is the primary.
func NewEngine(primary Strategy, fallbacks ...Strategy) *Engine {
	return &Engine{strategies: append([]Strategy{primary}, fallbacks...)}
}

// Classify evaluates in against the chain. An all-inconclusive chain
// answers with the primary's result carrying the union of every
// strategy's evidence, so an audit sees what the fallbacks found too.
func (e *Engine) Classify(in Input) Result {
	var out Result
	for i, s := range e.strategies {
		res := s.Classify(in)
		if res.Verdict.Affirmative() {
			return res
		}
		if i == 0 {
			out = res
		} else {
			out.Evidence = mergeEvidence(out.Evidence, res.Evidence)
		}
		if i < len(e.strategies)-1 {
			zap.L().Debug("classifier inconclusive, trying next",
				zap.String("strategy", s.Name()),
			)
		}
	}
	return out
}

func mergeEvidence(a, b Evidence) Evidence {
	a.BlockPhrases = appendNew(a.BlockPhrases, b.BlockPhrases)
	a.AntiCheat = appendNew(a.AntiCheat, b.AntiCheat)
	a.MetadataPhrases = appendNew(a.MetadataPhrases, b.MetadataPhrases)
	a.DirectMarker = a.DirectMarker || b.DirectMarker
	a.TextMarker = a.TextMarker || b.TextMarker
	return a
}

func appendNew(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}

// metadataText joins the developer and publisher names of a record into
// one lowercased haystack.
func metadataText(rec *model.Record) string {
	if rec == nil {
		return ""
	}
	parts := make([]string, 0, len(rec.Developers)+len(rec.Publishers))
	parts = append(parts, rec.Developers...)
	parts = append(parts, rec.Publishers...)
	return strings.ToLower(strings.Join(parts, " "))
}
