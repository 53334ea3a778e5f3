package classify

import (
	"strings"

	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/model"
)

// DeepScanClassifier is the fallback strategy for items the primary left
// inconclusive. It widens the lexicon and checks the direct marker over
// the raw page source plus the short description, trading precision for
// recall. It reads only the first notice block it finds.
type DeepScanClassifier struct {
	rules *compiledRules
}

// NewDeepScanClassifier compiles the ruleset into the fallback strategy.
func NewDeepScanClassifier(rs Ruleset) (*DeepScanClassifier, error) {
	cr, err := rs.compile()
	if err != nil {
		return nil, err
	}
	return &DeepScanClassifier{rules: cr}, nil
}

func (c *DeepScanClassifier) Name() string { return "deep_scan" }

// Classify re-evaluates one item with the wider lexicon.
func (c *DeepScanClassifier) Classify(in Input) Result {
	res := Result{Strategy: c.Name(), Verdict: model.VerdictInconclusive}

	var shortDesc string
	if in.Record != nil {
		shortDesc = in.Record.ShortDescription
	}
	haystack := strings.ToLower(in.HTML + "\n" + shortDesc)

	res.Evidence.AntiCheat = matchSubstrings(haystack, c.rules.anti)

	if in.HTML != "" {
		blocks := extract.LabeledBlocks(in.HTML, c.rules.deepBlockClass)
		if len(blocks) > 1 {
			blocks = blocks[:1]
		}
		res.Evidence.BlockPhrases = matchPhrases(blocks, c.rules.deep)
	}

	if strings.Contains(haystack, c.rules.marker) {
		res.Evidence.TextMarker = true
	}

	if res.Evidence.TextMarker || len(res.Evidence.BlockPhrases) > 0 {
		res.Verdict = model.VerdictAffirmative
	}
	return res
}
