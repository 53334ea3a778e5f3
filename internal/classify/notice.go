package classify

import (
	"strings"

	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/model"
)

// NoticeClassifier is the primary strategy. With markup available it
// reads only the labeled notice blocks; without markup it trusts only
// the direct mechanism marker in page text.
type NoticeClassifier struct {
	rules *compiledRules
}

// NewNoticeClassifier compiles the ruleset into the primary strategy.
func NewNoticeClassifier(rs Ruleset) (*NoticeClassifier, error) {
	cr, err := rs.compile()
	if err != nil {
		return nil, err
	}
	return &NoticeClassifier{rules: cr}, nil
}

func (c *NoticeClassifier) Name() string { return "notice_blocks" }

// Classify applies the tiered evaluation to one item.
func (c *NoticeClassifier) Classify(in Input) Result {
	res := Result{Strategy: c.Name(), Verdict: model.VerdictInconclusive}

	text := strings.ToLower(in.Text)
	res.Evidence.AntiCheat = matchSubstrings(text, c.rules.anti)
	res.Evidence.MetadataPhrases = matchPhrases([]string{metadataText(in.Record)}, c.rules.block)

	if in.HTML != "" {
		blocks := extract.LabeledBlocks(in.HTML, c.rules.blockClass)
		for _, b := range blocks {
			if strings.Contains(b, c.rules.marker) {
				res.Evidence.DirectMarker = true
				res.Verdict = model.VerdictAffirmative
				return res
			}
		}
		res.Evidence.BlockPhrases = matchPhrases(blocks, c.rules.block)
		if len(res.Evidence.BlockPhrases) > 0 {
			res.Verdict = model.VerdictAffirmative
		}
		return res
	}

	// No markup survived the fetch. Launcher phrases are not trusted in
	// free text, so only the direct marker can decide here.
	if strings.Contains(text, c.rules.marker) {
		res.Evidence.TextMarker = true
		res.Verdict = model.VerdictAffirmative
	}
	return res
}
