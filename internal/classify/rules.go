package classify

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Ruleset is the lexicon the classifiers match against. Every list is
// matched case-insensitively; phrases are whole-word matches, the direct
// marker a plain substring.
type Ruleset struct {
	// BlockClassPattern selects the notice containers whose text is
	// trusted for phrase evidence.
	BlockClassPattern string `yaml:"block_class_pattern"`

	// DeepBlockClassPattern narrows the containers the deep scan reads.
	DeepBlockClassPattern string `yaml:"deep_block_class_pattern"`

	// DirectMarker is the one mechanism name trusted on sight.
	DirectMarker string `yaml:"direct_marker"`

	// BlockPhrases are account-requirement and launcher phrasings trusted
	// only inside notice blocks.
	BlockPhrases []string `yaml:"block_phrases"`

	// DeepPhrases is the wider, noisier list the deep scan uses.
	DeepPhrases []string `yaml:"deep_phrases"`

	// AntiCheatMarkers are recorded as auxiliary evidence only.
	AntiCheatMarkers []string `yaml:"anti_cheat_markers"`
}

// DefaultRuleset returns the built-in lexicon.
func DefaultRuleset() Ruleset {
	blockPhrases := []string{
		"ea app",
		"requires ea account",
		"requires ubisoft account",
		"requires rockstar account",
		"requires activision",
		"requires epic account",
		"login with epic",
		"electronic arts", "ea games", "ea sports",
		"ubisoft", "uplay", "ubisoft connect",
		"rockstar games", "social club",
		"activision", "battle.net", "battlenet",
		"epic games", "epic online services", "denuvo",
	}
	deepPhrases := []string{
		"ea app", "drm",
		"requires ea account",
		"requires ubisoft account",
		"requires rockstar account",
		"requires activision",
		"requires epic account",
		"login with epic",
		"electronic arts", "ea", "ea games", "ea sports",
		"ubisoft", "uplay", "ubisoft connect",
		"rockstar games", "social club",
		"activision", "battle.net", "battlenet",
		"epic games", "epic online services", "rockstar", "epic", "denuvo",
	}
	return Ruleset{
		BlockClassPattern:     `drm[_\-\s]?notice|anticheat_section`,
		DeepBlockClassPattern: `drm[_\-\s]?notice`,
		DirectMarker:          "denuvo",
		BlockPhrases:          blockPhrases,
		DeepPhrases:           deepPhrases,
		AntiCheatMarkers:      []string{"easy anti-cheat", "eac", "battleye", "vac"},
	}
}

// LoadRuleset reads a YAML lexicon from path. Omitted fields keep their
// built-in values, so a file can override a single list.
func LoadRuleset(path string) (Ruleset, error) {
	rs := DefaultRuleset()
	data, err := os.ReadFile(path)
	if err != nil {
		return rs, eris.Wrapf(err, "classify: read rules %s", path)
	}

	var override Ruleset
	if err := yaml.Unmarshal(data, &override); err != nil {
		return rs, eris.Wrap(err, "classify: parse rules")
	}

	if override.BlockClassPattern != "" {
		rs.BlockClassPattern = override.BlockClassPattern
	}
	if override.DeepBlockClassPattern != "" {
		rs.DeepBlockClassPattern = override.DeepBlockClassPattern
	}
	if override.DirectMarker != "" {
		rs.DirectMarker = override.DirectMarker
	}
	if override.BlockPhrases != nil {
		rs.BlockPhrases = override.BlockPhrases
	}
	if override.DeepPhrases != nil {
		rs.DeepPhrases = override.DeepPhrases
	}
	if override.AntiCheatMarkers != nil {
		rs.AntiCheatMarkers = override.AntiCheatMarkers
	}
	return rs, nil
}

// phrasePattern is one compiled lexicon entry. A phrase that cannot
// compile as a word-boundary pattern degrades to a substring match.
type phrasePattern struct {
	phrase string
	re     *regexp.Regexp
}

type compiledRules struct {
	blockClass     *regexp.Regexp
	deepBlockClass *regexp.Regexp
	marker         string
	block          []phrasePattern
	deep           []phrasePattern
	anti           []string
}

func (r Ruleset) compile() (*compiledRules, error) {
	blockClass, err := regexp.Compile("(?i)" + r.BlockClassPattern)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: block class pattern %q", r.BlockClassPattern)
	}
	deepClass, err := regexp.Compile("(?i)" + r.DeepBlockClassPattern)
	if err != nil {
		return nil, eris.Wrapf(err, "classify: deep block class pattern %q", r.DeepBlockClassPattern)
	}
	cr := &compiledRules{
		blockClass:     blockClass,
		deepBlockClass: deepClass,
		marker:         strings.ToLower(r.DirectMarker),
		block:          compilePhrases(r.BlockPhrases),
		deep:           compilePhrases(r.DeepPhrases),
		anti:           lowerAll(r.AntiCheatMarkers),
	}
	return cr, nil
}

func compilePhrases(phrases []string) []phrasePattern {
	out := make([]phrasePattern, 0, len(phrases))
	for _, p := range phrases {
		pl := strings.ToLower(p)
		pat := phrasePattern{phrase: pl}
		if re, err := regexp.Compile(`\b` + regexp.QuoteMeta(pl) + `\b`); err == nil {
			pat.re = re
		}
		out = append(out, pat)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// matchPhrases returns every phrase found in any of the texts, in lexicon
// order of first discovery, without duplicates. Texts must already be
// lowercased.
func matchPhrases(texts []string, pats []phrasePattern) []string {
	var found []string
	seen := make(map[string]bool)
	for _, text := range texts {
		for _, p := range pats {
			if seen[p.phrase] {
				continue
			}
			var hit bool
			if p.re != nil {
				hit = p.re.MatchString(text)
			} else {
				hit = strings.Contains(text, p.phrase)
			}
			if hit {
				seen[p.phrase] = true
				found = append(found, p.phrase)
			}
		}
	}
	return found
}

// matchSubstrings returns every marker present in text as a substring.
// Text must already be lowercased.
func matchSubstrings(text string, markers []string) []string {
	var found []string
	for _, m := range markers {
		if strings.Contains(text, m) {
			found = append(found, m)
		}
	}
	return found
}
