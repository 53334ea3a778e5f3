package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/model"
)

func newNotice(t *testing.T) *NoticeClassifier {
	t.Helper()
	c, err := NewNoticeClassifier(DefaultRuleset())
	require.NoError(t, err)
	return c
}

func newDeepScan(t *testing.T) *DeepScanClassifier {
	t.Helper()
	c, err := NewDeepScanClassifier(DefaultRuleset())
	require.NoError(t, err)
	return c
}

func pageInput(html string) Input {
	return Input{
		Record: &model.Record{AppID: 10, Title: "Some Game"},
		HTML:   html,
		Text:   extract.PlainText(html),
	}
}

func TestNotice_DirectMarkerInBlock(t *testing.T) {
	in := pageInput(`<div class="DRM_notice">Incorporates Denuvo Anti-tamper</div>`)

	res := newNotice(t).Classify(in)
	assert.True(t, res.Verdict.Affirmative())
	assert.True(t, res.Evidence.DirectMarker)
	assert.Equal(t, "notice_blocks", res.Strategy)
}

func TestNotice_LauncherPhraseInBlock(t *testing.T) {
	in := pageInput(`<div class="drm_notice">Requires 3rd-Party Account: Ubisoft Connect</div>`)

	res := newNotice(t).Classify(in)
	assert.True(t, res.Verdict.Affirmative())
	assert.Contains(t, res.Evidence.BlockPhrases, "ubisoft connect")
}

func TestNotice_AntiCheatInFreeTextStaysInconclusive(t *testing.T) {
	in := pageInput(`<div class="description">This game uses BattlEye to keep matches fair.</div>`)

	res := newNotice(t).Classify(in)
	assert.False(t, res.Verdict.Affirmative())
	assert.Contains(t, res.Evidence.AntiCheat, "battleye")
}

func TestNotice_FreeTextPhraseOutsideBlockIgnored(t *testing.T) {
	// Marketing copy mentioning a launcher must not decide the verdict.
	in := pageInput(`<div class="about">From the studio behind hits on the Epic Games store, featuring Ubisoft legends.</div>`)

	res := newNotice(t).Classify(in)
	assert.False(t, res.Verdict.Affirmative())
	assert.Empty(t, res.Evidence.BlockPhrases)
}

func TestNotice_PublisherMetadataNeverDecides(t *testing.T) {
	in := pageInput(`<div class="page">An unremarkable store page.</div>`)
	in.Record.Publishers = []string{"Ubisoft"}
	in.Record.Developers = []string{"Ubisoft Montreal"}

	res := newNotice(t).Classify(in)
	assert.False(t, res.Verdict.Affirmative())
	assert.Contains(t, res.Evidence.MetadataPhrases, "ubisoft")
}

func TestNotice_AnticheatSectionBlockCounts(t *testing.T) {
	in := pageInput(`<div class="anticheat_section">Requires EA account and the EA app</div>`)

	res := newNotice(t).Classify(in)
	assert.True(t, res.Verdict.Affirmative())
	assert.Contains(t, res.Evidence.BlockPhrases, "ea app")
}

func TestNotice_NoMarkupOnlyMarkerDecides(t *testing.T) {
	c := newNotice(t)

	res := c.Classify(Input{Record: &model.Record{AppID: 10}, Text: "protected by denuvo anti-tamper"})
	assert.True(t, res.Verdict.Affirmative())
	assert.True(t, res.Evidence.TextMarker)

	res = c.Classify(Input{Record: &model.Record{AppID: 10}, Text: "uses easy anti-cheat and battleye"})
	assert.False(t, res.Verdict.Affirmative())
	assert.NotEmpty(t, res.Evidence.AntiCheat)
}

func TestNotice_EmptyInputInconclusive(t *testing.T) {
	res := newNotice(t).Classify(Input{})
	assert.False(t, res.Verdict.Affirmative())
}

func TestNotice_WordBoundary(t *testing.T) {
	// "eac" is not in the block phrase list and "easports" must not match
	// the "ea sports" phrase across the missing space.
	in := pageInput(`<div class="drm_notice">brought to you by easportsfans dot com</div>`)

	res := newNotice(t).Classify(in)
	assert.False(t, res.Verdict.Affirmative())
}

func TestNotice_Idempotent(t *testing.T) {
	c := newNotice(t)
	in := pageInput(`<div class="drm_notice">Denuvo Anti-tamper</div>`)

	first := c.Classify(in)
	second := c.Classify(in)
	assert.Equal(t, first, second)
}

func TestDeepScan_WiderLexicon(t *testing.T) {
	// "drm" alone is only in the deep lexicon, so the primary stays
	// inconclusive and the fallback flips the verdict.
	html := `<div class="drm_notice">3rd-party DRM applies</div>`
	in := pageInput(html)

	primary := newNotice(t).Classify(in)
	assert.False(t, primary.Verdict.Affirmative())

	deep := newDeepScan(t).Classify(in)
	assert.True(t, deep.Verdict.Affirmative())
	assert.Contains(t, deep.Evidence.BlockPhrases, "drm")
}

func TestDeepScan_MarkerInRawSource(t *testing.T) {
	// The deep scan reads the raw source, so a marker outside any notice
	// block still counts.
	in := pageInput(`<div class="sysreq">Additional Notes: Denuvo Antitamper</div>`)

	res := newDeepScan(t).Classify(in)
	assert.True(t, res.Verdict.Affirmative())
	assert.True(t, res.Evidence.TextMarker)
}

func TestDeepScan_ShortDescriptionCounts(t *testing.T) {
	in := Input{Record: &model.Record{AppID: 10, ShortDescription: "Now with Denuvo protection"}}

	res := newDeepScan(t).Classify(in)
	assert.True(t, res.Verdict.Affirmative())
	assert.True(t, res.Evidence.TextMarker)
}

func TestDeepScan_OnlyFirstNoticeBlock(t *testing.T) {
	html := `<div class="drm_notice">nothing here</div>
	<div class="drm_notice">requires uplay</div>`

	res := newDeepScan(t).Classify(pageInput(html))
	assert.False(t, res.Verdict.Affirmative())
	assert.Empty(t, res.Evidence.BlockPhrases)
}

func TestDeepScan_Inconclusive(t *testing.T) {
	res := newDeepScan(t).Classify(pageInput(`<div class="page">a quiet page</div>`))
	assert.False(t, res.Verdict.Affirmative())
}

func TestEngine_PrimaryWins(t *testing.T) {
	primary := newNotice(t)
	fallback := newDeepScan(t)
	eng := NewEngine(primary, fallback)

	res := eng.Classify(pageInput(`<div class="drm_notice">Denuvo</div>`))
	assert.True(t, res.Verdict.Affirmative())
	assert.Equal(t, "notice_blocks", res.Strategy)
}

func TestEngine_FallbackOnInconclusive(t *testing.T) {
	eng := NewEngine(newNotice(t), newDeepScan(t))

	res := eng.Classify(pageInput(`<div class="drm_notice">3rd-party DRM applies</div>`))
	assert.True(t, res.Verdict.Affirmative())
	assert.Equal(t, "deep_scan", res.Strategy)
}

func TestEngine_AllInconclusiveKeepsPrimaryResult(t *testing.T) {
	eng := NewEngine(newNotice(t), newDeepScan(t))

	in := pageInput(`<div class="description">Fair play enforced by VAC.</div>`)
	res := eng.Classify(in)
	assert.False(t, res.Verdict.Affirmative())
	assert.Equal(t, "notice_blocks", res.Strategy)
	assert.Contains(t, res.Evidence.AntiCheat, "vac")
}

func TestEngine_AllInconclusiveMergesFallbackEvidence(t *testing.T) {
	eng := NewEngine(newNotice(t), newDeepScan(t))

	// The marker hides in an attribute, so only the deep scan's raw-source
	// pass sees it; the chain still answers as the primary but carries the
	// fallback's find.
	in := pageInput(`<div class="page" data-overlay="battleye">a quiet page</div>`)
	res := eng.Classify(in)
	assert.False(t, res.Verdict.Affirmative())
	assert.Equal(t, "notice_blocks", res.Strategy)
	assert.Contains(t, res.Evidence.AntiCheat, "battleye")
}
