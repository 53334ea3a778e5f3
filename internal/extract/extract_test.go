package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	html := `<html><head><title>T</title>
	<script>var x = 1;</script>
	<style>.a{color:red}</style></head>
	<body><h1>Dark   Souls</h1>
	<p>Prepare to&nbsp;die.</p></body></html>`

	got := PlainText(html)
	assert.Equal(t, "T Dark Souls Prepare to die.", got)
}

func TestPlainText_Empty(t *testing.T) {
	assert.Equal(t, "", PlainText(""))
}

var noticeRe = regexp.MustCompile(`(?i)drm[_\-\s]?notice|anticheat_section`)

func TestLabeledBlocks(t *testing.T) {
	html := `<div class="page">
	  <div class="DRM_notice">Requires  3rd-Party&nbsp;Account:&nbsp;<b>Ubisoft Connect</b></div>
	  <div class="anticheat_section">Incorporates Easy Anti-Cheat</div>
	  <div class="other">Denuvo mentioned here too</div>
	</div>`

	blocks := LabeledBlocks(html, noticeRe)
	assert.Equal(t, []string{
		"requires 3rd-party account: ubisoft connect",
		"incorporates easy anti-cheat",
	}, blocks)
}

func TestLabeledBlocks_NoMatches(t *testing.T) {
	assert.Empty(t, LabeledBlocks(`<div class="plain">text</div>`, noticeRe))
}

func TestLabeledBlocks_ClassTokenVariants(t *testing.T) {
	for _, class := range []string{"drm_notice", "drm-notice", "drm notice", "DRM_NOTICE extra"} {
		blocks := LabeledBlocks(`<div class="`+class+`">locked</div>`, noticeRe)
		assert.Equal(t, []string{"locked"}, blocks, "class %q", class)
	}
}

func TestImageURLs(t *testing.T) {
	html := `<body>
	  <img src="https://cdn.example.com/apps/10/ss_1.1920x1080.jpg?t=1699">
	  <img src="https://cdn.example.com/apps/10/ss_1.1920x1080.jpg?t=1699">
	  <img src="https://cdn.example.com/apps/10/ss_2.png">
	  <img src="https://cdn.example.com/apps/10/clip.webm">
	  <img src="data:image/png;base64,AAAA">
	  <img src="  ">
	</body>`

	assert.Equal(t, []string{
		"https://cdn.example.com/apps/10/ss_1.1920x1080.jpg?t=1699",
		"https://cdn.example.com/apps/10/ss_2.png",
	}, ImageURLs(html))
}

func TestIsImageURL(t *testing.T) {
	assert.True(t, IsImageURL("https://x/y/header.jpg"))
	assert.True(t, IsImageURL("https://x/y/a.JPEG"))
	assert.True(t, IsImageURL("https://x/y/a.webp?t=1"))
	assert.False(t, IsImageURL("https://x/y/a.webm"))
	assert.False(t, IsImageURL("https://x/y/page"))
	assert.False(t, IsImageURL("data:image/png;base64,AAAA"))
}

func TestDecodeText(t *testing.T) {
	latin := []byte{'c', 'a', 'f', 0xE9}

	got := DecodeText(latin, "text/html; charset=iso-8859-1")
	assert.Equal(t, "café", got)

	// Unknown or absent charsets leave bytes alone.
	assert.Equal(t, "abc", DecodeText([]byte("abc"), "text/html"))
	assert.Equal(t, "abc", DecodeText([]byte("abc"), "text/html; charset=bogus-999"))
	assert.Equal(t, "abc", DecodeText([]byte("abc"), ""))
	assert.Equal(t, "abc", DecodeText([]byte("abc"), "text/html; charset=UTF-8"))
}
