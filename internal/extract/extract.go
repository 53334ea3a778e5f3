// Package extract converts raw storefront HTML into the text and media
// forms the rest of the archive consumes.
package extract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaceRe = regexp.MustCompile(`[\s\x{00A0}]+`)

// PlainText strips markup from an HTML document and returns its visible
// text with whitespace collapsed. Script and style content is dropped.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return spaceRe.ReplaceAllString(strings.TrimSpace(doc.Text()), " ")
}

// LabeledBlocks returns the text of every div whose class attribute
// matches pattern. Entities are decoded by the parser; the text is
// whitespace-collapsed (including no-break spaces) and lowercased so
// callers can match phrases without caring about markup noise.
func LabeledBlocks(html string, pattern *regexp.Regexp) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var blocks []string
	doc.Find("div[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if !pattern.MatchString(class) {
			return
		}
		text := spaceRe.ReplaceAllString(strings.TrimSpace(s.Text()), " ")
		if text == "" {
			return
		}
		blocks = append(blocks, strings.ToLower(text))
	})
	return blocks
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ImageURLs returns document-order image URLs whose path carries a known
// image extension. Duplicates and inline data URIs are dropped.
func ImageURLs(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var urls []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || seen[src] || !IsImageURL(src) {
			return
		}
		seen[src] = true
		urls = append(urls, src)
	})
	return urls
}

// IsImageURL reports whether the URL path ends in a known image extension.
// Query strings do not count against the extension.
func IsImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "data" {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}
