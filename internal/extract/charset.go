package extract

import (
	"bytes"
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// DecodeText converts body to UTF-8 using the charset named in the
// Content-Type header. An absent, unknown, or malformed charset leaves
// the body untouched rather than failing the page.
func DecodeText(body []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	name := params["charset"]
	if name == "" || strings.EqualFold(name, "utf-8") {
		return string(body)
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
