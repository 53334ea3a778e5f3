// Package mirror loads the community-maintained identifier list the
// crawl works from. The mirror is the sole source of truth for which
// ids exist; a run cannot start without it.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/adii83/steam-metadata-archive/internal/fetcher"
	"github.com/adii83/steam-metadata-archive/internal/model"
)

// DefaultURL points at the jsnli appid mirror on GitHub.
const DefaultURL = "https://raw.githubusercontent.com/jsnli/steamappidlist/refs/heads/master/data/games_appid.json"

// Source retrieves the identifier list.
type Source struct {
	fetch fetcher.Fetcher
	url   string
}

// NewSource creates a Source. An empty url falls back to DefaultURL.
func NewSource(f fetcher.Fetcher, url string) *Source {
	if url == "" {
		url = DefaultURL
	}
	return &Source{fetch: f, url: url}
}

// List retrieves every known id, ascending and deduplicated. Any failure
// here is fatal to a run since there is nothing to iterate without it.
func (s *Source) List(ctx context.Context) ([]int, error) {
	resp, err := s.fetch.Fetch(ctx, s.url)
	if err != nil {
		return nil, eris.Wrap(err, "mirror: fetch identifier list")
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body))

	tok, err := decoder.Token()
	if err != nil {
		return nil, eris.Wrap(err, "mirror: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, eris.Errorf("mirror: expected '[', got %v", tok)
	}

	seen := make(map[int]bool)
	var ids []int
	for decoder.More() {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "mirror: context cancelled")
		}
		var entry model.AppRef
		if err := decoder.Decode(&entry); err != nil {
			return nil, eris.Wrap(err, "mirror: decode entry")
		}
		if entry.AppID <= 0 || seen[entry.AppID] {
			continue
		}
		seen[entry.AppID] = true
		ids = append(ids, entry.AppID)
	}

	sort.Ints(ids)
	return ids, nil
}
