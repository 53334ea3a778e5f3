package steam

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/model"
)

// The detail endpoint wraps every payload in an envelope keyed by the
// requested id: {"271590": {"success": true, "data": {...}}}.
type detailEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type detailData struct {
	Name             string         `json:"name"`
	HeaderImage      string         `json:"header_image"`
	ShortDescription string         `json:"short_description"`
	Developers       []string       `json:"developers"`
	Publishers       []string       `json:"publishers"`
	Genres           []genreEntry   `json:"genres"`
	Screenshots      []screenshot   `json:"screenshots"`
	ReleaseDate      *releaseDate   `json:"release_date"`
	PriceOverview    *priceOverview `json:"price_overview"`
}

type genreEntry struct {
	Description string `json:"description"`
}

type screenshot struct {
	PathFull string `json:"path_full"`
}

type releaseDate struct {
	Date string `json:"date"`
}

type priceOverview struct {
	Initial int64 `json:"initial"`
	Final   int64 `json:"final"`
}

// ParseRecord turns a raw detail payload into a Record. A payload whose
// envelope reports no success or carries no data body returns (nil, nil);
// delisted and region-locked items land here and are not errors. Only a
// payload that does not decode at all returns an error.
func ParseRecord(appID int, payload []byte) (*model.Record, error) {
	var doc map[string]detailEnvelope
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, eris.Wrapf(err, "steam: decode detail payload for %d", appID)
	}

	env, ok := doc[strconv.Itoa(appID)]
	if !ok || !env.Success || len(env.Data) == 0 {
		return nil, nil
	}

	// An empty data object counts as absent too: the storefront answers
	// some delisted items with success=true and data={}.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return nil, eris.Wrapf(err, "steam: decode data body for %d", appID)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var info detailData
	if err := json.Unmarshal(env.Data, &info); err != nil {
		return nil, eris.Wrapf(err, "steam: decode data body for %d", appID)
	}

	rec := &model.Record{
		AppID:            appID,
		Title:            info.Name,
		Header:           info.HeaderImage,
		Genre:            joinGenres(info.Genres),
		ShortDescription: info.ShortDescription,
		Developers:       info.Developers,
		Publishers:       info.Publishers,
	}
	if rec.Developers == nil {
		rec.Developers = []string{}
	}
	if rec.Publishers == nil {
		rec.Publishers = []string{}
	}
	if info.ReleaseDate != nil {
		rec.ReleaseDate = info.ReleaseDate.Date
	}
	rec.PriceDisplay, rec.PriceNormalized = FormatIDR(info.PriceOverview)

	var screens []string
	for _, s := range info.Screenshots {
		if s.PathFull != "" {
			screens = append(screens, s.PathFull)
		}
	}
	rec.Media = BuildMediaCandidates(rec.Header, screens)

	return rec, nil
}

func joinGenres(genres []genreEntry) *string {
	parts := make([]string, 0, len(genres))
	for _, g := range genres {
		parts = append(parts, g.Description)
	}
	joined := strings.Join(parts, ", ")
	if joined == "" {
		return nil
	}
	return &joined
}

// Prices arrive in minor units of Indonesian Rupiah; the locale groups
// thousands with dots.
var idr = message.NewPrinter(language.Indonesian)

// FormatIDR normalizes a price block into its display string and whole
// Rupiah amount. The un-discounted amount wins when positive, otherwise
// the discounted one; zero or a missing block is the Free sentinel.
func FormatIDR(price *priceOverview) (string, int) {
	if price == nil {
		return "Free", 0
	}
	chosen := price.Initial
	if chosen <= 0 {
		chosen = price.Final
	}
	if chosen <= 0 {
		return "Free", 0
	}
	norm := chosen / 100
	return idr.Sprintf("Rp %d", norm), int(norm)
}

// BuildMediaCandidates assembles the media list for a record: the
// primary image first, then extras in order, duplicates dropped, capped
// at model.MaxMediaCandidates entries.
func BuildMediaCandidates(header string, extras []string) []string {
	out := make([]string, 0, model.MaxMediaCandidates)
	seen := make(map[string]bool)

	if header != "" {
		out = append(out, header)
		seen[header] = true
	}
	for _, u := range extras {
		if len(out) >= model.MaxMediaCandidates {
			break
		}
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// PageImages extracts up to six screenshot-like URLs from a store page
// for items whose detail payload carried none. Header art and icons are
// skipped so the primary image is not duplicated at a different URL.
func PageImages(html string) []string {
	var out []string
	for _, u := range extract.ImageURLs(html) {
		low := strings.ToLower(u)
		if strings.Contains(low, "header") || strings.Contains(low, "icon") {
			continue
		}
		out = append(out, u)
		if len(out) >= model.MaxMediaCandidates-1 {
			break
		}
	}
	return out
}

// SupplementMedia fills a record's media list from the store page when
// the detail payload yielded nothing beyond the primary image.
func SupplementMedia(rec *model.Record, html string) {
	if rec == nil || html == "" || len(rec.Media) > 1 {
		return
	}
	rec.Media = BuildMediaCandidates(rec.Header, PageImages(html))
}
