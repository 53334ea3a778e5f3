package steam

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPayload = `{
  "271590": {
    "success": true,
    "data": {
      "name": "Grand Theft Auto V",
      "header_image": "https://cdn.example.com/apps/271590/header.jpg",
      "short_description": "An open world adventure.",
      "developers": ["Rockstar North"],
      "publishers": ["Rockstar Games"],
      "genres": [{"id": "1", "description": "Action"}, {"id": "2", "description": "Adventure"}],
      "screenshots": [
        {"id": 0, "path_full": "https://cdn.example.com/apps/271590/ss_1.jpg"},
        {"id": 1, "path_full": "https://cdn.example.com/apps/271590/ss_2.jpg"}
      ],
      "release_date": {"coming_soon": false, "date": "14 Apr, 2015"},
      "price_overview": {"currency": "IDR", "initial": 1000000, "final": 800000}
    }
  }
}`

func TestParseRecord_FullPayload(t *testing.T) {
	rec, err := ParseRecord(271590, []byte(fullPayload))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 271590, rec.AppID)
	assert.Equal(t, "Grand Theft Auto V", rec.Title)
	assert.Equal(t, "https://cdn.example.com/apps/271590/header.jpg", rec.Header)
	require.NotNil(t, rec.Genre)
	assert.Equal(t, "Action, Adventure", *rec.Genre)
	assert.Equal(t, "An open world adventure.", rec.ShortDescription)
	assert.Equal(t, []string{"Rockstar North"}, rec.Developers)
	assert.Equal(t, []string{"Rockstar Games"}, rec.Publishers)
	assert.Equal(t, "14 Apr, 2015", rec.ReleaseDate)
	assert.Equal(t, "Rp 10.000", rec.PriceDisplay)
	assert.Equal(t, 10000, rec.PriceNormalized)
	assert.Equal(t, []string{
		"https://cdn.example.com/apps/271590/header.jpg",
		"https://cdn.example.com/apps/271590/ss_1.jpg",
		"https://cdn.example.com/apps/271590/ss_2.jpg",
	}, rec.Media)
}

func TestParseRecord_NoData(t *testing.T) {
	cases := map[string]string{
		"success false":  `{"10": {"success": false}}`,
		"missing data":   `{"10": {"success": true}}`,
		"null data":      `{"10": {"success": true, "data": null}}`,
		"empty data":     `{"10": {"success": true, "data": {}}}`,
		"wrong id key":   `{"99": {"success": true, "data": {"name": "x"}}}`,
		"empty envelope": `{}`,
	}
	for name, payload := range cases {
		rec, err := ParseRecord(10, []byte(payload))
		assert.NoError(t, err, name)
		assert.Nil(t, rec, name)
	}
}

func TestParseRecord_MalformedPayload(t *testing.T) {
	rec, err := ParseRecord(10, []byte(`{"10": {`))
	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestParseRecord_MinimalPayload(t *testing.T) {
	rec, err := ParseRecord(10, []byte(`{"10": {"success": true, "data": {"name": "Tiny"}}}`))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "Tiny", rec.Title)
	assert.Nil(t, rec.Genre)
	assert.Equal(t, "Free", rec.PriceDisplay)
	assert.Equal(t, 0, rec.PriceNormalized)
	assert.Equal(t, "", rec.ReleaseDate)
	assert.Empty(t, rec.Media)
	assert.NotNil(t, rec.Developers)
	assert.NotNil(t, rec.Publishers)
}

func TestFormatIDR(t *testing.T) {
	cases := []struct {
		name    string
		price   *priceOverview
		display string
		amount  int
	}{
		{"prefers initial over discounted final", &priceOverview{Initial: 1000000, Final: 800000}, "Rp 10.000", 10000},
		{"falls back to final", &priceOverview{Initial: 0, Final: 800000}, "Rp 8.000", 8000},
		{"zero is free", &priceOverview{}, "Free", 0},
		{"missing block is free", nil, "Free", 0},
		{"groups millions", &priceOverview{Initial: 124999000}, "Rp 1.249.990", 1249990},
		{"small amount ungrouped", &priceOverview{Initial: 50000}, "Rp 500", 500},
	}
	for _, tc := range cases {
		display, amount := FormatIDR(tc.price)
		assert.Equal(t, tc.display, display, tc.name)
		assert.Equal(t, tc.amount, amount, tc.name)
	}
}

func TestBuildMediaCandidates(t *testing.T) {
	extras := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		extras = append(extras, fmt.Sprintf("https://cdn.example.com/ss_%d.jpg", i))
	}

	got := BuildMediaCandidates("https://cdn.example.com/header.jpg", extras)
	require.Len(t, got, 7)
	assert.Equal(t, "https://cdn.example.com/header.jpg", got[0])
	assert.Equal(t, "https://cdn.example.com/ss_6.jpg", got[6])

	seen := make(map[string]bool)
	for _, u := range got {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
	}
}

func TestBuildMediaCandidates_Dedupes(t *testing.T) {
	got := BuildMediaCandidates("h.jpg", []string{"h.jpg", "a.jpg", "a.jpg", ""})
	assert.Equal(t, []string{"h.jpg", "a.jpg"}, got)
}

func TestBuildMediaCandidates_NoHeader(t *testing.T) {
	got := BuildMediaCandidates("", []string{"a.jpg", "b.jpg"})
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, got)
}

const pageWithShots = `<html><body>
  <img src="https://cdn.example.com/apps/10/header.jpg">
  <img src="https://cdn.example.com/apps/10/capsule_icon.png">
  <img src="https://cdn.example.com/apps/10/ss_a.1920x1080.jpg?t=1">
  <img src="https://cdn.example.com/apps/10/ss_b.1920x1080.jpg?t=2">
  <img src="https://cdn.example.com/apps/10/clip.webm">
</body></html>`

func TestPageImages(t *testing.T) {
	got := PageImages(pageWithShots)
	assert.Equal(t, []string{
		"https://cdn.example.com/apps/10/ss_a.1920x1080.jpg?t=1",
		"https://cdn.example.com/apps/10/ss_b.1920x1080.jpg?t=2",
	}, got)
}

func TestSupplementMedia(t *testing.T) {
	rec, err := ParseRecord(10, []byte(`{"10": {"success": true, "data": {"name": "Old Game", "header_image": "https://cdn.example.com/apps/10/hdr.jpg"}}}`))
	require.NoError(t, err)
	require.Len(t, rec.Media, 1)

	SupplementMedia(rec, pageWithShots)
	assert.Equal(t, []string{
		"https://cdn.example.com/apps/10/hdr.jpg",
		"https://cdn.example.com/apps/10/ss_a.1920x1080.jpg?t=1",
		"https://cdn.example.com/apps/10/ss_b.1920x1080.jpg?t=2",
	}, rec.Media)
}

func TestSupplementMedia_KeepsExistingList(t *testing.T) {
	rec, err := ParseRecord(271590, []byte(fullPayload))
	require.NoError(t, err)
	before := append([]string(nil), rec.Media...)

	SupplementMedia(rec, pageWithShots)
	assert.Equal(t, before, rec.Media)
}
