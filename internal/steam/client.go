// Package steam fetches and parses storefront payloads for single items:
// the JSON detail endpoint and the public store page that carries the
// protection notices the detail payload omits.
package steam

import (
	"context"
	"fmt"

	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/fetcher"
)

const (
	DefaultDetailURL = "https://store.steampowered.com/api/appdetails"
	DefaultPageURL   = "https://store.steampowered.com/app/%d/"

	// Indonesian pricing, English copy.
	DefaultCountry  = "id"
	DefaultLanguage = "en"
)

// Client reads one item at a time from the storefront. The detail and
// page endpoints ride separate fetchers so each keeps its own identity
// and pacing.
type Client struct {
	api       fetcher.Fetcher
	pages     fetcher.Fetcher
	detailURL string
	pageURL   string
	country   string
	language  string
}

// Options configures a Client. Empty fields fall back to the public
// storefront endpoints and the default locale.
type Options struct {
	API       fetcher.Fetcher
	Pages     fetcher.Fetcher
	DetailURL string
	PageURL   string
	Country   string
	Language  string
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.DetailURL == "" {
		opts.DetailURL = DefaultDetailURL
	}
	if opts.PageURL == "" {
		opts.PageURL = DefaultPageURL
	}
	if opts.Country == "" {
		opts.Country = DefaultCountry
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	return &Client{
		api:       opts.API,
		pages:     opts.Pages,
		detailURL: opts.DetailURL,
		pageURL:   opts.PageURL,
		country:   opts.Country,
		language:  opts.Language,
	}
}

// FetchDetail retrieves the raw detail payload for one id. Fetcher
// errors pass through untouched so callers can tell a rate limit from
// an outage.
func (c *Client) FetchDetail(ctx context.Context, appID int) ([]byte, error) {
	u := fmt.Sprintf("%s?appids=%d&cc=%s&l=%s", c.detailURL, appID, c.country, c.language)
	resp, err := c.api.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchPage retrieves the store page for one id as UTF-8 text.
func (c *Client) FetchPage(ctx context.Context, appID int) (string, error) {
	resp, err := c.pages.Fetch(ctx, fmt.Sprintf(c.pageURL, appID))
	if err != nil {
		return "", err
	}
	return extract.DecodeText(resp.Body, resp.ContentType), nil
}
