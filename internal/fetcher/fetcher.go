// Package fetcher performs rate-governed HTTP retrieval with bounded
// retries and explicit rate-limit signaling.
package fetcher

import "context"

// Response is a fetched document.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves a single document. Implementations resolve every
// request to exactly one of: a body, a rate-limit signal
// (*RateLimitError), or an exhausted-budget failure (*UnavailableError).
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}
