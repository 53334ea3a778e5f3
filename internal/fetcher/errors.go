package fetcher

import (
	"errors"
	"fmt"
)

// RateLimitError signals an upstream 403. It is never retried locally;
// escalation belongs to the backoff controller.
type RateLimitError struct {
	URL string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("fetcher: rate limited by %s", e.URL)
}

// UnavailableError means the document could not be retrieved within the
// attempt budget. Callers treat it as skip-or-degrade, never fatal.
type UnavailableError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("fetcher: %s unavailable after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsUnavailable reports whether err is an exhausted-budget fetch failure.
func IsUnavailable(err error) bool {
	var ua *UnavailableError
	return errors.As(err, &ua)
}
