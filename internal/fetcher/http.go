package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/adii83/steam-metadata-archive/internal/resilience"
)

// Options configures an HTTPFetcher.
type Options struct {
	// UserAgent is the fixed browser identity for every request from this
	// client. Distinct clients carry distinct identities.
	UserAgent string

	// Timeout bounds a single request. Default: 20s.
	Timeout time.Duration

	// MaxAttempts is the per-fetch attempt budget. Default: 3.
	MaxAttempts int

	// AttemptDelay is the fixed pause between attempts. Default: 1s.
	AttemptDelay time.Duration

	// Limiter paces all requests from this client, including retries.
	// Nil disables pacing.
	Limiter *rate.Limiter
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.AttemptDelay <= 0 {
		o.AttemptDelay = time.Second
	}
	return o
}

// HTTPFetcher implements Fetcher over net/http. A 403 at any attempt
// resolves immediately to *RateLimitError; any other failure is retried
// until the attempt budget resolves to *UnavailableError.
type HTTPFetcher struct {
	client *http.Client
	opts   Options
}

// New creates an HTTPFetcher with the given options.
func New(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
	}
}

func classifyFetch(err error) resilience.Outcome {
	if IsRateLimited(err) {
		return resilience.RateLimit
	}
	return resilience.Retry
}

// Fetch retrieves rawURL, pacing on the limiter before every attempt.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	policy := resilience.Policy{
		MaxAttempts: f.opts.MaxAttempts,
		Delay:       f.opts.AttemptDelay,
		Classify:    classifyFetch,
		OnRetry: func(attempt int, err error) {
			zap.L().Warn("fetch attempt failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		},
	}

	resp, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*Response, error) {
		return f.attempt(ctx, req)
	})
	if err != nil {
		if IsRateLimited(err) {
			return nil, err
		}
		return nil, &UnavailableError{URL: rawURL, Attempts: f.opts.MaxAttempts, Err: err}
	}
	return resp, nil
}

func (f *HTTPFetcher) attempt(ctx context.Context, req *http.Request) (*Response, error) {
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
	}

	res, err := f.client.Do(req.Clone(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: request")
	}
	defer res.Body.Close() //nolint:errcheck

	if res.StatusCode == http.StatusForbidden {
		return nil, &RateLimitError{URL: req.URL.String()}
	}
	if res.StatusCode != http.StatusOK {
		return nil, eris.Errorf("fetcher: http %d from %s", res.StatusCode, req.URL.String())
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	return &Response{
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// PacedLimiter returns a limiter allowing one event per interval with a
// burst of one, the cadence of a polite sequential crawl.
func PacedLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
