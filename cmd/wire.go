package main

import (
	"context"
	"math/rand"

	"github.com/adii83/steam-metadata-archive/internal/backoff"
	"github.com/adii83/steam-metadata-archive/internal/classify"
	"github.com/adii83/steam-metadata-archive/internal/crawl"
	"github.com/adii83/steam-metadata-archive/internal/fetcher"
	"github.com/adii83/steam-metadata-archive/internal/mirror"
	"github.com/adii83/steam-metadata-archive/internal/publish"
	"github.com/adii83/steam-metadata-archive/internal/runlog"
	"github.com/adii83/steam-metadata-archive/internal/steam"
	"github.com/adii83/steam-metadata-archive/internal/store"
)

// newFetcher builds one paced HTTP client with its own identity.
func newFetcher(userAgent string) *fetcher.HTTPFetcher {
	return fetcher.New(fetcher.Options{
		UserAgent:    userAgent,
		Timeout:      cfg.Fetch.Timeout,
		MaxAttempts:  cfg.Fetch.MaxAttempts,
		AttemptDelay: cfg.Fetch.AttemptDelay,
		Limiter:      fetcher.PacedLimiter(cfg.Fetch.Delay),
	})
}

// pickAgents draws two identities from the pool so API traffic and
// page traffic do not share one.
func pickAgents() (apiUA, pageUA string) {
	pool := cfg.Fetch.UserAgents
	if len(pool) == 0 {
		return "", ""
	}
	i := rand.Intn(len(pool))
	return pool[i], pool[(i+1)%len(pool)]
}

// newSteamClient assembles the storefront client.
func newSteamClient() *steam.Client {
	apiUA, pageUA := pickAgents()
	return steam.NewClient(steam.Options{
		API:       newFetcher(apiUA),
		Pages:     newFetcher(pageUA),
		DetailURL: cfg.Steam.DetailURL,
		PageURL:   cfg.Steam.PageURL,
		Country:   cfg.Steam.Country,
		Language:  cfg.Steam.Language,
	})
}

// newMirrorSource assembles the identifier mirror client.
func newMirrorSource() *mirror.Source {
	apiUA, _ := pickAgents()
	return mirror.NewSource(newFetcher(apiUA), cfg.Mirror.URL)
}

// newClassifier builds the verdict chain: notice blocks first, deep
// scan as fallback.
func newClassifier() (*classify.Engine, error) {
	rs := classify.DefaultRuleset()
	if cfg.Classify.Rules != "" {
		loaded, err := classify.LoadRuleset(cfg.Classify.Rules)
		if err != nil {
			return nil, err
		}
		rs = loaded
	}

	notice, err := classify.NewNoticeClassifier(rs)
	if err != nil {
		return nil, err
	}
	deep, err := classify.NewDeepScanClassifier(rs)
	if err != nil {
		return nil, err
	}
	return classify.NewEngine(notice, deep), nil
}

// newPublisher builds the post-checkpoint publish hook.
func newPublisher() publish.Publisher {
	if !cfg.Publish.Enabled {
		return publish.Noop{}
	}
	return publish.NewGitPublisher(".", []string{cfg.Store.Catalog, cfg.Store.Progress}, cfg.Publish.Timeout)
}

// openStores loads the catalog and cursor files.
func openStores() (*store.Catalog, *store.Cursor, error) {
	catalog, err := store.LoadCatalog(cfg.Store.Catalog)
	if err != nil {
		return nil, nil, err
	}
	return catalog, store.LoadCursor(cfg.Store.Progress), nil
}

// openRunlog opens and migrates the run history store.
func openRunlog(ctx context.Context) (*runlog.Store, error) {
	rl, err := runlog.Open(cfg.Store.Runlog)
	if err != nil {
		return nil, err
	}
	if err := rl.Migrate(ctx); err != nil {
		_ = rl.Close()
		return nil, err
	}
	return rl, nil
}

// buildEngine assembles the full crawl pipeline.
func buildEngine(limit int) (*crawl.Engine, error) {
	catalog, cursor, err := openStores()
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier()
	if err != nil {
		return nil, err
	}

	return crawl.NewEngine(crawl.Options{
		Source:       newMirrorSource(),
		Client:       newSteamClient(),
		Classifier:   classifier,
		Catalog:      catalog,
		Cursor:       cursor,
		Backoff:      backoff.NewController(cfg.Backoff.Stages),
		Publisher:    newPublisher(),
		PublishEvery: cfg.Publish.Every,
		Limit:        limit,
	}), nil
}
