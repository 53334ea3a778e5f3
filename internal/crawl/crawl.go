// Package crawl drives the per-item pipeline across the ordered
// identifier list: fetch, parse, classify, merge, persist, advance.
package crawl

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/backoff"
	"github.com/adii83/steam-metadata-archive/internal/classify"
	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/fetcher"
	"github.com/adii83/steam-metadata-archive/internal/model"
	"github.com/adii83/steam-metadata-archive/internal/publish"
	"github.com/adii83/steam-metadata-archive/internal/runlog"
	"github.com/adii83/steam-metadata-archive/internal/steam"
	"github.com/adii83/steam-metadata-archive/internal/store"
)

// Source yields the ordered identifier list a run works through.
type Source interface {
	List(ctx context.Context) ([]int, error)
}

// Detailer reads one item from the storefront.
type Detailer interface {
	FetchDetail(ctx context.Context, appID int) ([]byte, error)
	FetchPage(ctx context.Context, appID int) (string, error)
}

// Classifier produces the protection verdict for one item.
type Classifier interface {
	Classify(in classify.Input) classify.Result
}

// Options wires an Engine.
type Options struct {
	Source     Source
	Client     Detailer
	Classifier Classifier
	Catalog    *store.Catalog
	Cursor     *store.Cursor
	Backoff    *backoff.Controller
	Publisher  publish.Publisher

	// PublishEvery triggers the publish hook each time this many items
	// have been consumed. Zero disables it.
	PublishEvery int

	// Limit bounds how many identifiers one run may consume. Zero runs
	// to the end of the list.
	Limit int
}

// Engine is the crawl orchestrator. One Engine owns its catalog and
// cursor files; run a single instance per store path.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	if opts.Backoff == nil {
		opts.Backoff = backoff.NewController(nil)
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.Noop{}
	}
	return &Engine{opts: opts}
}

// Run crawls from the persisted cursor to the end of the identifier
// list. Per-item failures are contained: only an unobtainable
// identifier list, an unwritable store, or cancellation stop the run.
// The returned summary is valid even when err is non-nil.
func (e *Engine) Run(ctx context.Context) (*runlog.Summary, error) {
	sum := &runlog.Summary{}

	ids, err := e.opts.Source.List(ctx)
	if err != nil {
		return sum, eris.Wrap(err, "crawl: load identifier list")
	}
	zap.L().Info("identifier list loaded", zap.Int("total", len(ids)))

	if pruned := e.opts.Catalog.Reconcile(ids); len(pruned) > 0 {
		sum.Pruned = len(pruned)
		if err := e.opts.Catalog.Save(); err != nil {
			return sum, err
		}
		zap.L().Info("pruned items no longer in identifier list",
			zap.Int("count", len(pruned)),
		)
	}

	e.opts.Cursor.Clamp(len(ids))
	sum.LastIndex = e.opts.Cursor.Index
	defer e.opts.Publisher.Wait()

	for e.opts.Cursor.Index < len(ids) {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "crawl: interrupted")
		}
		if e.opts.Limit > 0 && sum.Processed >= e.opts.Limit {
			zap.L().Info("item limit reached", zap.Int("limit", e.opts.Limit))
			break
		}

		id := ids[e.opts.Cursor.Index]
		zap.L().Info("fetching item",
			zap.Int("position", e.opts.Cursor.Index+1),
			zap.Int("total", len(ids)),
			zap.Int("appid", id),
		)

		payload, err := e.opts.Client.FetchDetail(ctx, id)
		if fetcher.IsRateLimited(err) {
			if err := e.pause(ctx, sum); err != nil {
				return sum, err
			}
			continue
		}
		// A fetch aborted by cancellation surfaces as Unavailable; it must
		// not consume the identifier like a genuine per-item failure.
		if err != nil && ctx.Err() != nil {
			return sum, eris.Wrap(ctx.Err(), "crawl: interrupted")
		}

		var rec *model.Record
		if err != nil {
			zap.L().Warn("detail unavailable, skipping item",
				zap.Int("appid", id),
				zap.Error(err),
			)
		} else if rec, err = steam.ParseRecord(id, payload); err != nil {
			zap.L().Warn("detail payload unreadable, skipping item",
				zap.Int("appid", id),
				zap.Error(err),
			)
		}
		if rec == nil {
			// The identifier is consumed either way; only a record is
			// withheld.
			sum.Skipped++
			if err := e.advance(sum); err != nil {
				return sum, err
			}
			continue
		}

		html, err := e.opts.Client.FetchPage(ctx, id)
		if fetcher.IsRateLimited(err) {
			if err := e.pause(ctx, sum); err != nil {
				return sum, err
			}
			continue
		}
		if err != nil && ctx.Err() != nil {
			return sum, eris.Wrap(ctx.Err(), "crawl: interrupted")
		}
		if err != nil {
			sum.Degraded++
			zap.L().Warn("page unavailable, classifying without markup",
				zap.Int("appid", id),
				zap.Error(err),
			)
			html = ""
		}

		steam.SupplementMedia(rec, html)
		res := e.opts.Classifier.Classify(classify.Input{
			Record: rec,
			HTML:   html,
			Text:   extract.PlainText(html),
		})
		rec.Protection = res.Verdict
		rec.LastUpdate = time.Now().UTC()

		e.opts.Catalog.Put(rec)
		if err := e.opts.Catalog.Save(); err != nil {
			return sum, err
		}
		sum.Archived++
		if err := e.advance(sum); err != nil {
			return sum, err
		}

		if e.opts.PublishEvery > 0 && e.opts.Cursor.Index%e.opts.PublishEvery == 0 {
			e.opts.Publisher.Trigger()
		}
		e.opts.Backoff.OnSuccess()

		zap.L().Info("archived item",
			zap.Int("appid", id),
			zap.String("verdict", res.Verdict.String()),
			zap.String("strategy", res.Strategy),
		)
	}

	return sum, nil
}

// advance consumes the current identifier and checkpoints the cursor.
func (e *Engine) advance(sum *runlog.Summary) error {
	e.opts.Cursor.Index++
	sum.Processed++
	sum.LastIndex = e.opts.Cursor.Index
	return e.opts.Cursor.Save()
}

// pause sleeps out the current backoff stage without consuming the
// identifier; the same item is retried afterwards.
func (e *Engine) pause(ctx context.Context, sum *runlog.Summary) error {
	sum.RateLimited++
	wait := e.opts.Backoff.OnRateLimited()
	zap.L().Warn("rate limited, backing off",
		zap.Duration("wait", wait),
		zap.Int("stage", e.opts.Backoff.Stage()),
	)
	if err := backoff.Sleep(ctx, wait); err != nil {
		return eris.Wrap(err, "crawl: interrupted during backoff")
	}
	return nil
}
