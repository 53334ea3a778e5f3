package crawl

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/adii83/steam-metadata-archive/internal/classify"
	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/fetcher"
	"github.com/adii83/steam-metadata-archive/internal/model"
	"github.com/adii83/steam-metadata-archive/internal/steam"
)

// DefaultBatchConcurrency matches the admission gate of the ad hoc
// batch tool.
const DefaultBatchConcurrency = 6

// Batch fetches the given ids concurrently and merges the results into
// the catalog in a single write. The cursor is untouched: a batch is an
// ad hoc probe, not crawl progress. Rate-limited and unavailable ids
// are skipped with a warning instead of pausing the whole batch.
func (e *Engine) Batch(ctx context.Context, ids []int, concurrency int) (map[int]*model.Record, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	var (
		mu      sync.Mutex
		results = make(map[int]*model.Record, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			rec := e.batchOne(gctx, id)
			if rec == nil {
				return nil
			}
			mu.Lock()
			results[id] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, rec := range results {
		e.opts.Catalog.Put(rec)
	}
	if len(results) > 0 {
		if err := e.opts.Catalog.Save(); err != nil {
			return results, err
		}
	}

	zap.L().Info("batch complete",
		zap.Int("requested", len(ids)),
		zap.Int("archived", len(results)),
	)
	return results, nil
}

// batchOne builds one record end to end, returning nil when the item
// yields nothing.
func (e *Engine) batchOne(ctx context.Context, id int) *model.Record {
	payload, err := e.opts.Client.FetchDetail(ctx, id)
	if err != nil {
		if fetcher.IsRateLimited(err) {
			zap.L().Warn("batch: detail rate limited, skipping", zap.Int("appid", id))
		} else {
			zap.L().Warn("batch: detail unavailable, skipping", zap.Int("appid", id), zap.Error(err))
		}
		return nil
	}

	rec, err := steam.ParseRecord(id, payload)
	if err != nil {
		zap.L().Warn("batch: detail payload unreadable, skipping", zap.Int("appid", id), zap.Error(err))
		return nil
	}
	if rec == nil {
		zap.L().Info("batch: no data for item", zap.Int("appid", id))
		return nil
	}

	html, err := e.opts.Client.FetchPage(ctx, id)
	if err != nil && ctx.Err() != nil {
		// Cancelled mid-item; do not archive a degraded verdict.
		return nil
	}
	if err != nil {
		zap.L().Warn("batch: page unavailable, classifying without markup",
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
	return rec
}
