// Package scrape fans company fetches out over the per-kind fetchers.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/logger"
	"jobmonitor/internal/scrape/generic"
	"jobmonitor/internal/scrape/greenhouse"
	"jobmonitor/internal/scrape/lever"
	"jobmonitor/internal/scrape/smartrecruiters"
	"jobmonitor/internal/scrape/types"
	"jobmonitor/internal/scrape/util"
)

type Runner struct {
	fetchers    map[domain.SourceKind]types.Fetcher
	concurrency int
	timeout     time.Duration
}

// NewRunner wires one fetcher per known kind from the fetch settings.
func NewRunner(fc config.Fetch) *Runner {
	client := util.Client{
		HC:        &http.Client{Timeout: fc.Timeout()},
		Limiter:   util.NewHostLimiter(fc.RequestsPerSecond, fc.Burst),
		UserAgent: fc.UserAgent,
		Retries:   2,
	}
	return NewRunnerWith(fc.Concurrency, fc.Timeout(),
		greenhouse.New(client, ""),
		lever.New(client, ""),
		smartrecruiters.New(client, ""),
		generic.New(client),
	)
}

// NewRunnerWith builds a runner over explicit fetchers; later fetchers of the
// same kind replace earlier ones.
func NewRunnerWith(concurrency int, timeout time.Duration, fetchers ...types.Fetcher) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	m := make(map[domain.SourceKind]types.Fetcher, len(fetchers))
	for _, f := range fetchers {
		m[f.Kind()] = f
	}
	return &Runner{fetchers: m, concurrency: concurrency, timeout: timeout}
}

// FetchAll fetches every company and returns one result per company in
// config order. A company that fails only sets Err on its own slot.
func (r *Runner) FetchAll(ctx context.Context, companies []config.Company) []types.ScrapeResult {
	out := make([]types.ScrapeResult, len(companies))
	log := logger.C(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, co := range companies {
		g.Go(func() error {
			start := time.Now()
			raw, err := r.fetchOne(gctx, co)
			out[i] = types.ScrapeResult{Company: co, Raw: raw, Err: err}

			if err != nil {
				log.Warn().Err(err).Str("company", co.Name).Str("kind", string(co.SourceKind)).Msg("fetch failed")
			} else {
				log.Debug().Str("company", co.Name).Int("raw", len(raw)).Dur("took", time.Since(start)).Msg("fetched")
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Runner) fetchOne(ctx context.Context, co config.Company) ([]domain.RawListing, error) {
	f, ok := r.fetchers[co.SourceKind]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no fetcher for kind %q", domain.ErrSourceFetch, co.Name, co.SourceKind)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	raw, err := f.Fetch(ctx, co)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceFetch, co.Name, err)
	}
	return raw, nil
}
