package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobmonitor/internal/config"
	"jobmonitor/internal/dedup"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/logger"
	"jobmonitor/internal/rank"
	"jobmonitor/internal/scrape"
	"jobmonitor/internal/scrape/types"
)

// Fetcher is the fan-out half of a run; *scrape.Runner satisfies it.
type Fetcher interface {
	FetchAll(ctx context.Context, companies []config.Company) []types.ScrapeResult
}

// StoreOpener opens the seen store for one run.
type StoreOpener func(ctx context.Context) (dedup.Store, error)

type Orchestrator struct {
	cfg       config.Config
	rules     rank.Scorer
	fetcher   Fetcher
	openStore StoreOpener
}

// New compiles the rules and wires the default fetch runner and store backend
// from cfg. cfg should already have been through config.NormalizeAndValidate.
func New(cfg config.Config) (*Orchestrator, error) {
	rules, err := rank.Compile(cfg)
	if err != nil {
		return nil, err
	}
	open := func(ctx context.Context) (dedup.Store, error) {
		return dedup.Open(ctx, cfg.Store.Backend, cfg.Store.Path)
	}
	return NewWith(cfg, rules, scrape.NewRunner(cfg.Fetch), open), nil
}

func NewWith(cfg config.Config, rules rank.Scorer, f Fetcher, open StoreOpener) *Orchestrator {
	return &Orchestrator{cfg: cfg, rules: rules, fetcher: f, openStore: open}
}

// Execute runs one pass. The store is opened (and locked) before any fetch so
// a concurrent run fails fast. On a save failure the computed result is still
// returned alongside an ErrStoreIO error; when every source failed the result
// comes back with ErrAllSourcesFailed.
func (o *Orchestrator) Execute(ctx context.Context, mode Mode) (RunResult, error) {
	st, err := o.openStore(ctx)
	if err != nil {
		return RunResult{Mode: mode}, fmt.Errorf("open seen store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.C(ctx).Warn().Err(cerr).Msg("close seen store")
		}
	}()

	seen, err := st.Load(ctx)
	if err != nil {
		return RunResult{Mode: mode}, fmt.Errorf("load seen store: %w", err)
	}

	fetched := o.fetcher.FetchAll(ctx, o.cfg.Companies)
	sources := make([]Source, len(fetched))
	for i, r := range fetched {
		sources[i] = Source{Company: r.Company, Raw: r.Raw, Err: r.Err}
	}

	res := Run(sources, o.rules, seen, mode)
	log := logger.C(logger.WithRun(ctx, res.RunID))
	log.Info().
		Str("mode", mode.String()).
		Int("companies", len(sources)).
		Int("listings", len(res.Listings)).
		Int("new_keys", len(res.NewKeys)).
		Int("warnings", len(res.Warnings)).
		Msg("run complete")

	var errs []error
	if res.AllFailed() {
		errs = append(errs, fmt.Errorf("%w: %d companies", domain.ErrAllSourcesFailed, len(sources)))
	}

	if mode == ModeNew {
		if days := o.cfg.Store.RetentionDays; days > 0 {
			cutoff := res.At.Add(-time.Duration(days) * 24 * time.Hour)
			if n := res.Seen.Prune(cutoff); n > 0 {
				log.Info().Int("pruned", n).Int("retention_days", days).Msg("pruned seen store")
			}
		}
		if res.Seen.Dirty() {
			if err := st.Save(ctx, res.Seen); err != nil {
				log.Error().Err(err).Msg("seen store not saved; these listings will be reported again next run")
				errs = append(errs, err)
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"seen store not saved (%v); the %d new listing(s) above will be reported again next run", err, len(res.NewKeys)))
			}
		}
	}

	return res, errors.Join(errs...)
}
