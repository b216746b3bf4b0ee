package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmonitor/internal/config"
	"jobmonitor/internal/dedup"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/rank"
	"jobmonitor/internal/scrape/types"
)

var fixedNow = time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)

func init() {
	clock = func() time.Time { return fixedNow }
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Companies = []config.Company{
		{Name: "Databricks", SourceKind: domain.SourceGreenhouse, SourceID: "databricks"},
		{Name: "Acme", SourceKind: domain.SourceLever, SourceID: "acme"},
	}
	cfg.RequiredKeywords = []string{"energy", "solar"}
	cfg.HighPriorityTitles = []string{"solutions architect"}
	cfg.MediumPriorityTitles = []string{"engineer"}
	cfg.PreferredLocations = []string{"remote"}
	cfg.ExcludedKeywords = []string{"india"}
	return cfg
}

func mustRules(t *testing.T) *rank.Rules {
	t.Helper()
	r, err := rank.Compile(testConfig())
	require.NoError(t, err)
	return r
}

func gh(id, title, loc string) domain.RawListing {
	return domain.RawListing{Kind: domain.SourceGreenhouse, Fields: map[string]any{
		"id":           id,
		"title":        title,
		"location":     map[string]any{"name": loc},
		"absolute_url": "https://boards.greenhouse.io/databricks/jobs/" + id,
	}}
}

func lv(id, title, loc string) domain.RawListing {
	return domain.RawListing{Kind: domain.SourceLever, Fields: map[string]any{
		"id":         id,
		"text":       title,
		"categories": map[string]any{"location": loc},
		"hostedUrl":  "https://jobs.lever.co/acme/" + id,
	}}
}

func sources() []Source {
	cfg := testConfig()
	return []Source{
		{Company: cfg.Companies[0], Raw: []domain.RawListing{
			gh("1", "Senior Solutions Architect - Energy", "Remote"),
			gh("2", "Software Engineer", "Bangalore, India"),
			gh("3", "Office Manager", "Remote"),
			{Kind: domain.SourceGreenhouse, Fields: map[string]any{"id": "4"}},
		}},
		{Company: cfg.Companies[1], Raw: []domain.RawListing{
			lv("a", "Solar Engineer", "Austin"),
		}},
	}
}

func keys(ls []domain.ScoredListing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Key())
	}
	return out
}

func TestRunDatabricksExample(t *testing.T) {
	res := Run(sources(), mustRules(t), dedup.NewSet(), ModeNew)

	require.Len(t, res.Listings, 2)
	top := res.Listings[0]
	assert.Equal(t, "Databricks|1", top.Key())
	assert.Equal(t, 70, top.Score)
	assert.Equal(t, domain.TierHigh, top.Tier)

	// medium title (30) + solar (10)
	assert.Equal(t, "Acme|a", res.Listings[1].Key())
	assert.Equal(t, 40, res.Listings[1].Score)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"Databricks|1", "Acme|a"}, res.NewKeys)
}

func TestRunStatsAndWarnings(t *testing.T) {
	srcs := sources()
	srcs = append(srcs, Source{
		Company: config.Company{Name: "Broken", SourceKind: domain.SourceLever, SourceID: "broken"},
		Err:     errors.New("status 503"),
	})
	res := Run(srcs, mustRules(t), dedup.NewSet(), ModeNew)

	require.Len(t, res.Stats, 3)
	assert.Equal(t, CompanyStats{
		Company: "Databricks", Kind: domain.SourceGreenhouse,
		Fetched: 4, Malformed: 1, Excluded: 1, Dropped: 1, Included: 1, New: 1,
	}, res.Stats[0])
	assert.True(t, res.Stats[2].Failed())
	assert.False(t, res.AllFailed())
	assert.Len(t, res.Warnings, 2)
}

func TestExcludedNeverIncluded(t *testing.T) {
	res := Run(sources(), mustRules(t), dedup.NewSet(), ModePreview)
	for _, l := range res.Listings {
		assert.False(t, l.Excluded)
		assert.NotEqual(t, "Databricks|2", l.Key())
	}
}

func TestLocationAloneIsNotEnough(t *testing.T) {
	res := Run(sources(), mustRules(t), dedup.NewSet(), ModePreview)
	assert.NotContains(t, keys(res.Listings), "Databricks|3")
}

func TestRunIsIdempotent(t *testing.T) {
	seen := dedup.NewSet()
	first := Run(sources(), mustRules(t), seen, ModeNew)
	require.Len(t, first.Listings, 2)
	assert.Equal(t, 0, seen.Len(), "input set is not mutated")

	second := Run(sources(), mustRules(t), first.Seen, ModeNew)
	assert.Empty(t, second.Listings)
	assert.Empty(t, second.NewKeys)
	assert.Equal(t, first.Seen.Len(), second.Seen.Len())
}

func TestDuplicateWithinRunCollapses(t *testing.T) {
	cfg := testConfig()
	srcs := []Source{
		{Company: cfg.Companies[0], Raw: []domain.RawListing{gh("1", "Solutions Architect", "Remote")}},
		{Company: cfg.Companies[0], Raw: []domain.RawListing{gh("1", "Solutions Architect", "Remote")}},
	}
	for _, mode := range []Mode{ModeNew, ModePreview} {
		res := Run(srcs, mustRules(t), dedup.NewSet(), mode)
		assert.Len(t, res.Listings, 1, mode.String())
		assert.Equal(t, []string{"Databricks|1"}, res.NewKeys, mode.String())
	}
}

func TestPreviewShowsSeenListingsWithoutMarking(t *testing.T) {
	seen := dedup.NewSet()
	seen.Add("Databricks|1", dedup.Entry{FirstSeen: fixedNow.Add(-48 * time.Hour)})

	res := Run(sources(), mustRules(t), seen, ModePreview)
	assert.Equal(t, []string{"Databricks|1", "Acme|a"}, keys(res.Listings))
	assert.Same(t, seen, res.Seen)
	assert.Equal(t, 1, seen.Len())
}

func TestSortTieBreaks(t *testing.T) {
	ls := []domain.ScoredListing{
		{Listing: domain.Listing{Company: "B", Title: "x", ID: "1"}, Score: 30},
		{Listing: domain.Listing{Company: "A", Title: "y", ID: "2"}, Score: 30},
		{Listing: domain.Listing{Company: "A", Title: "x", ID: "3"}, Score: 30},
		{Listing: domain.Listing{Company: "A", Title: "x", ID: "1"}, Score: 30},
		{Listing: domain.Listing{Company: "Z", Title: "z", ID: "9"}, Score: 60},
	}
	SortListings(ls)
	assert.Equal(t, []string{"Z|9", "A|1", "A|3", "A|2", "B|1"}, keys(ls))
}

type staticFetcher []types.ScrapeResult

func (s staticFetcher) FetchAll(context.Context, []config.Company) []types.ScrapeResult { return s }

func staticFrom(srcs []Source) staticFetcher {
	out := make(staticFetcher, len(srcs))
	for i, s := range srcs {
		out[i] = types.ScrapeResult{Company: s.Company, Raw: s.Raw, Err: s.Err}
	}
	return out
}

func fileOpener(path string) StoreOpener {
	return func(context.Context) (dedup.Store, error) { return dedup.OpenFile(path) }
}

func TestExecutePersistsAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_jobs.json")
	o := NewWith(testConfig(), mustRules(t), staticFrom(sources()), fileOpener(path))

	res, err := o.Execute(context.Background(), ModeNew)
	require.NoError(t, err)
	assert.Len(t, res.Listings, 2)

	s, err := dedup.OpenFile(path)
	require.NoError(t, err)
	set, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"Acme|a", "Databricks|1"}, set.Keys())

	res, err = o.Execute(context.Background(), ModeNew)
	require.NoError(t, err)
	assert.Empty(t, res.Listings)
}

func TestExecutePreviewLeavesStoreBytesIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Databricks|1": {"first_seen": "2026-01-10"}}`), 0o644))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	o := NewWith(testConfig(), mustRules(t), staticFrom(sources()), fileOpener(path))
	res, err := o.Execute(context.Background(), ModePreview)
	require.NoError(t, err)
	assert.Len(t, res.Listings, 2)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExecuteAllSourcesFailed(t *testing.T) {
	cfg := testConfig()
	f := staticFetcher{
		{Company: cfg.Companies[0], Err: domain.ErrSourceFetch},
		{Company: cfg.Companies[1], Err: domain.ErrSourceFetch},
	}
	o := NewWith(cfg, mustRules(t), f, fileOpener(filepath.Join(t.TempDir(), "seen.json")))

	res, err := o.Execute(context.Background(), ModeNew)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllSourcesFailed)
	assert.Len(t, res.Warnings, 2)
}

type failingStore struct{ set *dedup.Set }

func (f failingStore) Load(context.Context) (*dedup.Set, error) { return f.set, nil }
func (f failingStore) Save(context.Context, *dedup.Set) error {
	return domain.ErrStoreIO
}
func (f failingStore) Close() error { return nil }

func TestExecuteSaveFailureStillReturnsResult(t *testing.T) {
	open := func(context.Context) (dedup.Store, error) { return failingStore{set: dedup.NewSet()}, nil }
	o := NewWith(testConfig(), mustRules(t), staticFrom(sources()), open)

	res, err := o.Execute(context.Background(), ModeNew)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreIO)
	assert.Len(t, res.Listings, 2)
	require.NotEmpty(t, res.Warnings)
	last := res.Warnings[len(res.Warnings)-1]
	assert.Contains(t, last, "seen store not saved")
	assert.Contains(t, last, "reported again next run")
}

func TestExecuteRetentionPrunes(t *testing.T) {
	set := dedup.NewSet()
	set.Add("Old|1", dedup.Entry{FirstSeen: fixedNow.Add(-90 * 24 * time.Hour)})
	set.Add("Recent|1", dedup.Entry{FirstSeen: fixedNow.Add(-24 * time.Hour)})

	var saved *dedup.Set
	open := func(context.Context) (dedup.Store, error) { return &recordingStore{set: set, saved: &saved}, nil }

	cfg := testConfig()
	cfg.Store.RetentionDays = 30
	o := NewWith(cfg, mustRules(t), staticFrom(sources()), open)

	_, err := o.Execute(context.Background(), ModeNew)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, []string{"Acme|a", "Databricks|1", "Recent|1"}, saved.Keys())
}

type recordingStore struct {
	set   *dedup.Set
	saved **dedup.Set
}

func (r *recordingStore) Load(context.Context) (*dedup.Set, error) { return r.set, nil }
func (r *recordingStore) Save(_ context.Context, s *dedup.Set) error {
	*r.saved = s
	return nil
}
func (r *recordingStore) Close() error { return nil }
