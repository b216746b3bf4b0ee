package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobmonitor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)

func scored(company, id string) domain.ScoredListing {
	return domain.ScoredListing{Listing: domain.Listing{
		ID: id, Company: company, Title: "Engineer " + id, URL: "https://example.com/" + id,
	}}
}

func TestClassifierCollapsesDuplicatesWithinRun(t *testing.T) {
	set := NewSet()
	c := NewClassifier(set)

	assert.Equal(t, StatusNew, c.Classify(scored("Acme", "1")))
	assert.Equal(t, StatusSeen, c.Classify(scored("Acme", "1")))
	assert.Equal(t, StatusNew, c.Classify(scored("Other", "1")), "same id at another company is a different key")

	assert.Equal(t, 0, set.Len(), "marking is deferred until Commit")
	assert.Equal(t, []string{"Acme|1", "Other|1"}, c.Pending())

	assert.Equal(t, 2, c.Commit(now))
	assert.True(t, set.Has("Acme|1"))
	assert.Empty(t, c.Pending())

	next := NewClassifier(set)
	assert.Equal(t, StatusSeen, next.Classify(scored("Acme", "1")))
}

func TestSetAddNeverOverwrites(t *testing.T) {
	s := NewSet()
	assert.True(t, s.Add("k", Entry{FirstSeen: now, Title: "first"}))
	assert.False(t, s.Add("k", Entry{FirstSeen: now.Add(time.Hour), Title: "second"}))
	e, _ := s.Get("k")
	assert.Equal(t, "first", e.Title)
}

func TestSetPrune(t *testing.T) {
	s := NewSet()
	s.Add("old", Entry{FirstSeen: now.AddDate(0, 0, -40)})
	s.Add("new", Entry{FirstSeen: now.AddDate(0, 0, -1)})
	assert.Equal(t, 1, s.Prune(now.AddDate(0, 0, -30)))
	assert.Equal(t, []string{"new"}, s.Keys())
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen_jobs.json")

	fs, err := OpenFile(path)
	require.NoError(t, err)

	set, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len(), "missing file is an empty set")

	set.Mark(scored("Acme", "1").Listing, now)
	require.NoError(t, fs.Save(ctx, set))
	require.NoError(t, fs.Close())

	fs, err = OpenFile(path)
	require.NoError(t, err)
	defer fs.Close()
	again, err := fs.Load(ctx)
	require.NoError(t, err)
	e, ok := again.Get("Acme|1")
	require.True(t, ok)
	assert.True(t, now.Equal(e.FirstSeen))
	assert.Equal(t, "https://example.com/1", e.URL)

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestFileStoreIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_jobs.json")
	first, err := OpenFile(path)
	require.NoError(t, err)
	defer first.Close()

	_, err = OpenFile(path)
	assert.ErrorIs(t, err, domain.ErrStoreIO)
}

func TestFileStoreReadsDateOnlyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_jobs.json")
	legacy := `{"gh_acme_1": {"title": "Engineer", "company": "Acme", "first_seen": "2026-01-10", "url": "https://x"}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	defer fs.Close()
	set, err := fs.Load(context.Background())
	require.NoError(t, err)
	e, ok := set.Get("gh_acme_1")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), e.FirstSeen)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen_jobs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	defer fs.Close()
	_, err = fs.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreIO)
}

func TestSQLiteStoreSavesDiff(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.db")

	st, err := Open(ctx, "sqlite", path)
	require.NoError(t, err)
	set, err := st.Load(ctx)
	require.NoError(t, err)
	set.Mark(scored("Acme", "1").Listing, now)
	set.Mark(scored("Acme", "2").Listing, now.AddDate(0, 0, -90))
	require.NoError(t, st.Save(ctx, set))

	set.Prune(now.AddDate(0, 0, -30))
	require.NoError(t, st.Save(ctx, set))
	require.NoError(t, st.Close())

	st, err = Open(ctx, "sqlite", path)
	require.NoError(t, err)
	defer st.Close()
	again, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme|1"}, again.Keys())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "redis", "x")
	assert.ErrorIs(t, err, domain.ErrConfig)
}
