package dedup

import (
	"context"
	"fmt"

	"jobmonitor/internal/domain"
	"jobmonitor/internal/store"
)

// SQLiteStore keeps the seen set in the seen_jobs table. Save writes only
// the difference against what Load returned, in one transaction.
type SQLiteStore struct {
	db     *store.DB
	loaded map[string]bool
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStoreIO, path, err)
	}
	return &SQLiteStore{db: db, loaded: map[string]bool{}}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Set, error) {
	rows, err := store.ListSeen(ctx, s.db.Pool)
	if err != nil {
		return nil, fmt.Errorf("%w: list seen: %v", domain.ErrStoreIO, err)
	}
	set := NewSet()
	s.loaded = make(map[string]bool, len(rows))
	for _, r := range rows {
		set.entries[r.Key] = Entry{FirstSeen: r.FirstSeen, Company: r.Company, Title: r.Title, URL: r.URL}
		s.loaded[r.Key] = true
	}
	return set, nil
}

func (s *SQLiteStore) Save(ctx context.Context, set *Set) error {
	var add []store.SeenRow
	for k, e := range set.entries {
		if !s.loaded[k] {
			add = append(add, store.SeenRow{Key: k, Company: e.Company, Title: e.Title, URL: e.URL, FirstSeen: e.FirstSeen})
		}
	}
	var del []string
	for k := range s.loaded {
		if !set.Has(k) {
			del = append(del, k)
		}
	}
	if len(add) == 0 && len(del) == 0 {
		return nil
	}
	if err := store.ReplaceSeen(ctx, s.db.Pool, add, del); err != nil {
		return fmt.Errorf("%w: save seen: %v", domain.ErrStoreIO, err)
	}
	for _, r := range add {
		s.loaded[r.Key] = true
	}
	for _, k := range del {
		delete(s.loaded, k)
	}
	set.dirty = false
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Open picks the backend named by kind ("json" or "sqlite").
func Open(ctx context.Context, kind, path string) (Store, error) {
	switch kind {
	case "", "json":
		return OpenFile(path)
	case "sqlite":
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrConfig, kind)
	}
}
