package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobmonitor/internal/domain"

	"github.com/gofrs/flock"
)

// Store loads and persists a Set. Implementations hold whatever lock they
// need between open and Close.
type Store interface {
	Load(ctx context.Context) (*Set, error)
	Save(ctx context.Context, s *Set) error
	Close() error
}

// FileStore keeps the seen set in a JSON object keyed by dedup key. The file
// is locked for the lifetime of the store and replaced atomically on Save.
type FileStore struct {
	path string
	lock *flock.Flock
}

var _ Store = (*FileStore)(nil)

// OpenFile takes an exclusive lock on path+".lock". It fails fast when another
// run already holds it.
func OpenFile(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreIO, err)
		}
	}
	lk := flock.New(path + ".lock")
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", domain.ErrStoreIO, path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another run", domain.ErrStoreIO, path)
	}
	return &FileStore{path: path, lock: lk}, nil
}

// fileEntry also accepts the older date-only first_seen form.
type fileEntry struct {
	FirstSeen string `json:"first_seen"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
}

func (f *FileStore) Load(ctx context.Context) (*Set, error) {
	s := NewSet()
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStoreIO, f.path, err)
	}
	if len(b) == 0 {
		return s, nil
	}

	var raw map[string]fileEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrStoreIO, f.path, err)
	}
	for k, e := range raw {
		s.entries[k] = Entry{FirstSeen: parseSeen(e.FirstSeen), Company: e.Company, Title: e.Title, URL: e.URL}
	}
	return s, nil
}

func (f *FileStore) Save(ctx context.Context, s *Set) error {
	out := make(map[string]fileEntry, len(s.entries))
	for k, e := range s.entries {
		out[k] = fileEntry{FirstSeen: e.FirstSeen.UTC().Format(time.RFC3339), Company: e.Company, Title: e.Title, URL: e.URL}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrStoreIO, err)
	}
	b = append(b, '\n')
	if err := writeAtomic(f.path, b); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStoreIO, f.path, err)
	}
	s.dirty = false
	return nil
}

func (f *FileStore) Close() error {
	if f == nil || f.lock == nil {
		return nil
	}
	return f.lock.Unlock()
}

// writeAtomic writes to a temp file in the target directory, syncs it and
// renames it over path. A crash leaves either the old or the new file.
func writeAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func parseSeen(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
