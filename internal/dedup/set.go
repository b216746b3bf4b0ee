// Package dedup tracks which listings have already been reported.
package dedup

import (
	"sort"
	"time"

	"jobmonitor/internal/domain"
)

// Entry is the metadata stored per seen key.
type Entry struct {
	FirstSeen time.Time `json:"first_seen"`
	Company   string    `json:"company,omitempty"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Set is the in-memory seen store. It is not safe for concurrent use; a run
// owns it exclusively.
type Set struct {
	entries map[string]Entry
	dirty   bool
}

func NewSet() *Set {
	return &Set{entries: make(map[string]Entry)}
}

func (s *Set) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

func (s *Set) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *Set) Len() int { return len(s.entries) }

// Add records key unless it is already present. Existing entries are never
// overwritten, so merging is idempotent.
func (s *Set) Add(key string, e Entry) bool {
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = e
	s.dirty = true
	return true
}

// Mark adds l under its dedup key.
func (s *Set) Mark(l domain.Listing, at time.Time) bool {
	return s.Add(l.Key(), Entry{FirstSeen: at.UTC(), Company: l.Company, Title: l.Title, URL: l.URL})
}

// Prune removes entries first seen before cutoff and returns how many went.
func (s *Set) Prune(cutoff time.Time) int {
	n := 0
	for k, e := range s.entries {
		if e.FirstSeen.Before(cutoff) {
			delete(s.entries, k)
			n++
		}
	}
	if n > 0 {
		s.dirty = true
	}
	return n
}

// Dirty reports whether the set changed since it was loaded.
func (s *Set) Dirty() bool { return s.dirty }

// Keys returns all keys, sorted.
func (s *Set) Keys() []string {
	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := &Set{entries: make(map[string]Entry, len(s.entries)), dirty: s.dirty}
	for k, e := range s.entries {
		c.entries[k] = e
	}
	return c
}
