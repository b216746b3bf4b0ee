package dedup

import (
	"time"

	"jobmonitor/internal/domain"
)

type Status int

const (
	StatusNew Status = iota
	StatusSeen
)

func (s Status) String() string {
	if s == StatusNew {
		return "new"
	}
	return "seen"
}

// Classifier decides new vs seen for one run. Keys classified new are held in
// a run-local pending set, so a posting fetched twice in the same run is new
// only once. Nothing reaches the underlying Set until Commit.
type Classifier struct {
	seen    *Set
	pending map[string]domain.Listing
	order   []string
}

func NewClassifier(seen *Set) *Classifier {
	if seen == nil {
		seen = NewSet()
	}
	return &Classifier{seen: seen, pending: map[string]domain.Listing{}}
}

func (c *Classifier) Classify(l domain.ScoredListing) Status {
	key := l.Key()
	if c.seen.Has(key) {
		return StatusSeen
	}
	if _, ok := c.pending[key]; ok {
		return StatusSeen
	}
	c.pending[key] = l.Listing
	c.order = append(c.order, key)
	return StatusNew
}

// Pending returns the keys classified new so far, in classification order.
func (c *Classifier) Pending() []string {
	return append([]string(nil), c.order...)
}

// Commit marks every pending key in the underlying Set and returns how many
// were added.
func (c *Classifier) Commit(at time.Time) int {
	n := 0
	for _, key := range c.order {
		if c.seen.Mark(c.pending[key], at) {
			n++
		}
	}
	c.pending = map[string]domain.Listing{}
	c.order = nil
	return n
}
