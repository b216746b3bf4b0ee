// Package pipeline composes normalize, score and dedup into one run.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"jobmonitor/internal/config"
	"jobmonitor/internal/dedup"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/normalize"
	"jobmonitor/internal/rank"
)

type Mode int

const (
	// ModeNew reports only unseen listings and records them as seen.
	ModeNew Mode = iota
	// ModePreview reports every included listing and records nothing.
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "new"
}

// Source is one company's fetch outcome as the core sees it.
type Source struct {
	Company config.Company
	Raw     []domain.RawListing
	Err     error
}

type CompanyStats struct {
	Company   string            `json:"company"`
	Kind      domain.SourceKind `json:"kind"`
	Fetched   int               `json:"fetched"`
	Malformed int               `json:"malformed"`
	Excluded  int               `json:"excluded"`
	Dropped   int               `json:"dropped"`
	Included  int               `json:"included"`
	New       int               `json:"new"`
	Error     string            `json:"error,omitempty"`
}

// Failed reports whether the company's board could not be read.
func (c CompanyStats) Failed() bool { return c.Error != "" }

type RunResult struct {
	RunID    string
	Mode     Mode
	At       time.Time
	Listings []domain.ScoredListing
	Stats    []CompanyStats
	Warnings []string
	NewKeys  []string

	// Seen is the store value after the run: a copy carrying NewKeys in
	// ModeNew, the input set untouched in ModePreview.
	Seen *dedup.Set
}

// AllFailed is true when there was at least one source and none could be read.
func (r RunResult) AllFailed() bool {
	if len(r.Stats) == 0 {
		return false
	}
	for _, s := range r.Stats {
		if !s.Failed() {
			return false
		}
	}
	return true
}

var clock = time.Now

// Run processes sources in order. It never mutates seen; the updated set comes
// back in RunResult.Seen. Fetch errors and malformed records become stats and
// warnings.
func Run(sources []Source, rules rank.Scorer, seen *dedup.Set, mode Mode) RunResult {
	if seen == nil {
		seen = dedup.NewSet()
	}
	res := RunResult{
		RunID: uuid.NewString(),
		Mode:  mode,
		At:    clock().UTC(),
		Stats: make([]CompanyStats, 0, len(sources)),
	}

	work := seen
	if mode == ModeNew {
		work = seen.Clone()
	}
	cls := dedup.NewClassifier(work)
	shown := mapset.NewThreadUnsafeSet[string]()

	for _, src := range sources {
		st := CompanyStats{Company: src.Company.Name, Kind: src.Company.SourceKind}
		if src.Err != nil {
			st.Error = src.Err.Error()
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", src.Company.Name, src.Err))
			res.Stats = append(res.Stats, st)
			continue
		}

		st.Fetched = len(src.Raw)
		for _, raw := range src.Raw {
			l, err := normalize.Normalize(raw, src.Company)
			if err != nil {
				st.Malformed++
				continue
			}

			sl := rules.Score(l)
			switch {
			case sl.Excluded:
				st.Excluded++
				continue
			case !sl.Included():
				st.Dropped++
				continue
			}
			st.Included++

			status := cls.Classify(sl)
			if status == dedup.StatusNew {
				st.New++
			}
			switch mode {
			case ModePreview:
				if shown.Add(sl.Key()) {
					res.Listings = append(res.Listings, sl)
				}
			default:
				if status == dedup.StatusNew {
					res.Listings = append(res.Listings, sl)
				}
			}
		}
		if st.Malformed > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: skipped %d malformed listing(s)", src.Company.Name, st.Malformed))
		}
		res.Stats = append(res.Stats, st)
	}

	res.NewKeys = cls.Pending()
	if mode == ModeNew {
		cls.Commit(res.At)
	}
	res.Seen = work

	SortListings(res.Listings)
	return res
}

// SortListings orders by score descending, then company, title and id.
func SortListings(ls []domain.ScoredListing) {
	sort.SliceStable(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}
