package domain

// SourceKind names the board type a fetcher talks to.
type SourceKind string

const (
	SourceGreenhouse      SourceKind = "greenhouse"
	SourceLever           SourceKind = "lever"
	SourceSmartRecruiters SourceKind = "smartrecruiters"
	SourceGeneric         SourceKind = "generic"
)

// Known reports whether k has a fetcher and a field table.
func (k SourceKind) Known() bool {
	switch k {
	case SourceGreenhouse, SourceLever, SourceSmartRecruiters, SourceGeneric:
		return true
	}
	return false
}

// RawListing is one posting as the board returned it. Fields holds the decoded
// JSON object (numbers as json.Number) or the scraped field map for HTML pages.
type RawListing struct {
	Kind   SourceKind
	Fields map[string]any
}

type Listing struct {
	ID          string
	Company     string
	Title       string
	Location    string
	URL         string
	Department  string
	Description string
	Posted      string // YYYY-MM-DD when the board exposes it
	Source      SourceKind
}

// Key is the dedup key for l: company and id, '|' separated.
func (l Listing) Key() string {
	return l.Company + "|" + l.ID
}

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierNone   Tier = "none"
)

type ScoredListing struct {
	Listing

	Score           int
	MatchedKeywords []string
	Tier            Tier
	Excluded        bool
	ExcludedBy      string

	// RequiredMatched is true when at least one required keyword (not a
	// company boost) matched.
	RequiredMatched bool
	TitlePattern    string
	LocationMatched string
}

// Included applies the inclusion rule: never when excluded, otherwise a title
// tier or a required keyword hit. A location bonus alone does not qualify.
func (s ScoredListing) Included() bool {
	if s.Excluded {
		return false
	}
	return s.Tier != TierNone || s.RequiredMatched
}

// Tags returns a short annotation list for reports: title pattern, keywords,
// location, in that order.
func (s ScoredListing) Tags() []string {
	var out []string
	if s.TitlePattern != "" {
		out = append(out, "title:"+s.TitlePattern)
	}
	out = append(out, s.MatchedKeywords...)
	if s.LocationMatched != "" {
		out = append(out, "location:"+s.LocationMatched)
	}
	return out
}
