// internal/rank/rules.go
package rank

import (
	"fmt"
	"sort"
	"strings"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
)

// Rules is the compiled form of the scoring config. Build it once per run;
// Score is then a pure function of the listing.
type Rules struct {
	high      []pattern
	medium    []pattern
	required  []term
	boosts    map[string][]term // company name (folded) -> boost keywords
	preferred []term
	excluded  []term
	exclLocs  []term

	weights   config.Weights
	matchDesc bool
}

var _ Scorer = (*Rules)(nil)

func Compile(cfg config.Config) (*Rules, error) {
	high, err := compilePatterns(cfg.HighPriorityTitles)
	if err != nil {
		return nil, fmt.Errorf("%w: high_priority_titles: %v", domain.ErrConfig, err)
	}
	medium, err := compilePatterns(cfg.MediumPriorityTitles)
	if err != nil {
		return nil, fmt.Errorf("%w: medium_priority_titles: %v", domain.ErrConfig, err)
	}

	r := &Rules{
		high:      high,
		medium:    medium,
		required:  newTerms(cfg.RequiredKeywords),
		boosts:    map[string][]term{},
		preferred: newTerms(cfg.PreferredLocations),
		excluded:  newTerms(cfg.ExcludedKeywords),
		exclLocs:  newTerms(cfg.ExcludedLocations),
		weights:   cfg.Weights,
		matchDesc: cfg.Scoring.MatchDescription,
	}
	for _, c := range cfg.Companies {
		if len(c.KeywordsBoost) == 0 {
			continue
		}
		k := fold(c.Name)
		r.boosts[k] = newTerms(append(r.rawBoosts(k), c.KeywordsBoost...))
	}
	return r, nil
}

func (r *Rules) rawBoosts(companyKey string) []string {
	var out []string
	for _, t := range r.boosts[companyKey] {
		out = append(out, t.raw)
	}
	return out
}

func (r *Rules) Score(l domain.Listing) domain.ScoredListing {
	s := domain.ScoredListing{Listing: l, Tier: domain.TierNone}

	// 1) title tier
	if p, ok := firstPattern(r.high, l.Title); ok {
		s.Tier = domain.TierHigh
		s.TitlePattern = p.raw
		s.Score += r.weights.HighTitle
	} else if p, ok := firstPattern(r.medium, l.Title); ok {
		s.Tier = domain.TierMedium
		s.TitlePattern = p.raw
		s.Score += r.weights.MediumTitle
	}

	// 2) keywords: required first, then company boosts; each distinct hit once
	text := l.Title + " " + l.Department
	if r.matchDesc && l.Description != "" {
		text += " " + l.Description
	}
	text = fold(text)

	matched := map[string]string{}
	for _, t := range r.required {
		if t.in(text) {
			matched[t.folded] = t.raw
			s.RequiredMatched = true
		}
	}
	for _, t := range r.boosts[fold(l.Company)] {
		if _, dup := matched[t.folded]; !dup && t.in(text) {
			matched[t.folded] = t.raw
		}
	}
	for _, raw := range matched {
		s.MatchedKeywords = append(s.MatchedKeywords, strings.ToLower(raw))
	}
	sort.Strings(s.MatchedKeywords)
	s.Score += len(matched) * r.weights.Keyword

	// 3) location bonus
	loc := fold(l.Location)
	if t, ok := firstIn(r.preferred, loc); ok {
		s.LocationMatched = t.raw
		s.Score += r.weights.Location
	}

	// 4) exclusion is evaluated last and always wins
	if why, ok := r.excludedBy(l, loc, text); ok {
		s.Excluded = true
		s.ExcludedBy = why
		s.Score = r.weights.Excluded
	}

	return s
}

func (r *Rules) excludedBy(l domain.Listing, loc, text string) (string, bool) {
	if t, ok := firstIn(r.excluded, loc+"\n"+text); ok {
		return t.raw, true
	}
	if !strings.Contains(loc, "remote") {
		if t, ok := firstIn(r.exclLocs, loc); ok {
			return "location:" + t.raw, true
		}
	}
	return "", false
}
