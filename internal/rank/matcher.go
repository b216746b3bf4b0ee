package rank

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

func fold(s string) string { return folder.String(s) }

// term is a case-folded substring needle that keeps its display form.
type term struct {
	raw    string
	folded string
}

func newTerms(xs []string) []term {
	out := make([]term, 0, len(xs))
	seen := map[string]bool{}
	for _, x := range xs {
		x = strings.TrimSpace(x)
		f := fold(x)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, term{raw: x, folded: f})
	}
	return out
}

// in reports whether t occurs in folded haystack h.
func (t term) in(h string) bool { return strings.Contains(h, t.folded) }

// firstIn returns the first term found in h, in config order.
func firstIn(ts []term, h string) (term, bool) {
	for _, t := range ts {
		if t.in(h) {
			return t, true
		}
	}
	return term{}, false
}

type pattern struct {
	raw string
	re  *regexp.Regexp
}

func compilePatterns(xs []string) ([]pattern, error) {
	out := make([]pattern, 0, len(xs))
	for _, x := range xs {
		re, err := regexp.Compile("(?i)" + x)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern{raw: x, re: re})
	}
	return out, nil
}

func firstPattern(ps []pattern, s string) (pattern, bool) {
	for _, p := range ps {
		if p.re.MatchString(s) {
			return p, true
		}
	}
	return pattern{}, false
}
