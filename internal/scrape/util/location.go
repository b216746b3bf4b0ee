package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindLocation looks under sel for a location in the usual board selectors,
// then in an og:description meta tag, then in labeled text.
func FindLocation(sel *goquery.Selection) string {
	candidates := []string{
		".location",
		".opening .location",
		".opening .location--small",
		".job__location",
		".app-title + .location", // some boards
		"[data-testid='job-location']",
		"[data-testid='location']",
	}

	for _, css := range candidates {
		if t := CleanText(sel.Find(css).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}

	if v, ok := sel.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if loc := ExtractLocationFromLabeledText(v); loc != "" {
			return NormalizeLocation(loc)
		}
	}

	body := CleanText(sel.Text())
	if loc := ExtractLocationFromLabeledText(body); loc != "" {
		return NormalizeLocation(loc)
	}

	return ""
}

// ExtractLocationFromLabeledText returns the text after a "Location:" style
// label, or "" when there is none.
func ExtractLocationFromLabeledText(s string) string {
	low := strings.ToLower(s)

	// common label forms: "Location", "Locations", "Job Location"
	labels := []string{
		"location:",
		"locations:",
		"job location:",
	}

	for _, lab := range labels {
		if i := strings.Index(low, lab); i >= 0 {
			// take a reasonable slice after the label
			start := i + len(lab)
			rest := strings.TrimSpace(s[start:])

			// stop at newline-ish boundaries if present
			for _, cut := range []string{"\n", "\r", " | ", " \u00b7 "} {
				if j := strings.Index(rest, cut); j >= 0 {
					rest = rest[:j]
				}
			}

			rest = CleanText(rest)
			if rest != "" && len(rest) <= 80 {
				return rest
			}
		}
	}
	return ""
}
