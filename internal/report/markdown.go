// Package report renders a run result for people: a markdown file, a console
// summary and an HTML mail body.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jobmonitor/internal/domain"
	"jobmonitor/internal/pipeline"
)

const (
	quickLinks   = 10
	shownTags    = 3
	stampLayout  = "2006-01-02 15:04"
	postedLayout = "2006-01-02"
)

func heading(m pipeline.Mode) string {
	if m == pipeline.ModePreview {
		return "All Matching"
	}
	return "NEW"
}

type companyGroup struct {
	name     string
	listings []domain.ScoredListing
}

// groupByCompany keeps the incoming (score) order inside each group and orders
// groups by size, then name.
func groupByCompany(ls []domain.ScoredListing) []companyGroup {
	idx := map[string]int{}
	var groups []companyGroup
	for _, l := range ls {
		i, ok := idx[l.Company]
		if !ok {
			i = len(groups)
			idx[l.Company] = i
			groups = append(groups, companyGroup{name: l.Company})
		}
		groups[i].listings = append(groups[i].listings, l)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].listings) != len(groups[j].listings) {
			return len(groups[i].listings) > len(groups[j].listings)
		}
		return groups[i].name < groups[j].name
	})
	return groups
}

func relevance(l domain.ScoredListing) string {
	tags := l.MatchedKeywords
	if len(tags) > shownTags {
		tags = tags[:shownTags]
	}
	if len(tags) == 0 {
		return fmt.Sprintf("%d", l.Score)
	}
	return fmt.Sprintf("%d (%s)", l.Score, strings.Join(tags, ", "))
}

// Markdown renders res the way new_jobs.md has always looked: grouped by
// company, followed by quick links and any warnings.
func Markdown(res pipeline.RunResult, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Job Monitor Results - %s\n", heading(res.Mode))
	fmt.Fprintf(&b, "**Generated:** %s\n", now.Format(stampLayout))
	fmt.Fprintf(&b, "**Total Jobs:** %d\n\n", len(res.Listings))

	if len(res.Listings) == 0 {
		b.WriteString("No new matching jobs found today.\n\n")
		b.WriteString("Keep checking - the right role will appear!\n")
		writeWarnings(&b, res.Warnings)
		return b.String()
	}

	for _, g := range groupByCompany(res.Listings) {
		fmt.Fprintf(&b, "## %s (%d jobs)\n\n", g.name, len(g.listings))
		for _, l := range g.listings {
			fmt.Fprintf(&b, "### [%s](%s)\n", l.Title, l.URL)
			fmt.Fprintf(&b, "- **Location:** %s\n", l.Location)
			fmt.Fprintf(&b, "- **Relevance:** %s\n", relevance(l))
			if l.Department != "" {
				fmt.Fprintf(&b, "- **Team:** %s\n", l.Department)
			}
			if l.Posted != "" {
				fmt.Fprintf(&b, "- **Posted:** %s\n", l.Posted)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("---\n## Quick Apply Links\n\n")
	for i, l := range res.Listings {
		if i == quickLinks {
			break
		}
		fmt.Fprintf(&b, "- [%s: %s](%s)\n", l.Company, l.Title, l.URL)
	}
	writeWarnings(&b, res.Warnings)
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("\n## Warnings\n\n")
	for _, w := range warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}

// WriteFile writes content to dir/name, creating dir, and returns the path.
func WriteFile(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		return "", err
	}
	return p, nil
}
