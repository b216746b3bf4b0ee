package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"jobmonitor/internal/domain"
	"jobmonitor/internal/pipeline"
)

const emailLimit = 15

var emailTmpl = template.Must(template.New("email").Parse(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
{{- if not .Listings}}
<h2>Job Monitor - No New Jobs Today</h2>
<p>No new matching jobs found. Keep checking!</p>
{{- else}}
<h2 style="color: #2563eb;">Job Monitor - {{.Total}} {{.Heading}} Jobs Found!</h2>
<p style="color: #666;">Generated: {{.Generated}}</p>
<hr>
{{- range .Listings}}
<div style="margin: 15px 0; padding: 10px; border-left: 3px solid #2563eb;">
  <h3 style="margin: 0;"><a href="{{.URL}}" style="color: #2563eb;">{{.Title}}</a></h3>
  <p style="margin: 5px 0; color: #333;"><strong>{{.Company}}</strong> - {{.Location}}</p>
  <p style="margin: 5px 0; color: #666; font-size: 12px;">Score: {{.Relevance}}</p>
</div>
{{- end}}
<hr>
{{- end}}
<p style="color: #666; font-size: 12px;">This email was generated by your Job Monitor.</p>
</body>
</html>
`))

type emailRow struct {
	Title, Company, Location, Relevance string
	URL                                 template.URL
}

// EmailHTML renders the top listings of res as an HTML mail body.
func EmailHTML(res pipeline.RunResult, now time.Time) (string, error) {
	top := res.Listings
	if len(top) > emailLimit {
		top = top[:emailLimit]
	}
	rows := make([]emailRow, 0, len(top))
	for _, l := range top {
		rows = append(rows, rowFor(l))
	}

	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, map[string]any{
		"Listings":  rows,
		"Total":     len(res.Listings),
		"Heading":   noun(res.Mode),
		"Generated": now.Format(stampLayout),
	})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func rowFor(l domain.ScoredListing) emailRow {
	return emailRow{
		Title:     l.Title,
		Company:   l.Company,
		Location:  l.Location,
		Relevance: relevance(l),
		URL:       safeURL(l.URL),
	}
}

// safeURL only trusts http(s) links; anything else renders as "#".
func safeURL(u string) template.URL {
	if strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://") {
		return template.URL(u)
	}
	return "#"
}

func noun(m pipeline.Mode) string {
	if m == pipeline.ModePreview {
		return "Matching"
	}
	return "New"
}

// Subject is the mail subject line for res.
func Subject(res pipeline.RunResult, now time.Time) string {
	if len(res.Listings) == 0 {
		return "Job Monitor: No New Jobs Today"
	}
	return fmt.Sprintf("Job Monitor: %d %s Jobs Found - %s", len(res.Listings), noun(res.Mode), now.Format(postedLayout))
}
