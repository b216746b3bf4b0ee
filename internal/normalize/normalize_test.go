package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestNormalizePerSourceKind(t *testing.T) {
	tests := []struct {
		name string
		kind domain.SourceKind
		raw  string
		want domain.Listing
	}{
		{
			name: "greenhouse",
			kind: domain.SourceGreenhouse,
			raw: `{"id": 4012345006, "title": " Senior Solutions Architect - Energy ",
				"location": {"name": "Remote"}, "absolute_url": "https://boards.greenhouse.io/databricks/jobs/4012345006",
				"departments": [{"name": "Field Engineering"}], "updated_at": "2026-01-14T10:00:00-05:00",
				"content": "&lt;div&gt;&lt;p&gt;Design &lt;strong&gt;lakehouse&lt;/strong&gt; systems.&lt;/p&gt;&lt;p&gt;R&amp;amp;D&lt;/p&gt;&lt;/div&gt;"}`,
			want: domain.Listing{
				ID: "4012345006", Company: "Databricks", Title: "Senior Solutions Architect - Energy",
				Location: "Remote", URL: "https://boards.greenhouse.io/databricks/jobs/4012345006",
				Department: "Field Engineering", Description: "Design lakehouse systems. R&D",
				Posted: "2026-01-14", Source: domain.SourceGreenhouse,
			},
		},
		{
			name: "lever",
			kind: domain.SourceLever,
			raw: `{"id": "5ac21346-8e0c-4494-8e7a-3eb92ff77902", "text": "Data Engineer",
				"hostedUrl": "https://jobs.lever.co/acme/5ac21346", "createdAt": 1768521600000,
				"categories": {"location": "Austin, TX", "team": "Data"}, "descriptionPlain": "Build  pipelines."}`,
			want: domain.Listing{
				ID: "5ac21346-8e0c-4494-8e7a-3eb92ff77902", Company: "Databricks", Title: "Data Engineer",
				Location: "Austin, TX", URL: "https://jobs.lever.co/acme/5ac21346", Department: "Data",
				Description: "Build pipelines.", Posted: "2026-01-16", Source: domain.SourceLever,
			},
		},
		{
			name: "smartrecruiters",
			kind: domain.SourceSmartRecruiters,
			raw: `{"id": "743999", "name": "Process Engineer", "location": {"city": "Houston"},
				"postingUrl": "https://jobs.smartrecruiters.com/acme/743999", "department": {"label": "Ops"}}`,
			want: domain.Listing{
				ID: "743999", Company: "Databricks", Title: "Process Engineer", Location: "Houston",
				URL: "https://jobs.smartrecruiters.com/acme/743999", Department: "Ops", Source: domain.SourceSmartRecruiters,
			},
		},
	}

	co := config.Company{Name: "Databricks"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(domain.RawListing{Kind: tt.kind, Fields: decode(t, tt.raw)}, co)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeGenericFallsBackToHashID(t *testing.T) {
	raw := domain.RawListing{Kind: domain.SourceGeneric, Fields: map[string]any{
		"title": "Battery Systems Engineer",
		"url":   "https://example.com/careers/battery",
	}}
	co := config.Company{Name: "Example"}

	first, err := Normalize(raw, co)
	require.NoError(t, err)
	second, err := Normalize(raw, co)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "fallback id must be stable across runs")
	assert.True(t, strings.HasPrefix(first.ID, "h:"))
	assert.Equal(t, "Unknown", first.Location)
	assert.Equal(t, FallbackID("Battery Systems Engineer", "https://example.com/careers/battery"), first.ID)
}

func TestNormalizeMalformed(t *testing.T) {
	co := config.Company{Name: "Acme"}
	cases := map[string]domain.RawListing{
		"no title":     {Kind: domain.SourceLever, Fields: map[string]any{"hostedUrl": "https://x"}},
		"blank title":  {Kind: domain.SourceLever, Fields: map[string]any{"text": "   ", "hostedUrl": "https://x"}},
		"no url":       {Kind: domain.SourceGreenhouse, Fields: map[string]any{"title": "Engineer"}},
		"unknown kind": {Kind: "workable", Fields: map[string]any{"title": "Engineer", "url": "https://x"}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw, co)
			assert.ErrorIs(t, err, domain.ErrMalformedListing)
		})
	}
}

func TestLookupPaths(t *testing.T) {
	m := decode(t, `{"a": {"b": [{"c": "x"}, {"c": 7}]}}`)
	assert.Equal(t, "x", lookupString(m, "a.b.0.c"))
	assert.Equal(t, "7", lookupString(m, "a.b.1.c"))
	assert.Equal(t, "", lookupString(m, "a.b.2.c"))
	assert.Equal(t, "", lookupString(m, "a.missing"))
	assert.Equal(t, "", lookupString(m, ""))
}

func TestPostedDate(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"2026-01-14T09:30:00-05:00", "2026-01-14"},
		{"2026-01-14", "2026-01-14"},
		{"Jan 14, 2026", "2026-01-14"},
		{"not a date", ""},
		{"", ""},
		{json.Number("1768521600000"), "2026-01-16"},
		{json.Number("-1"), ""},
		{nil, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, postedDate(c.in), "postedDate(%v)", c.in)
	}
}

func TestHTMLText(t *testing.T) {
	assert.Equal(t, "", htmlText("  "))
	assert.Equal(t, "Hello world", htmlText("<p>Hello</p><p>world</p>"))
	assert.Equal(t, "Kept", htmlText("<style>p{}</style><script>x()</script><b>Kept</b>"))
	assert.Equal(t, "a < b", htmlText("&lt;p&gt;a &amp;lt; b&lt;/p&gt;"))
	assert.Equal(t, "plain text", htmlText("plain   text"))
}
