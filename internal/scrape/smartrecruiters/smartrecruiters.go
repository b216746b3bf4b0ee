package smartrecruiters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/scrape/types"
	"jobmonitor/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://api.smartrecruiters.com"
	JobsBaseURL    = "https://jobs.smartrecruiters.com"

	pageSize  = 100
	maxOffset  = 5000
)

type Scraper struct {
	client  util.Client
	baseURL string
	jobsURL string
}

var _ types.Fetcher = (*Scraper)(nil)

func New(client util.Client, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		jobsURL: JobsBaseURL,
	}
}

func (s *Scraper) Kind() domain.SourceKind { return domain.SourceSmartRecruiters }

// The public API pages as { "content": [...], "totalFound": N, "offset": O, "limit": L }.
type postingsResponse struct {
	Content    []map[string]any `json:"content"`
	TotalFound json.Number      `json:"totalFound"`
}

// Fetch walks every page of /v1/companies/<SourceID>/postings. Postings carry
// no public url, so one is synthesized into "postingUrl".
func (s *Scraper) Fetch(ctx context.Context, co config.Company) ([]domain.RawListing, error) {
	slug := strings.TrimSpace(co.SourceID)
	if slug == "" {
		return nil, fmt.Errorf("smartrecruiters: empty slug")
	}
	base := fmt.Sprintf("%s/v1/companies/%s/postings", s.baseURL, url.PathEscape(slug))

	var out []domain.RawListing
	for offset := 0; offset <= maxOffset; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		u := fmt.Sprintf("%s?limit=%d&offset=%d", base, pageSize, offset)
		var pr postingsResponse
		if err := s.client.GetJSON(ctx, u, &pr); err != nil {
			return nil, fmt.Errorf("smartrecruiters get %s: %w", slug, err)
		}
		if len(pr.Content) == 0 {
			break
		}

		for _, p := range pr.Content {
			if id := idOf(p); id != "" {
				if _, ok := p["postingUrl"]; !ok {
					p["postingUrl"] = fmt.Sprintf("%s/%s/%s", s.jobsURL, url.PathEscape(slug), url.PathEscape(id))
				}
			}
			out = append(out, domain.RawListing{Kind: domain.SourceSmartRecruiters, Fields: p})
		}

		total, _ := pr.TotalFound.Int64()
		if total > 0 && int64(offset+pageSize) >= total {
			break
		}
	}
	return out, nil
}

func idOf(p map[string]any) string {
	for _, k := range []string{"id", "uuid", "ref"} {
		if s, ok := p[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
