package lever

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/scrape/types"
	"jobmonitor/internal/scrape/util"
)

const DefaultBaseURL = "https://api.lever.co"

type Scraper struct {
	client  util.Client
	baseURL string
}

var _ types.Fetcher = (*Scraper)(nil)

func New(client util.Client, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Scraper) Kind() domain.SourceKind { return domain.SourceLever }

// Fetch lists api.lever.co/v0/postings/<SourceID>.
func (s *Scraper) Fetch(ctx context.Context, co config.Company) ([]domain.RawListing, error) {
	slug := strings.TrimSpace(co.SourceID)
	if slug == "" {
		return nil, fmt.Errorf("lever: empty company id")
	}
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.baseURL, url.PathEscape(slug))

	var postings []map[string]any
	if err := s.client.GetJSON(ctx, apiURL, &postings); err != nil {
		return nil, fmt.Errorf("lever get %s: %w", slug, err)
	}

	out := make([]domain.RawListing, 0, len(postings))
	for _, p := range postings {
		out = append(out, domain.RawListing{Kind: domain.SourceLever, Fields: p})
	}
	return out, nil
}
