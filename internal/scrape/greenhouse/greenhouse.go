package greenhouse

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

const DefaultBaseURL = "https://boards-api.greenhouse.io"

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

func (s *Scraper) Kind() domain.SourceKind { return domain.SourceGreenhouse }

type boardResponse struct {
	Jobs []map[string]any `json:"jobs"`
}

// Fetch lists a board via the public job board API; SourceID is the board
// token (boards.greenhouse.io/<token>). content=true asks for each posting's
// description, which the board omits otherwise.
func (s *Scraper) Fetch(ctx context.Context, co config.Company) ([]domain.RawListing, error) {
	token := strings.TrimSpace(co.SourceID)
	if token == "" {
		return nil, fmt.Errorf("greenhouse: empty board token")
	}
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", s.baseURL, url.PathEscape(token))

	var br boardResponse
	if err := s.client.GetJSON(ctx, apiURL, &br); err != nil {
		return nil, fmt.Errorf("greenhouse get %s: %w", token, err)
	}

	out := make([]domain.RawListing, 0, len(br.Jobs))
	for _, j := range br.Jobs {
		out = append(out, domain.RawListing{Kind: domain.SourceGreenhouse, Fields: j})
	}
	return out, nil
}
