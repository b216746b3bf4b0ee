// Package generic scrapes job titles out of a plain HTML careers page.
package generic

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/scrape/types"
	"jobmonitor/internal/scrape/util"
)

const (
	maxCandidates  = 20
	minTitleLength = 6
)

// candidateSel matches the elements careers pages tend to put titles in; the
// class filter is applied in isCandidate.
const candidateSel = "h1, h2, h3, h4, a, div"

var classHints = []string{"job", "position", "title"}

type Scraper struct {
	client util.Client
}

var _ types.Fetcher = (*Scraper)(nil)

func New(client util.Client) *Scraper {
	return &Scraper{client: client}
}

func (s *Scraper) Kind() domain.SourceKind { return domain.SourceGeneric }

// Fetch downloads the careers page named by SourceID and returns one record
// per plausible title. Links are resolved against the page; a title with no
// link points at the page itself.
func (s *Scraper) Fetch(ctx context.Context, co config.Company) ([]domain.RawListing, error) {
	pageURL := strings.TrimSpace(co.SourceID)
	if pageURL == "" {
		return nil, fmt.Errorf("generic: empty careers url")
	}

	body, ctype, err := s.client.Get(ctx, pageURL, "text/html")
	if err != nil {
		return nil, fmt.Errorf("generic get %s: %w", pageURL, err)
	}
	defer body.Close()

	// goquery expects UTF-8; older careers sites still serve latin-1
	utf8Body, err := charset.NewReader(body, ctype)
	if err != nil {
		return nil, fmt.Errorf("generic charset %s: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("generic parse %s: %w", pageURL, err)
	}
	return Extract(doc, pageURL), nil
}

// Extract applies the title heuristics to an already parsed page.
func Extract(doc *goquery.Document, pageURL string) []domain.RawListing {
	var cands []*goquery.Selection
	doc.Find(candidateSel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if !isCandidate(el) || ownText(el) == "" {
			return true
		}
		cands = append(cands, el)
		return len(cands) < maxCandidates
	})

	seen := map[string]bool{}
	var out []domain.RawListing
	for _, el := range cands {
		title := ownText(el)
		if len(title) < minTitleLength || seen[title] || util.LooksLikeJunkTitle(title) {
			continue
		}
		seen[title] = true

		link := linkFor(el, pageURL)
		if link == "" {
			link = pageURL
		}
		fields := map[string]any{
			"title": title,
			"url":   link,
		}
		if loc := util.FindLocation(el.Parent()); loc != "" {
			fields["location"] = loc
		}
		out = append(out, domain.RawListing{Kind: domain.SourceGeneric, Fields: fields})
	}
	return out
}

func isCandidate(el *goquery.Selection) bool {
	class := strings.ToLower(el.AttrOr("class", ""))
	if class == "" {
		return false
	}
	for _, h := range classHints {
		if strings.Contains(class, h) {
			return true
		}
	}
	return false
}

// ownText is the element's text without its children's.
func ownText(el *goquery.Selection) string {
	return util.CleanText(el.Clone().Children().Remove().End().Text())
}

func linkFor(el *goquery.Selection, pageURL string) string {
	if href, ok := el.Attr("href"); ok {
		return util.ResolveURL(pageURL, href)
	}
	if href, ok := el.Closest("a[href]").Attr("href"); ok {
		return util.ResolveURL(pageURL, href)
	}
	if href, ok := el.Find("a[href]").First().Attr("href"); ok {
		return util.ResolveURL(pageURL, href)
	}
	return ""
}
