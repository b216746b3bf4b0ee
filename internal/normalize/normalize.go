// Package normalize turns source-specific raw records into domain.Listing.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/scrape/util"
)

const unknownLocation = "Unknown"

// Normalize maps raw onto a Listing using the field table for raw.Kind. A
// record without a title or url yields ErrMalformedListing.
func Normalize(raw domain.RawListing, co config.Company) (domain.Listing, error) {
	fm, ok := Fields(raw.Kind)
	if !ok {
		return domain.Listing{}, fmt.Errorf("%w: no field table for source kind %q", domain.ErrMalformedListing, raw.Kind)
	}

	title := util.CleanText(lookupString(raw.Fields, fm.Title))
	link := strings.TrimSpace(lookupString(raw.Fields, fm.URL))
	if title == "" {
		return domain.Listing{}, fmt.Errorf("%w: %s: missing title", domain.ErrMalformedListing, co.Name)
	}
	if link == "" {
		return domain.Listing{}, fmt.Errorf("%w: %s: %q has no url", domain.ErrMalformedListing, co.Name, title)
	}

	loc := util.NormalizeLocation(lookupString(raw.Fields, fm.Location))
	if loc == "" {
		loc = unknownLocation
	}

	id := strings.TrimSpace(lookupString(raw.Fields, fm.ID))
	if id == "" {
		id = FallbackID(title, link)
	}

	return domain.Listing{
		ID:          id,
		Company:     co.Name,
		Title:       title,
		Location:    loc,
		URL:         link,
		Department:  util.CleanText(lookupString(raw.Fields, fm.Department)),
		Description: description(lookupString(raw.Fields, fm.Description), fm.DescriptionHTML),
		Posted:      postedDate(lookup(raw.Fields, fm.Posted)),
		Source:      raw.Kind,
	}, nil
}

func description(s string, isHTML bool) string {
	if isHTML {
		return htmlText(s)
	}
	return util.CleanText(s)
}

// htmlText reduces an HTML fragment to its visible text, one space between
// text nodes. Greenhouse double-escapes its markup, so entities are decoded
// before tokenizing.
func htmlText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(html.UnescapeString(s)))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return util.CleanText(strings.Join(parts, " "))
		case html.StartTagToken:
			if tn, _ := z.TagName(); isInvisible(string(tn)) {
				skip++
			}
		case html.EndTagToken:
			if tn, _ := z.TagName(); isInvisible(string(tn)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

func isInvisible(tag string) bool {
	return tag == "script" || tag == "style"
}

// FallbackID derives an id for sources with no native posting id. It depends
// only on title and url, so a retitled posting gets a new id.
func FallbackID(title, link string) string {
	return "h:" + util.HashString(title+"\n"+link)
}

func lookup(m map[string]any, path string) any {
	if path == "" || m == nil {
		return nil
	}
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

func lookupString(m map[string]any, path string) string {
	return stringify(lookup(m, path))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// postedDate accepts ISO dates, the looser formats careers pages print, and
// millisecond epochs (Lever). ISO strings keep the board's own calendar day.
func postedDate(v any) string {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		if len(t) >= 10 {
			if _, err := time.Parse("2006-01-02", t[:10]); err == nil {
				return t[:10]
			}
		}
		if t == "" {
			return ""
		}
		pt, err := dateparse.ParseIn(t, time.UTC)
		if err != nil {
			return ""
		}
		return pt.Format("2006-01-02")
	case json.Number:
		ms, err := t.Int64()
		if err != nil || ms <= 0 {
			return ""
		}
		return time.UnixMilli(ms).UTC().Format("2006-01-02")
	case float64:
		if t <= 0 {
			return ""
		}
		return time.UnixMilli(int64(t)).UTC().Format("2006-01-02")
	}
	return ""
}
