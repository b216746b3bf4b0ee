package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"jobmonitor/internal/pipeline"
)

var rule = strings.Repeat("=", 70)

// Console prints the top limit listings and a per-company fetch summary.
// limit <= 0 prints every listing.
func Console(w io.Writer, res pipeline.RunResult, limit int, now time.Time) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "  JOB MONITOR RESULTS - %s\n", heading(res.Mode))
	fmt.Fprintf(w, "  Generated: %s\n", now.Format(stampLayout))
	fmt.Fprintf(w, "  Total Jobs: %d\n", len(res.Listings))
	fmt.Fprintf(w, "%s\n", rule)

	if len(res.Listings) == 0 {
		fmt.Fprint(w, "\n  No new matching jobs found today.\n")
		fmt.Fprint(w, "  Keep checking - the right role will appear!\n")
	}

	for i, l := range res.Listings {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "\n  ... and %s more\n", humanize.Comma(int64(len(res.Listings)-limit)))
			break
		}
		fmt.Fprintf(w, "\n  * %s\n", l.Title)
		fmt.Fprintf(w, "     Company:  %s\n", l.Company)
		fmt.Fprintf(w, "     Location: %s\n", l.Location)
		fmt.Fprintf(w, "     Score:    %s\n", relevance(l))
		if p := postedAgo(l.Posted, now); p != "" {
			fmt.Fprintf(w, "     Posted:   %s\n", p)
		}
		fmt.Fprintf(w, "     URL:      %s\n", l.URL)
	}

	var failed []string
	fetched := 0
	for _, st := range res.Stats {
		fetched += st.Fetched
		if st.Failed() {
			failed = append(failed, st.Company)
		}
	}
	fmt.Fprintf(w, "\n  Scanned %s postings across %d companies", humanize.Comma(int64(fetched)), len(res.Stats))
	if len(failed) > 0 {
		fmt.Fprintf(w, " (%d failed: %s)", len(failed), strings.Join(failed, ", "))
	}
	fmt.Fprintf(w, "\n%s\n\n", rule)
}

func postedAgo(posted string, now time.Time) string {
	if posted == "" {
		return ""
	}
	t, err := time.Parse(postedLayout, posted)
	if err != nil {
		return posted
	}
	return fmt.Sprintf("%s (%s)", posted, humanize.RelTime(t, now, "ago", "from now"))
}
