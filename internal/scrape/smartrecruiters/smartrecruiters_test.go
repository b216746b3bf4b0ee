package smartrecruiters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
	"jobmonitor/internal/scrape/util"
)

func TestFetchPagesAndSynthesizesURL(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		off := r.URL.Query().Get("offset")
		offsets = append(offsets, off)
		switch off {
		case "0":
			fmt.Fprint(w, `{"totalFound":101,"content":[{"id":"743999","name":"Data Engineer","location":{"city":"Austin"}}]}`)
		case "100":
			fmt.Fprint(w, `{"totalFound":101,"content":[{"id":"744000","name":"BI Developer","postingUrl":"https://example.com/p/744000"}]}`)
		default:
			fmt.Fprint(w, `{"totalFound":101,"content":[]}`)
		}
	}))
	defer srv.Close()

	s := New(util.Client{HC: srv.Client()}, srv.URL)
	raw, err := s.Fetch(context.Background(), config.Company{Name: "Acme", SourceKind: domain.SourceSmartRecruiters, SourceID: "AcmeCorp"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "100"}, offsets)
	require.Len(t, raw, 2)
	assert.Equal(t, JobsBaseURL+"/AcmeCorp/743999", raw[0].Fields["postingUrl"])
	assert.Equal(t, "https://example.com/p/744000", raw[1].Fields["postingUrl"])
}

func TestFetchStopsOnEmptyPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer srv.Close()

	raw, err := New(util.Client{HC: srv.Client()}, srv.URL).Fetch(context.Background(), config.Company{Name: "Acme", SourceID: "acme"})
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Equal(t, 1, calls)
}
