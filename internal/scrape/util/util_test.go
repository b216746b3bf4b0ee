package util

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Remote, US", NormalizeLocation("  Remote,  US , remote "))
	assert.Equal(t, "", NormalizeLocation("   "))
	assert.Equal(t, "San Francisco", NormalizeLocation("Location: San Francisco"))
}

func TestHashStringStable(t *testing.T) {
	a := HashString("Data Engineer\nhttps://example.com/jobs/1")
	b := HashString("Data Engineer\nhttps://example.com/jobs/1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, HashString("Data Engineer\nhttps://example.com/jobs/2"))
}

func TestResolveURL(t *testing.T) {
	base := "https://example.com/careers/"
	assert.Equal(t, "https://example.com/careers/jobs/42", ResolveURL(base, "jobs/42#apply"))
	assert.Equal(t, "https://example.com/jobs/7?ref=a", ResolveURL(base, "/jobs/7?utm_source=x&ref=a"))
	assert.Equal(t, "", ResolveURL(base, "mailto:jobs@example.com"))
	assert.Equal(t, "", ResolveURL(base, "#top"))
}

func TestHostLimiterPerHost(t *testing.T) {
	hl := NewHostLimiter(1000, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, hl.WaitURL(ctx, "https://a.example.com/x"))
	require.NoError(t, hl.WaitURL(ctx, "https://b.example.com/x"))
	assert.Same(t, hl.limiterFor("a.example.com"), hl.limiterFor("a.example.com"))
	assert.NotSame(t, hl.limiterFor("a.example.com"), hl.limiterFor("b.example.com"))
}

func TestClientGetJSONKeepsNumbers(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"id": 4012345678901}`))
	}))
	defer srv.Close()

	c := Client{HC: srv.Client(), Limiter: NewHostLimiter(100, 10), UserAgent: "test-agent"}
	var v map[string]any
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &v))

	assert.Equal(t, "test-agent", gotUA)
	n, ok := v["id"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "4012345678901", n.String())
}

func TestClientGetRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := Client{HC: srv.Client(), Retries: 3}.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, ctype, err := Client{HC: srv.Client(), Retries: 2}.Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "text/plain; charset=utf-8", ctype)
}

func TestClientNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := Client{HC: srv.Client()}.Get(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFindLocation(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><h3>Data Engineer</h3><span class="location"> Remote,  US </span></div>`))
	require.NoError(t, err)
	assert.Equal(t, "Remote, US", FindLocation(doc.Selection))

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(`<p>Location: Berlin</p>`))
	require.NoError(t, err)
	assert.Equal(t, "Berlin", FindLocation(doc.Selection))

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(`<p>nothing here</p>`))
	require.NoError(t, err)
	assert.Equal(t, "", FindLocation(doc.Selection))
}
