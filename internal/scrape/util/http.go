package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client bundles what every fetcher needs to make a polite request.
type Client struct {
	HC        *http.Client
	Limiter   *HostLimiter
	UserAgent string

	// Retries is how many extra attempts a transient failure (network error,
	// 429, 5xx) gets. Zero disables retrying.
	Retries int
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("status %d: %q", e.code, e.body) }

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Get issues a rate-limited GET and returns the body of a 2xx response with
// its Content-Type. The caller closes the body.
func (c Client) Get(ctx context.Context, rawURL, accept string) (io.ReadCloser, string, error) {
	var res *http.Response
	op := func() error {
		r, err := c.do(ctx, rawURL, accept)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			b, _ := io.ReadAll(io.LimitReader(r.Body, 256))
			r.Body.Close()
			serr := &statusError{code: r.StatusCode, body: string(b)}
			if retryable(r.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}
		res = r
		return nil
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if c.Retries > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 300 * time.Millisecond
		b = backoff.WithMaxRetries(eb, uint64(c.Retries))
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, "", err
	}
	return res.Body, res.Header.Get("Content-Type"), nil
}

func (c Client) do(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = "jobmonitor/1.0 (+local)"
	}
	req.Header.Set("User-Agent", ua)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	if c.Limiter != nil {
		if err := c.Limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, backoff.Permanent(err)
		}
	}

	hc := c.HC
	if hc == nil {
		hc = http.DefaultClient
	}
	return hc.Do(req)
}

// GetJSON decodes a JSON response into v, keeping numbers as json.Number.
func (c Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, _, err := c.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
