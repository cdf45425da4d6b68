package feed

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const maxFeedSize = 10 * 1024 * 1024

// Fetcher retrieves a feed URL and parses it into raw syndication entries.
// It never retries; retry policy belongs to the caller.
type Fetcher struct {
	client       *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	timeout      time.Duration
}

func NewFetcher(client *http.Client, userAgent string, timeout time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:       client,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Fetch downloads and parses the feed at url. Network failures, timeouts and
// non-2xx responses surface as *FetchError; malformed payloads as *ParseError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]*gofeed.Item, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Err: newStatusError(resp.StatusCode, resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	parsed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}

	return parsed.Items, nil
}

type statusError struct {
	code   int
	status string
}

func newStatusError(code int, status string) *statusError {
	return &statusError{code: code, status: status}
}

func (e *statusError) Error() string {
	return "unexpected status " + e.status
}
