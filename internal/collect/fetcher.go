// Package collect fetches the monitored receipt page, extracts its rendered
// text and feeds changed content into the history store on a fixed interval.
package collect

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// contentMarker must appear in the page body for it to carry receipt
// positions; server-side placeholder pages render without it.
const contentMarker = "chekPosition"

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:91.0) Gecko/20100101 Firefox/91.0"

// Fetcher produces the raw HTML of the monitored page. An empty string with a
// nil error means the page had no receipt content, which is not a failure.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPFetcher fetches the page with a plain GET. The target occasionally
// serves a JS shell instead of rendered markup; that case comes back as
// "no content" and the next cycle retries.
type HTTPFetcher struct {
	url    string
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher for url with the given request timeout.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetHeader("User-Agent", browserUserAgent).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(1 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode() >= http.StatusInternalServerError
		})

	return &HTTPFetcher{url: url, client: client}
}

// Fetch performs the GET and returns the body when it carries receipt
// content.
func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status())
	}

	body := string(resp.Body())
	if !strings.Contains(body, contentMarker) {
		return "", nil
	}
	return body, nil
}
