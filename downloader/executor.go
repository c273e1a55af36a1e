package downloader

import (
	"fmt"

	"pagepdf/config"
	"pagepdf/parser"
)

// NewPageFetcher decides how crawl pages are fetched: through a colly
// collector or straight through the HTTP client. Both share the client's
// cookies and headers.
func NewPageFetcher(method string, client *HTTPClient) (parser.PageFetcher, error) {
	switch method {
	case config.FetcherColly, "":
		return NewCollyFetcher(client), nil
	case config.FetcherHTTP:
		return client, nil
	default:
		return nil, fmt.Errorf("unknown fetcher %q", method)
	}
}
