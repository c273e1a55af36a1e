package downloader

import (
	"context"
	"fmt"

	"github.com/gocolly/colly"

	"pagepdf/cf"
)

// NewCollector creates a colly collector that shares this client's cookie
// jar, transport, timeout and headers, and decompresses brotli bodies.
func (c *HTTPClient) NewCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)
	collector.UserAgent = c.userAgent
	collector.SetRequestTimeout(c.timeout)
	collector.SetCookieJar(c.jar)
	if c.httpClient.Transport != nil {
		collector.WithTransport(c.httpClient.Transport)
	}
	return collector
}

// CollyFetcher fetches crawl pages through colly.
type CollyFetcher struct {
	client *HTTPClient
	base   *colly.Collector
}

// NewCollyFetcher returns a page fetcher backed by client's collector.
func NewCollyFetcher(client *HTTPClient) *CollyFetcher {
	return &CollyFetcher{client: client, base: client.NewCollector()}
}

// FetchPage visits pageURL and returns its decoded HTML. Challenge pages
// yield *cf.ChallengeError. colly cannot abort a request in flight, so ctx
// is only checked before the visit; the request timeout bounds the rest.
func (f *CollyFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	col := f.base.Clone()
	// challenge pages come with 403/503; let them reach OnResponse
	col.ParseHTTPErrorResponse = true

	var (
		html     string
		fetchErr error
	)

	col.OnRequest(func(r *colly.Request) {
		for k, v := range f.client.browserHeaders(pageURL) {
			r.Headers.Set(k, v[0])
		}
	})

	col.OnResponse(func(r *colly.Response) {
		if _, err := cf.DecompressResponse(r); err != nil {
			fetchErr = fmt.Errorf("failed to decompress response: %w", err)
			return
		}
		if isChallenge, info := cf.DetectFromColly(r); isChallenge {
			log.Warnf("Anti-bot challenge detected at %s", pageURL)
			fetchErr = cf.NewChallengeError(pageURL, info)
			return
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			fetchErr = fmt.Errorf("unexpected status code: %d", r.StatusCode)
			return
		}
		html = string(r.Body)
	})

	col.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	log.Debugf("colly GET %s", pageURL)
	if err := col.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	return html, nil
}
