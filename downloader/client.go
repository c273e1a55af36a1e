package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"pagepdf/cf"
	"pagepdf/config"
	"pagepdf/logger"
)

var log = logger.New("HTTPClient")

const (
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptImage = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// ClientOptions configures an HTTPClient.
type ClientOptions struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	// Transport replaces the default round tripper, e.g. with one that
	// knows how to get past an anti-bot challenge.
	Transport http.RoundTripper
}

// HTTPClient fetches pages and images with a browser-like header set and a
// cookie jar shared by every request, colly collectors included.
type HTTPClient struct {
	httpClient     *http.Client
	jar            *cookiejar.Jar
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
}

// NewHTTPClient builds a client from opts, filling blanks with defaults.
func NewHTTPClient(opts ClientOptions) (*HTTPClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = config.DefaultAcceptLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		jar:            jar,
		userAgent:      opts.UserAgent,
		acceptLanguage: opts.AcceptLanguage,
		timeout:        opts.Timeout,
	}, nil
}

// NewHTTPClientFromConfig builds a client for cfg and loads its cookie file.
func NewHTTPClientFromConfig(cfg config.Config) (*HTTPClient, error) {
	client, err := NewHTTPClient(ClientOptions{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	if cfg.CookiesFile != "" {
		path, err := config.ExpandPath(cfg.CookiesFile)
		if err != nil {
			return nil, err
		}
		cookies, err := cf.LoadCookieFile(path)
		if err != nil {
			return nil, err
		}
		n := client.SetCookies(cookies)
		log.Infof("Loaded %d cookies from %s", n, path)
	}
	return client, nil
}

// SetCookies stores cookies in the jar and returns how many were accepted
// for their domain. Cookies without the subdomain flag are host-only.
func (c *HTTPClient) SetCookies(cookies []cf.Cookie) int {
	n := 0
	for _, ck := range cookies {
		host := strings.TrimPrefix(ck.Domain, ".")
		if host == "" || ck.Name == "" {
			continue
		}
		path := ck.Path
		if path == "" {
			path = "/"
		}
		u := &url.URL{Scheme: "https", Host: host, Path: path}

		hc := ck.HTTPCookie()
		if !ck.IncludeSub {
			hc.Domain = ""
		}
		c.jar.SetCookies(u, []*http.Cookie{hc})
		n++
	}
	return n
}

// Jar exposes the shared cookie jar.
func (c *HTTPClient) Jar() *cookiejar.Jar { return c.jar }

// Timeout is the per-request timeout.
func (c *HTTPClient) Timeout() time.Duration { return c.timeout }

// UserAgent is the User-Agent sent with every request.
func (c *HTTPClient) UserAgent() string { return c.userAgent }

// browserHeaders returns the header set of a top level navigation to target.
func (c *HTTPClient) browserHeaders(target string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	h.Set("Accept", acceptHTML)
	h.Set("Accept-Language", c.acceptLanguage)
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("Referer", target)
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// FetchHTML fetches targetURL as a page. Compressed bodies are decoded,
// challenge pages are returned as *cf.ChallengeError and any other non-2xx
// status is an error. Nothing is retried.
func (c *HTTPClient) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.browserHeaders(targetURL)

	log.Debugf("GET %s", targetURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	decompressed, wasCompressed, err := cf.DecompressResponseBody(bodyBytes, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("failed to decompress response: %w", err)
	}
	if wasCompressed {
		log.Debugf("Decompressed response: %d -> %d bytes", len(bodyBytes), len(decompressed))
		bodyBytes = decompressed
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	isChallenge, info, err := cf.Detect(resp)
	if err != nil {
		return "", fmt.Errorf("challenge detection failed: %w", err)
	}
	if isChallenge {
		log.Warnf("Anti-bot challenge detected at %s", targetURL)
		return "", cf.NewChallengeError(targetURL, info)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return string(bodyBytes), nil
}

// FetchPage is FetchHTML under the name crawlers expect.
func (c *HTTPClient) FetchPage(ctx context.Context, pageURL string) (string, error) {
	return c.FetchHTML(ctx, pageURL)
}

// FetchImage downloads the bytes behind imageURL. Transport level gzip is
// left to net/http since image bodies are rarely compressed.
func (c *HTTPClient) FetchImage(ctx context.Context, imageURL, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", acceptImage)
	req.Header.Set("Accept-Language", c.acceptLanguage)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Sec-Fetch-Dest", "image")
	req.Header.Set("Sec-Fetch-Mode", "no-cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bad response status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return data, nil
}
