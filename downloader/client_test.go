package downloader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagepdf/cf"
	"pagepdf/config"
)

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(ClientOptions{})
	require.NoError(t, err)
	return client
}

func TestFetchHTML_BrowserHeadersAndCookies(t *testing.T) {
	var got http.Header
	var session string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		if c, err := r.Cookie("session"); err == nil {
			session = c.Value
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	client := newTestClient(t)
	n := client.SetCookies([]cf.Cookie{
		{Domain: "127.0.0.1", Path: "/", Name: "session", Value: "abc123"},
		{Domain: "", Name: "orphan", Value: "x"},
	})
	assert.Equal(t, 1, n)

	html, err := client.FetchHTML(context.Background(), srv.URL+"/story/")
	require.NoError(t, err)
	assert.Contains(t, html, "ok")

	assert.Equal(t, config.DefaultUserAgent, got.Get("User-Agent"))
	assert.Equal(t, config.DefaultAcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, srv.URL+"/story/", got.Get("Referer"))
	assert.Equal(t, "navigate", got.Get("Sec-Fetch-Mode"))
	assert.Equal(t, "abc123", session)
}

func TestFetchHTML_Brotli(t *testing.T) {
	page := "<html><head><title>Compressed</title></head><body>brotli body</body></html>"
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	_, err := bw.Write([]byte(page))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	html, err := newTestClient(t).FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, page, html)
}

func TestFetchHTML_Challenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.Header().Set("CF-Ray", "8a1b2c3d4e5f-AMS")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("<html><head><title>Just a moment...</title></head><body></body></html>"))
	}))
	defer srv.Close()

	_, err := newTestClient(t).FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)
	cfErr, ok := cf.IsChallenge(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, cfErr.StatusCode)
	assert.Equal(t, srv.URL, cfErr.URL)
}

func TestFetchHTML_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(t).FetchHTML(context.Background(), srv.URL)
	require.Error(t, err)
	_, isChallenge := cf.IsChallenge(err)
	assert.False(t, isChallenge)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchImage(t *testing.T) {
	var referer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.jpg":
			referer = r.Header.Get("Referer")
			w.Write([]byte{0xff, 0xd8, 0xff})
		case "/empty.jpg":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t)
	data, err := client.FetchImage(context.Background(), srv.URL+"/a.jpg", "https://site.test/page/")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
	assert.Equal(t, "https://site.test/page/", referer)

	_, err = client.FetchImage(context.Background(), srv.URL+"/missing.jpg", "")
	assert.Error(t, err)

	_, err = client.FetchImage(context.Background(), srv.URL+"/empty.jpg", "")
	assert.Error(t, err)
}

func TestCollyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/":
			if c, err := r.Cookie("session"); err == nil {
				w.Write([]byte("<html><body>hello " + c.Value + "</body></html>"))
				return
			}
			w.Write([]byte("<html><body>no cookie</body></html>"))
		case "/blocked/":
			w.Header().Set("Server", "cloudflare")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`<div class="cf-turnstile"></div>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t)
	client.SetCookies([]cf.Cookie{{Domain: "127.0.0.1", Path: "/", Name: "session", Value: "s1"}})
	fetcher := NewCollyFetcher(client)
	ctx := context.Background()

	html, err := fetcher.FetchPage(ctx, srv.URL+"/page/")
	require.NoError(t, err)
	assert.Contains(t, html, "hello s1")

	_, err = fetcher.FetchPage(ctx, srv.URL+"/blocked/")
	_, ok := cf.IsChallenge(err)
	assert.True(t, ok)

	_, err = fetcher.FetchPage(ctx, srv.URL+"/gone/")
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = fetcher.FetchPage(canceled, srv.URL+"/page/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPageFetcher(t *testing.T) {
	client := newTestClient(t)

	f, err := NewPageFetcher(config.FetcherColly, client)
	require.NoError(t, err)
	assert.IsType(t, &CollyFetcher{}, f)

	f, err = NewPageFetcher(config.FetcherHTTP, client)
	require.NoError(t, err)
	assert.Same(t, client, f)

	_, err = NewPageFetcher("curl", client)
	assert.Error(t, err)
}

func TestSetCookies_ExpiredAndSecureCookiesStillSent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, c := range r.Cookies() {
			got = append(got, c.Name+"="+c.Value)
		}
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	client := newTestClient(t)
	n := client.SetCookies([]cf.Cookie{{
		Domain:  "127.0.0.1",
		Path:    "/",
		Secure:  true,
		Expires: time.Unix(1000000000, 0),
		Name:    "cf_clearance",
		Value:   "old",
	}})
	require.Equal(t, 1, n)

	_, err := client.FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{"cf_clearance=old"}, got)
}
