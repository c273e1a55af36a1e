package parser

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxPages bounds a paginated crawl.
const DefaultMaxPages = 200

var (
	nextKeywords = []string{"next image", "next page", "next >>", ">>"}

	mainContainerWords = []string{"content", "main", "comic", "image"}
	mainClassWords     = []string{"main", "comic", "content", "gallery", "primary"}
	chromeWords        = []string{"logo", "icon", "avatar", "button", "banner", "ad", "thumb"}

	trailingNumRe = regexp.MustCompile(`^(.*?)-(\d+)/?$`)
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// StopReason tells why a crawl ended.
type StopReason string

const (
	StopNoNext   StopReason = "no next link"
	StopRevisit  StopReason = "next page already visited"
	StopCeiling  StopReason = "page limit reached"
	StopError    StopReason = "page fetch failed"
	StopCanceled StopReason = "canceled"
)

// CrawlResult is the outcome of one paginated crawl.
type CrawlResult struct {
	Images []string
	Pages  int
	Stop   StopReason
}

// Crawler walks a one-image-per-page gallery by following "next" links.
type Crawler struct {
	Fetcher  PageFetcher
	MaxPages int
	Delay    time.Duration
}

// NewCrawler returns a crawler with the given fetcher, page ceiling and
// pause between page fetches.
func NewCrawler(f PageFetcher, maxPages int, delay time.Duration) *Crawler {
	return &Crawler{Fetcher: f, MaxPages: maxPages, Delay: delay}
}

// Crawl collects one main image per page starting at startURL, whose HTML
// the caller already fetched. It stops at the first page without a next
// link, when the next link points at a visited page, after MaxPages pages,
// or when a later page cannot be fetched. Errors are logged, never returned;
// whatever was collected so far is kept.
func (c *Crawler) Crawl(ctx context.Context, startURL, firstHTML string) CrawlResult {
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	pacer := NewPacer(c.Delay)

	var res CrawlResult
	visited := make(map[string]struct{})
	currentURL := startURL
	html := firstHTML

	for {
		res.Pages++
		visited[currentURL] = struct{}{}
		log.Debugf("Page %d: %s", res.Pages, currentURL)

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			log.Warnf("Error on page %d (%s): %v", res.Pages, currentURL, err)
			res.Stop = StopError
			break
		}

		if img := MainImage(doc); img != "" {
			// later pages may live under other paths; resolve while the base is known
			img = ResolveURL(currentURL, img)
			res.Images = append(res.Images, img)
			log.Debugf("  found image: %s", Filename(img))
		} else {
			log.Debugf("  no image found on this page")
		}

		if res.Pages >= maxPages {
			res.Stop = StopCeiling
			break
		}

		next := NextPageURL(doc, currentURL)
		if next == "" {
			res.Stop = StopNoNext
			break
		}
		if _, seen := visited[next]; seen {
			res.Stop = StopRevisit
			break
		}

		if err := pacer.Wait(ctx); err != nil {
			res.Stop = StopCanceled
			break
		}

		html, err = c.fetch(ctx, next)
		if err != nil {
			log.Warnf("Error on page %d (%s): %v", res.Pages+1, next, err)
			res.Stop = StopError
			break
		}
		currentURL = next
	}

	log.Infof("Crawled %d pages, %d images (%s)", res.Pages, len(res.Images), res.Stop)
	return res
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	if c.Fetcher == nil {
		return "", fmt.Errorf("no page fetcher configured")
	}
	return c.Fetcher.FetchPage(ctx, pageURL)
}

// MainImage picks the one content image of a gallery page, cleaned. It tries
// the first image of a content-like container, then an image with a
// content-like class, then the largest remaining image by declared size.
// Returns "" when the page has none.
func MainImage(doc *goquery.Document) string {
	container := doc.Find("div[id], article[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return containsAnyFold(s.AttrOr("id", ""), mainContainerWords...)
	}).First()
	if container.Length() > 0 {
		src := strings.TrimSpace(container.Find("img[src]").First().AttrOr("src", ""))
		if IsImageURL(src) {
			return CleanURL(src)
		}
	}

	classed := doc.Find("img[src][class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return containsAnyFold(s.AttrOr("class", ""), mainClassWords...)
	}).First()
	if classed.Length() > 0 {
		src := strings.TrimSpace(classed.AttrOr("src", ""))
		if IsImageURL(src) {
			return CleanURL(src)
		}
	}

	best, bestScore := "", -1
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" || !IsImageURL(src) || containsAnyFold(src, chromeWords...) {
			return
		}
		score := sizeHint(s.AttrOr("width", "")) + sizeHint(s.AttrOr("height", ""))
		// strictly greater keeps the earliest image on ties
		if score > bestScore {
			best, bestScore = src, score
		}
	})
	if best == "" {
		return ""
	}
	return CleanURL(best)
}

// NextPageURL finds the absolute URL of the page after currentURL, or "".
func NextPageURL(doc *goquery.Document, currentURL string) string {
	anchors := doc.Find("a")

	for _, keyword := range nextKeywords {
		var href string
		anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if containsFold(a.Text(), keyword) {
				href = a.AttrOr("href", "")
			}
			return href == ""
		})
		if href != "" {
			return ResolveURL(currentURL, href)
		}
	}

	var href string
	doc.Find("a[class], span[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !containsAnyFold(s.AttrOr("class", ""), "next", "paggaleria") {
			return true
		}
		if goquery.NodeName(s) == "a" {
			href = s.AttrOr("href", "")
		} else {
			href = s.Closest("a").AttrOr("href", "")
		}
		return href == ""
	})
	if href != "" {
		return ResolveURL(currentURL, href)
	}

	return incrementedURL(doc, currentURL)
}

// incrementedURL guesses ".../chapter-07/" -> ".../chapter-08/" and accepts
// the guess only when the page mentions it somewhere. This is a weak check:
// it can match coincidental text and misses next pages that are not linked.
func incrementedURL(doc *goquery.Document, currentURL string) string {
	m := trailingNumRe.FindStringSubmatch(currentURL)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return ""
	}

	var candidate string
	if n < 10 {
		candidate = fmt.Sprintf("%s-%02d/", m[1], n+1)
	} else {
		candidate = fmt.Sprintf("%s-%d/", m[1], n+1)
	}

	if strings.Contains(doc.Text(), candidate) {
		return candidate
	}
	found := false
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		markup, err := goquery.OuterHtml(a)
		found = err == nil && strings.Contains(markup, candidate)
		return !found
	})
	if found {
		return candidate
	}
	return ""
}

func sizeHint(v string) int {
	if v == "" {
		return 0
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
