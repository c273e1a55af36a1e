package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagepdf/logger"
)

var log = logger.New("Parser")

// markers of one-image-per-page galleries
var paginationIndicators = []string{
	"next image",
	"previous image",
	"paggaleria",
	"next-page",
	"prev-page",
}

// Page is what extraction learned from one fetched document.
type Page struct {
	Title     string
	Images    []string
	Paginated bool
}

// Extractor turns a page's HTML into an ordered list of image URLs.
// Paginated galleries are handed to Crawler; a nil Crawler only looks at
// the first page.
type Extractor struct {
	Crawler *Crawler
}

// Extract returns the page title and its images in reading order. Image
// references are returned as found (possibly relative); callers resolve them
// against pageURL. When nothing is found the Page is still returned, with
// ErrNoImages.
func (e *Extractor) Extract(ctx context.Context, pageURL, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for %s: %w", pageURL, err)
	}

	page := &Page{Title: PageTitle(doc)}
	log.Infof("Page title: %s", page.Title)

	if isPaginated(html, doc) {
		log.Infof("Detected paginated gallery (one image per page)")
		page.Paginated = true

		crawler := e.Crawler
		if crawler == nil {
			crawler = &Crawler{MaxPages: 1}
		}
		res := crawler.Crawl(ctx, pageURL, html)
		page.Images = Dedup(res.Images)
	} else {
		candidates := staticImages(doc)
		for i, u := range candidates {
			candidates[i] = CleanURL(u)
		}
		page.Images = SmartSort(Dedup(candidates))
	}

	log.Infof("Found %d images", len(page.Images))
	if len(page.Images) == 0 {
		return page, ErrNoImages
	}
	return page, nil
}

// IsPaginatedGallery reports whether html looks like a gallery that shows
// one image per page behind next/previous links.
func IsPaginatedGallery(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return isPaginated(html, doc)
}

func isPaginated(html string, doc *goquery.Document) bool {
	lower := strings.ToLower(html)
	for _, indicator := range paginationIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	found := false
	doc.Find("div[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		found = containsFold(id, "control")
		return !found
	})
	return found
}

// PageTitle returns the sanitized text of the first <title>.
func PageTitle(doc *goquery.Document) string {
	return SanitizeTitle(doc.Find("title").First().Text())
}

// staticImages runs the gallery strategies in order: <noscript> fallbacks,
// lazy-load data-src, then plain src. The first one with results wins.
func staticImages(doc *goquery.Document) []string {
	var urls []string

	doc.Find("noscript").Each(func(_ int, s *goquery.Selection) {
		urls = append(urls, noscriptImages(s)...)
	})
	if len(urls) > 0 {
		log.Debugf("noscript strategy: %d candidates", len(urls))
		return urls
	}

	if urls = imageAttrs(doc.Selection, "data-src"); len(urls) > 0 {
		log.Debugf("data-src strategy: %d candidates", len(urls))
		return urls
	}

	urls = imageAttrs(doc.Selection, "src")
	log.Debugf("src strategy: %d candidates", len(urls))
	return urls
}

// noscriptImages returns the <img src> values inside one <noscript>. With
// scripting enabled the parser keeps noscript content as a raw text node, so
// that text is parsed as its own document; Html() would escape it.
func noscriptImages(s *goquery.Selection) []string {
	if s.Children().Length() > 0 {
		return imageAttrs(s, "src")
	}
	inner := s.Text()
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	frag, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	if err != nil {
		return nil
	}
	return imageAttrs(frag.Selection, "src")
}

// imageAttrs collects attr of every <img> under s that points at an image.
func imageAttrs(s *goquery.Selection, attr string) []string {
	var urls []string
	s.Find("img[" + attr + "]").Each(func(_ int, img *goquery.Selection) {
		v := strings.TrimSpace(img.AttrOr(attr, ""))
		if v != "" && IsImageURL(v) {
			urls = append(urls, v)
		}
	})
	return urls
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func containsAnyFold(s string, substrs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
