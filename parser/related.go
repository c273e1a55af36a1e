package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pagepdf/models"
)

// RelatedChapters lists the other parts of the same story offered by the
// page's chapter selector. Options whose story id (the path segment after
// marker) differs from pageURL's are dropped.
func RelatedChapters(html, pageURL, marker string) ([]models.RelatedChapter, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	story := StoryID(pageURL, marker)

	var chapters []models.RelatedChapter
	doc.Find("select.single-chapter-select").First().Find("option").Each(func(_ int, opt *goquery.Selection) {
		redirect := strings.TrimSpace(opt.AttrOr("data-redirect", ""))
		name := strings.TrimSpace(opt.Text())
		if redirect == "" || name == "" {
			return
		}
		if StoryID(redirect, marker) != story {
			return
		}
		chapters = append(chapters, models.RelatedChapter{URL: redirect, Name: name})
	})

	if len(chapters) == 0 {
		log.Debugf("No related chapters found")
	} else {
		log.Infof("Found %d related chapters/parts", len(chapters))
	}
	return chapters, nil
}

// StoryID returns the path segment following marker in u, e.g. "my-story"
// for ".../porncomic/my-story/chapter-2/". It is "" when marker is absent.
func StoryID(u, marker string) string {
	if marker == "" {
		return ""
	}
	_, rest, ok := strings.Cut(u, marker)
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}
