package parser

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTitle names the output when a page has no usable <title>.
const DefaultTitle = "Downloaded_Images"

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

	derivativeRe = regexp.MustCompile(`/styles/[^/]+/public/`)
	itokRe       = regexp.MustCompile(`[?&]itok=([^&]+)`)
	unsafeRe     = regexp.MustCompile(`[<>:"/\\|?*]`)

	leadingNumRe = regexp.MustCompile(`^(\d+)[\W_]`)
	suffixNumRe  = regexp.MustCompile(`[\W_](\d+)\.`)
	anyNumRe     = regexp.MustCompile(`(\d+)`)
)

// IsImageURL reports whether u ends in a known raster extension.
// The query string and fragment are not part of the match.
func IsImageURL(u string) bool {
	path := strings.ToLower(stripQuery(u))
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// CleanURL maps a CMS derivative URL to its full size original.
//
//	https://x.test/styles/thumbnail/public/photo.png?w=50 -> https://x.test/photo.png
//	https://x.test/img.jpg?itok=ABC123&w=200             -> https://x.test/img.jpg?itok=ABC123
func CleanURL(u string) string {
	for {
		next := derivativeRe.ReplaceAllString(u, "/")
		if next == u {
			break
		}
		u = next
	}

	base, _, hasQuery := strings.Cut(u, "?")
	if !hasQuery {
		return u
	}
	if m := itokRe.FindStringSubmatch(u); m != nil {
		return base + "?itok=" + m[1]
	}
	return base
}

// SanitizeTitle makes t safe to use as a file name.
func SanitizeTitle(t string) string {
	t = strings.TrimSpace(unsafeRe.ReplaceAllString(t, "_"))
	if t == "" {
		return DefaultTitle
	}
	return t
}

// NumberFromFilename extracts the sort key of u's last path segment.
// Tried in order: leading digits ("01_cover.jpg"), digits right before the
// extension ("img_03.jpg"), then the first digit run anywhere. Names without
// digits get +Inf.
func NumberFromFilename(u string) float64 {
	name := Filename(u)
	for _, re := range []*regexp.Regexp{leadingNumRe, suffixNumRe, anyNumRe} {
		if m := re.FindStringSubmatch(name); m != nil {
			if n, err := strconv.ParseFloat(m[1], 64); err == nil {
				return n
			}
		}
	}
	return math.Inf(1)
}

// Filename returns the last path segment of u without its query string.
func Filename(u string) string {
	u, _, _ = strings.Cut(u, "?")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

// ResolveURL makes ref absolute against base. Absolute refs are returned
// as is; unparsable input falls back to ref.
func ResolveURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
