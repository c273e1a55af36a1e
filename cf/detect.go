package cf

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gocolly/colly"
)

var detectLog = log.With().Str("step", "detect").Logger()

// ChallengeInfo describes why a response was classified as an anti-bot page.
type ChallengeInfo struct {
	StatusCode   int
	Indicators   []string
	RayID        string
	ServerHeader string
	Turnstile    bool
	IsBIC        bool // Browser Integrity Check
}

var (
	justAMomentRe = regexp.MustCompile(`(?i)<title[^>]*>[^<]*just a moment[^<]*</title>`)

	// each of these alone marks a challenge page
	strongChecks = map[string]string{
		"cloudflare-browser-verification": "JS browser verification challenge",
		"challenge-form":                  "challenge form",
		"cf-chl-":                         "challenge token",
		"attention required":              "browser integrity check",
		"checking your browser":           "browser check",
		"verify you are human":            "human verification",
		"cf-turnstile":                    "Turnstile CAPTCHA",
	}
	// present on normal proxied pages too; only counted next to a strong signal
	weakChecks = map[string]string{
		"/cdn-cgi/challenge-platform/": "challenge JS",
	}
)

// Detect inspects resp and reports whether it is an anti-bot challenge rather
// than real content. The body is read and replaced so the caller can still
// consume it.
func Detect(resp *http.Response) (bool, *ChallengeInfo, error) {
	if resp == nil {
		return false, nil, nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, nil, err
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	info := inspect(resp.StatusCode, resp.Header, bodyBytes)
	return info != nil, info, nil
}

// DetectFromColly runs the same checks on a colly response.
func DetectFromColly(r *colly.Response) (bool, *ChallengeInfo) {
	if r == nil {
		return false, nil
	}
	var header http.Header
	if r.Headers != nil {
		header = *r.Headers
	}
	info := inspect(r.StatusCode, header, r.Body)
	return info != nil, info
}

func inspect(status int, header http.Header, body []byte) *ChallengeInfo {
	lower := strings.ToLower(string(body))

	info := &ChallengeInfo{StatusCode: status}
	if header != nil {
		info.ServerHeader = header.Get("Server")
		info.RayID = header.Get("CF-Ray")
	}

	protected := strings.Contains(strings.ToLower(info.ServerHeader), "cloudflare") || info.RayID != ""

	strong := false
	for substr, reason := range strongChecks {
		if strings.Contains(lower, substr) {
			info.Indicators = append(info.Indicators, reason)
			strong = true
		}
	}

	// user comments can say "just a moment"; only the page title counts
	if justAMomentRe.MatchString(lower) {
		info.Indicators = append(info.Indicators, "challenge page title")
		strong = true
	}

	if strong {
		for substr, reason := range weakChecks {
			if strings.Contains(lower, substr) {
				info.Indicators = append(info.Indicators, reason)
			}
		}
	}

	// a bare 403/503 only counts when the response came through the proxy
	if protected && (status == http.StatusForbidden || status == http.StatusServiceUnavailable) {
		info.Indicators = append(info.Indicators, http.StatusText(status))
		strong = true
	}

	if !strong {
		return nil
	}

	info.Turnstile = strings.Contains(lower, "cf-turnstile")
	info.IsBIC = strings.Contains(lower, "verify you are human")

	detectLog.Debug().
		Int("status", status).
		Str("ray", info.RayID).
		Strs("indicators", info.Indicators).
		Msg("anti-bot challenge detected")
	return info
}
