package validation

import (
	"errors"
	"net/url"
	"strings"
)

// ValidatePageURL checks that raw is an absolute http(s) URL with a host.
// It returns the trimmed URL so callers can use it directly.
func ValidatePageURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.New("invalid URL: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return "", errors.New("URL has no host: " + raw)
	}

	return raw, nil
}
