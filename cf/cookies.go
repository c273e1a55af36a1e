package cf

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cookie is one entry of a Netscape cookies.txt export, the format browser
// extensions produce.
type Cookie struct {
	Domain     string
	IncludeSub bool
	Path       string
	Secure     bool
	Expires    time.Time
	Name       string
	Value      string
}

// HTTPCookie converts c for use with a cookie jar. Only name, value, domain
// and path are carried over: an export often holds cookies that expired since
// or are flagged secure, and those are still sent.
func (c Cookie) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
	}
}

// LoadCookieFile reads a Netscape cookie file from disk.
func LoadCookieFile(path string) ([]Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	cookies, err := ParseCookies(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie file %s: %w", path, err)
	}
	log.Debugf("loaded %d cookies from %s", len(cookies), path)
	return cookies, nil
}

// ParseCookies reads tab separated cookie lines:
//
//	domain  include_subdomains  path  secure  expires  name  value
//
// Blank lines, comments and lines with fewer than 7 fields are skipped.
// The "#HttpOnly_" prefix some exporters write is stripped from the domain.
func ParseCookies(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.HasPrefix(line, "#HttpOnly_") {
			line = strings.TrimPrefix(line, "#HttpOnly_")
		} else if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}

		c := Cookie{
			Domain:     fields[0],
			IncludeSub: strings.EqualFold(fields[1], "TRUE"),
			Path:       fields[2],
			Secure:     strings.EqualFold(fields[3], "TRUE"),
			Name:       fields[5],
			Value:      fields[6],
		}
		if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil && exp > 0 {
			c.Expires = time.Unix(exp, 0)
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}
