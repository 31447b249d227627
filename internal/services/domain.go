package services

import (
	"net/url"
	"strings"
	"time"
)

// ExtractDomain returns the hostname of rawURL with a leading "www."
// stripped, or "unknown" when the URL does not parse.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// ExtractHTTPDomain is like ExtractDomain but returns "" for anything that
// is not an http(s) URL. The tracker only ever opens sessions for domains
// this function accepts.
func ExtractHTTPDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	host := parsed.Hostname()
	if host == "" {
		return ""
	}
	return strings.TrimPrefix(host, "www.")
}

// DateKey returns the local calendar date of t as 2006-01-02.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
