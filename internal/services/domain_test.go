package services

import (
	"strings"
	"testing"
	"time"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/page", "example.com"},
		{"https://example.com", "example.com"},
		{"https://sub.example.com/a?b=c", "sub.example.com"},
		{"not a url at all", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.url); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractHTTPDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/page", "example.com"},
		{"http://example.com", "example.com"},
		{"chrome://newtab", ""},
		{"file:///tmp/x.html", ""},
		{"about:blank", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractHTTPDomain(tt.url); got != tt.want {
			t.Errorf("ExtractHTTPDomain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2026, 3, 7, 23, 59, 0, 0, time.Local)
	if got := DateKey(ts); got != "2026-03-07" {
		t.Errorf("DateKey = %q, want 2026-03-07", got)
	}
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2026, 3, 7, 15, 30, 45, 123, time.Local)
	start := StartOfDay(ts)

	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("StartOfDay = %v, want midnight", start)
	}
	if DateKey(start) != DateKey(ts) {
		t.Errorf("StartOfDay changed the date: %v", start)
	}
}

func TestTruncateString(t *testing.T) {
	long := strings.Repeat("a", 200)
	if got := truncateString(long, 150); len(got) != 150 {
		t.Errorf("truncateString length = %d, want 150", len(got))
	}
	if got := truncateString("short", 150); got != "short" {
		t.Errorf("truncateString(short) = %q", got)
	}
}
