package services

import "testing"

func TestExtractSearchQuery(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantEngine string
		wantQuery  string
	}{
		{"google", "https://www.google.com/search?q=golang+testing", "google", "golang testing"},
		{"google country TLD", "https://google.de/search?q=wetter", "google", "wetter"},
		{"bing", "https://www.bing.com/search?q=weather", "bing", "weather"},
		{"duckduckgo", "https://duckduckgo.com/?q=privacy", "duckduckgo", "privacy"},
		{"yahoo uses p", "https://search.yahoo.com/search?p=news", "yahoo", "news"},
		{"brave", "https://search.brave.com/search?q=browsers", "brave", "browsers"},
		{"ecosia", "https://www.ecosia.org/search?q=trees", "ecosia", "trees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSearchQuery(tt.url)
			if got == nil {
				t.Fatalf("ExtractSearchQuery(%q) = nil", tt.url)
			}
			if got.Engine != tt.wantEngine {
				t.Errorf("Engine = %q, want %q", got.Engine, tt.wantEngine)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
		})
	}
}

func TestExtractSearchQuery_NonMatches(t *testing.T) {
	urls := []string{
		"https://example.com/search?q=test",            // unknown engine
		"https://www.google.com/maps",                  // engine host, no query
		"https://www.google.com/search?q=",             // empty query
		"https://www.google.com/search?q=%20%20",       // whitespace-only query
		"chrome://settings",                            // non-http scheme
		"https://finance.yahoo.com/quote/GOOG?p=ignore", // yahoo but not the search host
	}

	for _, u := range urls {
		if got := ExtractSearchQuery(u); got != nil {
			t.Errorf("ExtractSearchQuery(%q) = %+v, want nil", u, got)
		}
	}
}
