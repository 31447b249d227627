package services

import (
	"net/url"
	"regexp"
	"strings"
)

// searchEngine recognizes one engine's result pages by hostname and names
// the query parameter carrying the search text.
type searchEngine struct {
	name       string
	host       *regexp.Regexp
	queryParam string
}

var searchEngines = []searchEngine{
	{name: "google", host: regexp.MustCompile(`(?i)(^|\.)google\.`), queryParam: "q"},
	{name: "bing", host: regexp.MustCompile(`(?i)(^|\.)bing\.com$`), queryParam: "q"},
	{name: "duckduckgo", host: regexp.MustCompile(`(?i)(^|\.)duckduckgo\.com$`), queryParam: "q"},
	{name: "yahoo", host: regexp.MustCompile(`(?i)(^|\.)search\.yahoo\.com$`), queryParam: "p"},
	{name: "brave", host: regexp.MustCompile(`(?i)(^|\.)search\.brave\.com$`), queryParam: "q"},
	{name: "ecosia", host: regexp.MustCompile(`(?i)(^|\.)ecosia\.org$`), queryParam: "q"},
}

// SearchQuery is one extracted search-engine query.
type SearchQuery struct {
	Engine string
	Query  string
}

// ExtractSearchQuery recognizes search-engine result URLs and pulls out the
// query text, trimmed. Returns nil for non-http URLs, unknown engines, and
// empty queries.
func ExtractSearchQuery(rawURL string) *SearchQuery {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}

	host := parsed.Hostname()
	for _, engine := range searchEngines {
		if !engine.host.MatchString(host) {
			continue
		}
		query := strings.TrimSpace(parsed.Query().Get(engine.queryParam))
		if query == "" {
			return nil
		}
		return &SearchQuery{Engine: engine.name, Query: query}
	}
	return nil
}
