package types

// CategoryRule is a user-defined classification override. Rules are evaluated
// in insertion order, before built-in rules, and match case-insensitively as
// a substring of the domain or the full URL.
type CategoryRule struct {
	ID       string `json:"id"`
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

// RulesResponse wraps the stored rule list for the API surface.
type RulesResponse struct {
	Rules []CategoryRule `json:"rules"`
}

// SaveRulesResult reports the outcome of replacing the rule set.
// Persisted is false when the rules took effect in memory only.
type SaveRulesResult struct {
	Success   bool   `json:"success"`
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning,omitempty"`
	Error     string `json:"error,omitempty"`
}
