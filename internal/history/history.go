// Package history defines the contract to the host's browsing-history
// service. The engine depends only on the Service interface; adapters
// translate to a concrete host (a Chromium-format History database here,
// a mock in tests).
package history

import (
	"context"
)

// Query describes one history search. Times are unix milliseconds.
type Query struct {
	Text       string
	StartTime  int64
	EndTime    int64 // zero means "now"
	MaxResults int
}

// Item is one distinct URL known to the host, with its last-visit summary.
type Item struct {
	URL        string
	Title      string
	LastVisit  int64 // unix ms
	VisitCount int
}

// Visit is one timestamped browse event for a URL.
type Visit struct {
	VisitTime int64 // unix ms
}

// Service is the host history collaborator.
//
// Search and GetVisits are read paths used by aggregation; DeleteRange and
// DeleteURL are the destructive edits that must invalidate computed results.
type Service interface {
	Search(ctx context.Context, query Query) ([]Item, error)
	GetVisits(ctx context.Context, url string) ([]Visit, error)
	DeleteRange(ctx context.Context, startTime, endTime int64) error
	DeleteURL(ctx context.Context, url string) error
}
