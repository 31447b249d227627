package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"retrace/internal/history"
	"retrace/internal/infrastructure/errors"
)

// MockHistory implements the history.Service interface for testing. Items
// and their visit lists are seeded directly; failure modes simulate an
// unreachable or partially broken host history store.
type MockHistory struct {
	mu               sync.RWMutex
	items            []history.Item
	visits           map[string][]history.Visit // key: URL
	searchCallCount  int
	visitsCallCount  int
	deleteCallCount  int
	shouldFailSearch bool
	shouldFailVisits bool
	failVisitsFor    map[string]bool // per-URL GetVisits failures
	failDeleteFor    map[string]bool // per-URL DeleteURL failures
	shouldFailDelete bool
}

// NewMockHistory creates an empty mock history store.
func NewMockHistory() *MockHistory {
	return &MockHistory{
		visits:        make(map[string][]history.Visit),
		failVisitsFor: make(map[string]bool),
		failDeleteFor: make(map[string]bool),
	}
}

// AddItem seeds one history item with its visit times (unix ms). LastVisit
// and VisitCount are derived from the visit list.
func (m *MockHistory) AddItem(url, title string, visitTimes ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	visits := make([]history.Visit, 0, len(visitTimes))
	var last int64
	for _, t := range visitTimes {
		visits = append(visits, history.Visit{VisitTime: t})
		if t > last {
			last = t
		}
	}
	m.items = append(m.items, history.Item{
		URL:        url,
		Title:      title,
		LastVisit:  last,
		VisitCount: len(visits),
	})
	m.visits[url] = visits
}

// SetFailureModes configures the mock to simulate failures.
func (m *MockHistory) SetFailureModes(search, visits, delete bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSearch = search
	m.shouldFailVisits = visits
	m.shouldFailDelete = delete
}

// FailVisitsFor makes GetVisits fail for one URL only.
func (m *MockHistory) FailVisitsFor(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failVisitsFor[url] = true
}

// FailDeleteFor makes DeleteURL fail for one URL only.
func (m *MockHistory) FailDeleteFor(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDeleteFor[url] = true
}

// GetCallCounts returns the number of times each method was called.
func (m *MockHistory) GetCallCounts() (search, visits, delete int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchCallCount, m.visitsCallCount, m.deleteCallCount
}

// Search implements history.Service.
func (m *MockHistory) Search(ctx context.Context, query history.Query) ([]history.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchCallCount++

	if m.shouldFailSearch {
		return nil, errors.New("Search", fmt.Errorf("mock search failure"), errors.ErrCodeUpstream)
	}

	var result []history.Item
	for _, item := range m.items {
		if query.EndTime > 0 && !m.hasVisitInWindowLocked(item.URL, query.StartTime, query.EndTime) {
			continue
		}
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastVisit > result[j].LastVisit
	})
	if query.MaxResults > 0 && len(result) > query.MaxResults {
		result = result[:query.MaxResults]
	}
	return result, nil
}

func (m *MockHistory) hasVisitInWindowLocked(url string, startMs, endMs int64) bool {
	for _, v := range m.visits[url] {
		if v.VisitTime >= startMs && v.VisitTime <= endMs {
			return true
		}
	}
	return false
}

// GetVisits implements history.Service.
func (m *MockHistory) GetVisits(ctx context.Context, url string) ([]history.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visitsCallCount++

	if m.shouldFailVisits || m.failVisitsFor[url] {
		return nil, errors.New("GetVisits", fmt.Errorf("mock visits failure"), errors.ErrCodeUpstream)
	}

	visits := m.visits[url]
	result := make([]history.Visit, len(visits))
	copy(result, visits)
	sort.Slice(result, func(i, j int) bool { return result[i].VisitTime < result[j].VisitTime })
	return result, nil
}

// DeleteRange implements history.Service.
func (m *MockHistory) DeleteRange(ctx context.Context, startMs, endMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCallCount++

	if m.shouldFailDelete {
		return errors.New("DeleteRange", fmt.Errorf("mock delete failure"), errors.ErrCodeUpstream)
	}

	for url, visits := range m.visits {
		kept := visits[:0]
		for _, v := range visits {
			if v.VisitTime < startMs || v.VisitTime > endMs {
				kept = append(kept, v)
			}
		}
		m.visits[url] = kept
		if len(kept) == 0 {
			m.removeItemLocked(url)
		}
	}
	return nil
}

// DeleteURL implements history.Service.
func (m *MockHistory) DeleteURL(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCallCount++

	if m.shouldFailDelete || m.failDeleteFor[url] {
		return errors.New("DeleteURL", fmt.Errorf("mock delete failure"), errors.ErrCodeUpstream)
	}

	delete(m.visits, url)
	m.removeItemLocked(url)
	return nil
}

func (m *MockHistory) removeItemLocked(url string) {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.URL != url {
			kept = append(kept, item)
		}
	}
	m.items = kept
}
