package services

import (
	"context"
	"fmt"
	"sync"

	"retrace/internal/infrastructure/errors"
	"retrace/internal/types"
)

// MockStateRepository implements the StateRepository interface for testing.
type MockStateRepository struct {
	mu             sync.RWMutex
	state          *types.ActiveTimeState
	rules          []types.CategoryRule
	saveCallCount  int
	loadCallCount  int
	shouldFailSave bool
	shouldFailLoad bool
	unavailable    bool
}

// NewMockStateRepository creates an empty mock state store.
func NewMockStateRepository() *MockStateRepository {
	return &MockStateRepository{}
}

// SetFailureModes configures the mock to simulate failures. unavailable
// classifies load failures as a missing collaborator instead of a broken one.
func (m *MockStateRepository) SetFailureModes(save, load, unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSave = save
	m.shouldFailLoad = load
	m.unavailable = unavailable
}

// GetCallCounts returns the number of times each method was called.
func (m *MockStateRepository) GetCallCounts() (save, load int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveCallCount, m.loadCallCount
}

// SavedState returns the last saved active-time state, nil when none.
func (m *MockStateRepository) SavedState() *types.ActiveTimeState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil
	}
	out := &types.ActiveTimeState{
		ByDomain: make(map[string]int64, len(m.state.ByDomain)),
		Total:    m.state.Total,
		Today:    m.state.Today,
		DateKey:  m.state.DateKey,
	}
	for domain, ms := range m.state.ByDomain {
		out.ByDomain[domain] = ms
	}
	return out
}

// LoadActiveTimeState implements StateRepository.
func (m *MockStateRepository) LoadActiveTimeState(ctx context.Context, defaultDateKey string) (*types.ActiveTimeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCallCount++

	if m.shouldFailLoad {
		if m.unavailable {
			return nil, errors.HandleUnavailable("LoadActiveTimeState", "state store")
		}
		return nil, errors.New("LoadActiveTimeState", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	if m.state == nil {
		return types.EmptyActiveTimeState(defaultDateKey), nil
	}
	out := &types.ActiveTimeState{
		ByDomain: make(map[string]int64, len(m.state.ByDomain)),
		Total:    m.state.Total,
		Today:    m.state.Today,
		DateKey:  m.state.DateKey,
	}
	for domain, ms := range m.state.ByDomain {
		out.ByDomain[domain] = ms
	}
	return out, nil
}

// SaveActiveTimeState implements StateRepository.
func (m *MockStateRepository) SaveActiveTimeState(ctx context.Context, state *types.ActiveTimeState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++

	if m.shouldFailSave {
		return errors.New("SaveActiveTimeState", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}

	stored := &types.ActiveTimeState{
		ByDomain: make(map[string]int64, len(state.ByDomain)),
		Total:    state.Total,
		Today:    state.Today,
		DateKey:  state.DateKey,
	}
	for domain, ms := range state.ByDomain {
		stored.ByDomain[domain] = ms
	}
	m.state = stored
	return nil
}

// LoadCategoryRules implements StateRepository.
func (m *MockStateRepository) LoadCategoryRules(ctx context.Context) ([]types.CategoryRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loadCallCount++

	if m.shouldFailLoad {
		return nil, errors.New("LoadCategoryRules", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	out := make([]types.CategoryRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

// SaveCategoryRules implements StateRepository.
func (m *MockStateRepository) SaveCategoryRules(ctx context.Context, rules []types.CategoryRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++

	if m.shouldFailSave {
		return errors.New("SaveCategoryRules", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}

	m.rules = make([]types.CategoryRule, len(rules))
	copy(m.rules, rules)
	return nil
}
