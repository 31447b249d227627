package services

import (
	"context"
	"time"

	"retrace/internal/infrastructure/errors"
	"retrace/internal/types"
)

// Start loads persisted state. A missing or unreachable store degrades the
// tracker to in-memory-only operation with a warning; it never fails startup.
func (t *ActiveTimeTracker) Start(ctx context.Context) {
	if t.repo == nil {
		t.logger.Warn("State store unavailable, active time will not survive restarts")
		return
	}

	state, err := t.repo.LoadActiveTimeState(ctx, DateKey(t.now()))
	if err != nil {
		t.logger.Warn("Failed to load active time state, continuing in memory only", "error", err)
		t.mu.Lock()
		t.persistenceEnabled = !errors.IsUnavailable(err)
		t.mu.Unlock()
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if state.ByDomain != nil {
		t.byDomain = state.ByDomain
	}
	t.total = state.Total
	t.today = state.Today
	if state.DateKey != "" {
		t.dateKey = state.DateKey
	}
	// A restart on a later day must not carry yesterday's counter forward.
	t.ensureDateLocked(t.now())
	t.logger.Info("Loaded active time state",
		"domains", len(t.byDomain), "totalMs", t.total, "dateKey", t.dateKey)
}

// SetPersistenceEnabled toggles the debounced flush (used when the state
// database failed to initialize).
func (t *ActiveTimeTracker) SetPersistenceEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persistenceEnabled = enabled && t.repo != nil
}

// requestSaveLocked schedules a debounced flush. The caller holds t.mu; the
// flush itself runs later on the debounce goroutine and takes its own lock.
func (t *ActiveTimeTracker) requestSaveLocked() {
	if !t.persistenceEnabled {
		return
	}
	t.scheduleSave(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		t.persist(ctx)
	})
}

// persist writes the full current state. Always the whole state, never a
// delta, so overlapping flushes stay idempotent.
func (t *ActiveTimeTracker) persist(ctx context.Context) {
	t.mu.Lock()
	if !t.persistenceEnabled {
		t.mu.Unlock()
		return
	}
	state := &types.ActiveTimeState{
		ByDomain: make(map[string]int64, len(t.byDomain)),
		Total:    t.total,
		Today:    t.today,
		DateKey:  t.dateKey,
	}
	for domain, ms := range t.byDomain {
		state.ByDomain[domain] = ms
	}
	t.mu.Unlock()

	if err := t.repo.SaveActiveTimeState(ctx, state); err != nil {
		t.logger.Error("Failed to persist active time state", "error", err)
	}
}

// Flush closes any open session and writes state immediately. Called on
// shutdown, where waiting out the debounce window would lose the tail.
func (t *ActiveTimeTracker) Flush(ctx context.Context) {
	t.mu.Lock()
	t.stopSessionLocked(t.now())
	t.mu.Unlock()
	if t.repo != nil {
		t.persist(ctx)
	}
}
