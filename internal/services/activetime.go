package services

import (
	"sync"
	"time"

	"github.com/bep/debounce"

	"retrace/internal/infrastructure/logging"
	"retrace/internal/repository"
	"retrace/internal/types"
)

// saveDebounce is the quiet window before accumulated state is flushed.
// Each new mutation restarts it, so bursts of tab events produce one write.
const saveDebounce = 500 * time.Millisecond

// ActiveTimeTracker measures wall-clock time a domain is genuinely in view:
// the tab is focused, the window has OS focus, and the user is not idle.
//
// It is the only component with continuous event-ordered mutation. All state
// is guarded by one mutex; event handlers never block on I/O — persistence
// happens on a debounced timer and is fire-and-forget.
type ActiveTimeTracker struct {
	mu sync.Mutex

	byDomain      map[string]int64
	total         int64
	today         int64
	dateKey       string
	currentDomain string    // "" when no http(s) tab is active
	sessionStart  time.Time // zero while no session is open
	windowFocused bool
	idleState     types.IdleState

	repo               repository.StateRepository
	logger             logging.Logger
	scheduleSave       func(func())
	persistenceEnabled bool

	now func() time.Time // injectable clock for tests
}

// LiveActiveTime is a point-in-time read of the tracker, open session included.
type LiveActiveTime struct {
	Total    int64            `json:"total"`
	Today    int64            `json:"today"`
	ByDomain map[string]int64 `json:"byDomain"`
}

// NewActiveTimeTracker creates a tracker that persists through repo.
// The window starts focused and the user active; the host corrects both with
// its first events.
func NewActiveTimeTracker(repo repository.StateRepository, logger logging.Logger) *ActiveTimeTracker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	t := &ActiveTimeTracker{
		byDomain:           make(map[string]int64),
		windowFocused:      true,
		idleState:          types.IdleActive,
		repo:               repo,
		logger:             logger,
		scheduleSave:       debounce.New(saveDebounce),
		persistenceEnabled: repo != nil,
		now:                time.Now,
	}
	t.dateKey = DateKey(t.now())
	return t
}

// canTrackLocked is the single tracking condition: a session may be open iff
// an http(s) domain is active, the window is focused, and the user is active.
func (t *ActiveTimeTracker) canTrackLocked() bool {
	return t.currentDomain != "" && t.windowFocused && t.idleState == types.IdleActive
}

// ensureDateLocked rolls the date key forward, zeroing today's counter.
// Called lazily at the moment of accrual, never from a background timer.
func (t *ActiveTimeTracker) ensureDateLocked(now time.Time) {
	if key := DateKey(now); key != t.dateKey {
		t.dateKey = key
		t.today = 0
	}
}

// stopSessionLocked closes the open session and accrues its elapsed time to
// the current domain. No-op when no session is open.
func (t *ActiveTimeTracker) stopSessionLocked(now time.Time) {
	if t.sessionStart.IsZero() {
		return
	}
	elapsed := now.Sub(t.sessionStart).Milliseconds()
	t.sessionStart = time.Time{}

	if elapsed <= 0 || t.currentDomain == "" {
		return
	}
	t.ensureDateLocked(now)

	t.total += elapsed
	t.today += elapsed
	t.byDomain[t.currentDomain] += elapsed
	t.requestSaveLocked()
}

// startSessionLocked opens a session if none is open and tracking is allowed.
func (t *ActiveTimeTracker) startSessionLocked(now time.Time) {
	if !t.sessionStart.IsZero() || !t.canTrackLocked() {
		return
	}
	t.sessionStart = now
}

// ActiveDomainChanged handles a tab activation or in-tab navigation.
// A domain switch closes the old session and opens the new one atomically so
// no time is double-counted or lost in between.
func (t *ActiveTimeTracker) ActiveDomainChanged(rawURL string) {
	domain := ExtractHTTPDomain(rawURL)

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()

	if domain == t.currentDomain {
		t.startSessionLocked(now)
		return
	}
	t.stopSessionLocked(now)
	t.currentDomain = domain
	t.startSessionLocked(now)
}

// ActiveTabClosed handles the active tab going away.
func (t *ActiveTimeTracker) ActiveTabClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopSessionLocked(t.now())
	t.currentDomain = ""
}

// WindowFocusChanged handles the browser window gaining or losing OS focus.
func (t *ActiveTimeTracker) WindowFocusChanged(focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windowFocused = focused
	now := t.now()
	if focused {
		t.startSessionLocked(now)
	} else {
		t.stopSessionLocked(now)
	}
}

// IdleStateChanged handles the host idle detector.
func (t *ActiveTimeTracker) IdleStateChanged(state types.IdleState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.idleState = state
	now := t.now()
	if state == types.IdleActive {
		t.startSessionLocked(now)
	} else {
		t.stopSessionLocked(now)
	}
}

// Live reports current totals. The stored counters alone are stale while a
// session is open, so the open session's elapsed time is folded in; today's
// counter is zero when the stored date key is no longer today.
func (t *ActiveTimeTracker) Live() LiveActiveTime {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	total := t.total
	today := t.today
	if DateKey(now) != t.dateKey {
		today = 0
	}

	if !t.sessionStart.IsZero() && t.canTrackLocked() {
		if elapsed := now.Sub(t.sessionStart).Milliseconds(); elapsed > 0 {
			total += elapsed
			today += elapsed
		}
	}

	byDomain := make(map[string]int64, len(t.byDomain))
	for domain, ms := range t.byDomain {
		byDomain[domain] = ms
	}
	return LiveActiveTime{Total: total, Today: today, ByDomain: byDomain}
}
