package types

// IdleState mirrors the host's idle detector states.
type IdleState string

const (
	IdleActive IdleState = "active"
	IdleIdle   IdleState = "idle"
	IdleLocked IdleState = "locked"
)

// ActiveTimeState is the tracker's persisted accumulation state. ByDomain,
// Total and Today are written as a whole on every flush; the flush is
// idempotent. Today is only meaningful while DateKey matches the current
// calendar date.
type ActiveTimeState struct {
	ByDomain map[string]int64 `json:"byDomain"` // domain -> accumulated ms
	Total    int64            `json:"total"`    // ms
	Today    int64            `json:"today"`    // ms
	DateKey  string           `json:"dateKey"`  // local date, 2006-01-02
}

// EmptyActiveTimeState returns the default state for a given date key.
func EmptyActiveTimeState(dateKey string) *ActiveTimeState {
	return &ActiveTimeState{
		ByDomain: make(map[string]int64),
		DateKey:  dateKey,
	}
}

// ActionResult is the generic success/error reply for destructive operations.
type ActionResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deletedCount,omitempty"`
	Error        string `json:"error,omitempty"`
}
