package repository

import (
	"context"

	"retrace/internal/types"
)

// StateRepository persists the engine's durable state: the active-time
// accumulation counters and the custom category rule list. Every key is
// independently readable and writable; a missing key loads as its default
// (empty map, zero, today's date key, empty rule list).
type StateRepository interface {
	LoadActiveTimeState(ctx context.Context, defaultDateKey string) (*types.ActiveTimeState, error)
	// SaveActiveTimeState writes the full current state, never a delta,
	// so repeated flushes are idempotent.
	SaveActiveTimeState(ctx context.Context, state *types.ActiveTimeState) error

	LoadCategoryRules(ctx context.Context) ([]types.CategoryRule, error)
	SaveCategoryRules(ctx context.Context, rules []types.CategoryRule) error
}
