package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrace/internal/database"
	"retrace/internal/types"
)

// openTestRepo migrates an in-memory state database and returns a repository
// bound to it.
func openTestRepo(t *testing.T) *SQLiteStateRepository {
	t.Helper()

	svc := database.NewSQLiteService(nil)
	ctx := context.Background()
	require.NoError(t, svc.Connect(ctx, database.TestConfig()))
	require.NoError(t, svc.Migrate(ctx))
	t.Cleanup(func() { svc.Close() })

	return NewSQLiteStateRepository(svc, nil)
}

func TestStateRepository_ActiveTimeDefaults(t *testing.T) {
	repo := openTestRepo(t)

	state, err := repo.LoadActiveTimeState(context.Background(), "2026-03-07")
	require.NoError(t, err)

	assert.Empty(t, state.ByDomain)
	assert.Zero(t, state.Total)
	assert.Zero(t, state.Today)
	assert.Equal(t, "2026-03-07", state.DateKey)
}

func TestStateRepository_ActiveTimeRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	saved := &types.ActiveTimeState{
		ByDomain: map[string]int64{"example.com": 120000, "github.com": 45000},
		Total:    165000,
		Today:    60000,
		DateKey:  "2026-03-07",
	}
	require.NoError(t, repo.SaveActiveTimeState(ctx, saved))

	loaded, err := repo.LoadActiveTimeState(ctx, "1970-01-01")
	require.NoError(t, err)

	assert.Equal(t, saved.ByDomain, loaded.ByDomain)
	assert.Equal(t, saved.Total, loaded.Total)
	assert.Equal(t, saved.Today, loaded.Today)
	assert.Equal(t, saved.DateKey, loaded.DateKey)
}

func TestStateRepository_ActiveTimeOverwrite(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := &types.ActiveTimeState{
		ByDomain: map[string]int64{"example.com": 1000},
		Total:    1000,
		Today:    1000,
		DateKey:  "2026-03-07",
	}
	require.NoError(t, repo.SaveActiveTimeState(ctx, first))

	// Full-state writes replace, never merge.
	second := &types.ActiveTimeState{
		ByDomain: map[string]int64{"other.com": 500},
		Total:    1500,
		Today:    0,
		DateKey:  "2026-03-08",
	}
	require.NoError(t, repo.SaveActiveTimeState(ctx, second))

	loaded, err := repo.LoadActiveTimeState(ctx, "1970-01-01")
	require.NoError(t, err)
	assert.Equal(t, second.ByDomain, loaded.ByDomain)
	assert.Equal(t, int64(1500), loaded.Total)
	assert.Equal(t, "2026-03-08", loaded.DateKey)
}

func TestStateRepository_UndecodableDomainMapDefaults(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, 0)",
		"active_time_by_domain", "{not json")
	require.NoError(t, err)

	state, err := repo.LoadActiveTimeState(ctx, "2026-03-07")
	require.NoError(t, err)
	assert.Empty(t, state.ByDomain, "corrupt value must load as empty, not fail")
}

func TestStateRepository_CategoryRulesDefaultEmpty(t *testing.T) {
	repo := openTestRepo(t)

	rules, err := repo.LoadCategoryRules(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rules)
	assert.Empty(t, rules)
}

func TestStateRepository_CategoryRulesRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	saved := []types.CategoryRule{
		{ID: "r1", Pattern: "example.com", Category: "work"},
		{ID: "r2", Pattern: "/jira/", Category: "work"},
	}
	require.NoError(t, repo.SaveCategoryRules(ctx, saved))

	loaded, err := repo.LoadCategoryRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded, "order must survive the round trip")
}

func TestStateRepository_CategoryRulesReplace(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveCategoryRules(ctx, []types.CategoryRule{
		{ID: "r1", Pattern: "a", Category: "x"},
	}))
	require.NoError(t, repo.SaveCategoryRules(ctx, nil))

	loaded, err := repo.LoadCategoryRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded, "saving nil clears the rule list")
}
