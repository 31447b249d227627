package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"

	"retrace/internal/database"
	"retrace/internal/infrastructure/errors"
	"retrace/internal/infrastructure/logging"
	"retrace/internal/types"
)

// Persisted key layout. Each key is its own row so partial reads stay cheap
// and a corrupt value only loses one key.
const (
	keyActiveTimeByDomain = "active_time_by_domain"
	keyActiveTimeTotal    = "active_time_total"
	keyActiveTimeToday    = "active_time_today"
	keyActiveTimeDate     = "active_time_date"
	keyCategoryRules      = "custom_category_rules"
)

// SQLiteStateRepository implements StateRepository on the app_state table.
type SQLiteStateRepository struct {
	db          *sql.DB
	retryConfig *errors.RetryConfig
	logger      logging.Logger
}

var _ StateRepository = (*SQLiteStateRepository)(nil)

// NewSQLiteStateRepository creates a repository bound to the state database.
func NewSQLiteStateRepository(dbService database.Service, logger logging.Logger) *SQLiteStateRepository {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteStateRepository{
		db:          dbService.DB(),
		retryConfig: errors.DefaultRetryConfig(),
		logger:      logger,
	}
}

// getValue reads one key; found is false when the key has never been written.
func (r *SQLiteStateRepository) getValue(ctx context.Context, op, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.WrapStorageErrorWithContext(op, err, map[string]string{"key": key})
	}
	return value, true, nil
}

func (r *SQLiteStateRepository) setValue(ctx context.Context, op, key, value string) error {
	return errors.WithRetry(ctx, r.retryConfig, func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			return errors.WrapStorageErrorWithContext(op, err, map[string]string{"key": key})
		}
		return nil
	})
}

// LoadActiveTimeState reads the four active-time keys, defaulting each that
// is absent. A value that fails to decode is treated as absent and logged.
func (r *SQLiteStateRepository) LoadActiveTimeState(ctx context.Context, defaultDateKey string) (*types.ActiveTimeState, error) {
	const op = "LoadActiveTimeState"
	state := types.EmptyActiveTimeState(defaultDateKey)

	if raw, ok, err := r.getValue(ctx, op, keyActiveTimeByDomain); err != nil {
		return nil, err
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &state.ByDomain); err != nil {
			r.logger.Warn("Discarding undecodable active-time domain map", "error", err)
			state.ByDomain = make(map[string]int64)
		}
	}

	if raw, ok, err := r.getValue(ctx, op, keyActiveTimeTotal); err != nil {
		return nil, err
	} else if ok {
		if total, err := strconv.ParseInt(raw, 10, 64); err == nil {
			state.Total = total
		}
	}

	if raw, ok, err := r.getValue(ctx, op, keyActiveTimeToday); err != nil {
		return nil, err
	} else if ok {
		if today, err := strconv.ParseInt(raw, 10, 64); err == nil {
			state.Today = today
		}
	}

	if raw, ok, err := r.getValue(ctx, op, keyActiveTimeDate); err != nil {
		return nil, err
	} else if ok && raw != "" {
		state.DateKey = raw
	}

	return state, nil
}

// SaveActiveTimeState writes all four active-time keys in one transaction.
func (r *SQLiteStateRepository) SaveActiveTimeState(ctx context.Context, state *types.ActiveTimeState) error {
	const op = "SaveActiveTimeState"

	byDomain, err := json.Marshal(state.ByDomain)
	if err != nil {
		return errors.New(op, err, errors.ErrCodeInternal)
	}

	return errors.WithRetry(ctx, r.retryConfig, func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.WrapStorageError(op, err)
		}
		defer tx.Rollback()

		upsert := `
			INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		pairs := [][2]string{
			{keyActiveTimeByDomain, string(byDomain)},
			{keyActiveTimeTotal, strconv.FormatInt(state.Total, 10)},
			{keyActiveTimeToday, strconv.FormatInt(state.Today, 10)},
			{keyActiveTimeDate, state.DateKey},
		}
		for _, pair := range pairs {
			if _, err := tx.ExecContext(ctx, upsert, pair[0], pair[1]); err != nil {
				return errors.WrapStorageErrorWithContext(op, err, map[string]string{"key": pair[0]})
			}
		}
		if err := tx.Commit(); err != nil {
			return errors.New(op, err, errors.ErrCodeTransaction)
		}
		return nil
	})
}

// LoadCategoryRules returns the stored rule list, or an empty list when the
// key is absent or undecodable.
func (r *SQLiteStateRepository) LoadCategoryRules(ctx context.Context) ([]types.CategoryRule, error) {
	const op = "LoadCategoryRules"

	raw, ok, err := r.getValue(ctx, op, keyCategoryRules)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.CategoryRule{}, nil
	}

	var rules []types.CategoryRule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		r.logger.Warn("Discarding undecodable category rules", "error", err)
		return []types.CategoryRule{}, nil
	}
	return rules, nil
}

// SaveCategoryRules replaces the stored rule list.
func (r *SQLiteStateRepository) SaveCategoryRules(ctx context.Context, rules []types.CategoryRule) error {
	const op = "SaveCategoryRules"

	if rules == nil {
		rules = []types.CategoryRule{}
	}
	payload, err := json.Marshal(rules)
	if err != nil {
		return errors.New(op, err, errors.ErrCodeInternal)
	}
	return r.setValue(ctx, op, keyCategoryRules, string(payload))
}
