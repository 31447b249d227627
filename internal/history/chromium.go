package history

import (
	"context"
	"database/sql"
	"fmt"

	"retrace/internal/infrastructure/errors"
	"retrace/internal/infrastructure/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Chromium stores visit times as microseconds since 1601-01-01 UTC.
const webkitEpochOffsetMs = int64(11644473600000)

func webkitToUnixMs(webkitMicros int64) int64 {
	return webkitMicros/1000 - webkitEpochOffsetMs
}

func unixMsToWebkit(unixMs int64) int64 {
	return (unixMs + webkitEpochOffsetMs) * 1000
}

// ChromiumService implements Service against a Chromium-format History
// database (the `urls` and `visits` tables shared by Chrome, Edge and Brave).
type ChromiumService struct {
	db     *sql.DB
	logger logging.Logger
}

var _ Service = (*ChromiumService)(nil)

// OpenChromium opens a Chromium History database file.
// The browser must not hold an exclusive lock on it.
func OpenChromium(path string, logger logging.Logger) (*ChromiumService, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.HandleConnectionError("OpenChromium", fmt.Sprintf("failed to open history database: %v", err))
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.HandleConnectionError("OpenChromium", fmt.Sprintf("failed to ping history database: %v", err))
	}
	logger.Info("Opened Chromium history database", "path", path)
	return &ChromiumService{db: db, logger: logger}, nil
}

// Close closes the history database.
func (s *ChromiumService) Close() error {
	return s.db.Close()
}

// Search returns distinct URLs that were visited inside the query window,
// most recently visited first.
func (s *ChromiumService) Search(ctx context.Context, query Query) ([]Item, error) {
	const op = "history.Search"

	limit := query.MaxResults
	if limit <= 0 {
		limit = 100
	}
	start := unixMsToWebkit(query.StartTime)
	var end int64 = int64(1) << 62
	if query.EndTime > 0 {
		end = unixMsToWebkit(query.EndTime)
	}

	sqlQuery := `
		SELECT u.url, u.title, u.last_visit_time, u.visit_count
		FROM urls u
		WHERE EXISTS (
			SELECT 1 FROM visits v
			WHERE v.url = u.id AND v.visit_time >= ? AND v.visit_time <= ?
		)
	`
	args := []interface{}{start, end}
	if query.Text != "" {
		sqlQuery += " AND (u.url LIKE ? OR u.title LIKE ?)"
		pattern := "%" + query.Text + "%"
		args = append(args, pattern, pattern)
	}
	sqlQuery += " ORDER BY u.last_visit_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.HandleUpstreamError(op, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var title sql.NullString
		var lastVisit int64
		if err := rows.Scan(&item.URL, &title, &lastVisit, &item.VisitCount); err != nil {
			return nil, errors.HandleUpstreamError(op, err)
		}
		item.Title = title.String
		item.LastVisit = webkitToUnixMs(lastVisit)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HandleUpstreamError(op, err)
	}
	return items, nil
}

// GetVisits returns every recorded visit for the exact URL.
func (s *ChromiumService) GetVisits(ctx context.Context, url string) ([]Visit, error) {
	const op = "history.GetVisits"

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.visit_time
		FROM visits v
		JOIN urls u ON u.id = v.url
		WHERE u.url = ?
		ORDER BY v.visit_time ASC
	`, url)
	if err != nil {
		return nil, errors.HandleUpstreamError(op, err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var webkitTime int64
		if err := rows.Scan(&webkitTime); err != nil {
			return nil, errors.HandleUpstreamError(op, err)
		}
		visits = append(visits, Visit{VisitTime: webkitToUnixMs(webkitTime)})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HandleUpstreamError(op, err)
	}
	return visits, nil
}

// DeleteRange removes all visits in [startTime, endTime] and any URLs left
// with no visits.
func (s *ChromiumService) DeleteRange(ctx context.Context, startTime, endTime int64) error {
	const op = "history.DeleteRange"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStorageError(op, err)
	}
	defer tx.Rollback()

	start := unixMsToWebkit(startTime)
	end := unixMsToWebkit(endTime)
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM visits WHERE visit_time >= ? AND visit_time <= ?", start, end); err != nil {
		return errors.WrapStorageError(op, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM urls WHERE id NOT IN (SELECT DISTINCT url FROM visits)"); err != nil {
		return errors.WrapStorageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.New(op, err, errors.ErrCodeTransaction)
	}
	return nil
}

// DeleteURL removes one URL and all its visits.
func (s *ChromiumService) DeleteURL(ctx context.Context, url string) error {
	const op = "history.DeleteURL"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStorageError(op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM visits WHERE url IN (SELECT id FROM urls WHERE url = ?)", url); err != nil {
		return errors.WrapStorageError(op, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM urls WHERE url = ?", url); err != nil {
		return errors.WrapStorageError(op, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.New(op, err, errors.ErrCodeTransaction)
	}
	return nil
}
