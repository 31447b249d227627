package app

import (
	"context"
	"time"

	"retrace/internal/database"
	"retrace/internal/history"
	"retrace/internal/infrastructure/logging"
	"retrace/internal/repository"
	"retrace/internal/services"
	"retrace/internal/types"
)

const (
	// shutdownTimeout bounds the final state flush and database closure.
	shutdownTimeout = 10 * time.Second
)

// App is the application shell. Its exported methods are bound to the
// frontend bridge and form the external operation surface.
type App struct {
	ctx         context.Context
	environment string
	logger      logging.Logger

	dbService database.Service
	repo      repository.StateRepository

	history       history.Service
	historyCloser interface{ Close() error }

	tracker   *services.ActiveTimeTracker
	analytics *services.AnalyticsService
}

// NewApp wires the full engine. Initialization never fails outright: a
// missing state database degrades to in-memory tracking, and a missing
// history database degrades to analytics operations reporting unavailable.
func NewApp(env string) *App {
	logger := logging.NewDefaultLogger()

	a := &App{
		environment: env,
		logger:      logger,
	}

	a.initStateStore(env, logger)
	a.initHistory(logger)

	a.tracker = services.NewActiveTimeTracker(a.repo, logger)
	a.analytics = services.NewAnalyticsService(a.history, a.tracker, a.repo, logger)
	return a
}

// initStateStore connects and migrates the state database. On any failure
// the repository stays nil and dependents run in memory only.
func (a *App) initStateStore(env string, logger logging.Logger) {
	config := database.ConfigForEnvironment(env)
	config.LoadFromEnvironment()

	dbService := database.NewSQLiteService(logger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := dbService.Connect(ctx, config); err != nil {
		logger.Error("State database unavailable, continuing without persistence", "error", err)
		return
	}
	if err := dbService.Migrate(ctx); err != nil {
		logger.Error("State database migration failed, continuing without persistence", "error", err)
		dbService.Close()
		return
	}

	a.dbService = dbService
	a.repo = repository.NewSQLiteStateRepository(dbService, logger)
}

// initHistory opens the host browser's history database. On failure every
// history-backed operation reports the store as unavailable.
func (a *App) initHistory(logger logging.Logger) {
	path := history.DefaultPath()
	if path == "" {
		logger.Error("No history database path could be determined")
		a.history = history.UnavailableService{}
		return
	}

	svc, err := history.OpenChromium(path, logger)
	if err != nil {
		logger.Error("History database unavailable", "path", path, "error", err)
		a.history = history.UnavailableService{}
		return
	}
	a.history = svc
	a.historyCloser = svc
}

// Startup is called by the shell once the runtime is ready.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	a.tracker.Start(ctx)
	a.analytics.Start(ctx)

	// Warm the cache so the first dashboard open is served instantly.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := a.analytics.GetAnalytics(warmCtx, services.DefaultWindowDays, 0, 0); err != nil {
			a.logger.Warn("Cache warm-up failed", "error", err)
		}
	}()

	a.logger.Info("Application started", "environment", a.environment)
}

// DomReady is called after front-end resources have been loaded.
func (a *App) DomReady(ctx context.Context) {
}

// BeforeClose is called when the application is about to quit.
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return false
}

// Shutdown flushes tracker state and closes both databases.
func (a *App) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	a.tracker.Flush(shutdownCtx)

	if a.historyCloser != nil {
		if err := a.historyCloser.Close(); err != nil {
			a.logger.Warn("Failed to close history database", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.logger.Warn("Failed to close state database", "error", err)
		}
	}
	a.logger.Info("Application shutdown completed")
}

// GetAnalytics returns the aggregated snapshot for the last `days` days, or
// for the explicit [startTime, endTime] range (unix ms) when both are set.
func (a *App) GetAnalytics(days int, startTime, endTime float64) (*types.AnalyticsSnapshot, error) {
	return a.analytics.GetAnalytics(a.ctx, days, int64(startTime), int64(endTime))
}

// GetTodayStats returns the compact since-midnight projection.
func (a *App) GetTodayStats() (*types.TodayStats, error) {
	return a.analytics.TodayStats(a.ctx)
}

// ClearCache drops the memoized snapshot; the next request recomputes.
func (a *App) ClearCache() types.ActionResult {
	a.analytics.ClearCache()
	return types.ActionResult{Success: true}
}

// GetHistoryStartDate reports the oldest visit on record and how many days
// of history that covers.
func (a *App) GetHistoryStartDate() (*types.HistoryStartDate, error) {
	return a.analytics.HistoryStartDate(a.ctx)
}

// ExportData returns the same snapshot shape as GetAnalytics, for the
// caller to serialize.
func (a *App) ExportData(days int, startTime, endTime float64) (*types.AnalyticsSnapshot, error) {
	return a.analytics.GetAnalytics(a.ctx, days, int64(startTime), int64(endTime))
}

// GetCustomCategoryRules returns the current rule list in priority order.
func (a *App) GetCustomCategoryRules() types.RulesResponse {
	return types.RulesResponse{Rules: a.analytics.Rules()}
}

// SetCustomCategoryRules replaces the whole rule list.
func (a *App) SetCustomCategoryRules(rules []types.CategoryRule) types.SaveRulesResult {
	return a.analytics.SetRules(a.ctx, rules)
}

// DeleteHistoryRange removes all history inside [startTime, endTime] (unix ms).
func (a *App) DeleteHistoryRange(startTime, endTime float64) types.ActionResult {
	return a.analytics.DeleteRange(a.ctx, startTime, endTime)
}

// DeleteHistoryURLs removes the given URLs from history, best-effort.
func (a *App) DeleteHistoryURLs(urls []string) types.ActionResult {
	return a.analytics.DeleteURLs(a.ctx, urls)
}

// GetLiveActiveTime reads the tracker including any open session.
func (a *App) GetLiveActiveTime() services.LiveActiveTime {
	return a.tracker.Live()
}

// ActiveDomainChanged reports a tab activation or in-tab navigation.
func (a *App) ActiveDomainChanged(url string) {
	a.tracker.ActiveDomainChanged(url)
}

// ActiveTabClosed reports the active tab going away.
func (a *App) ActiveTabClosed() {
	a.tracker.ActiveTabClosed()
}

// WindowFocusChanged reports the browser window gaining or losing OS focus.
func (a *App) WindowFocusChanged(focused bool) {
	a.tracker.WindowFocusChanged(focused)
}

// IdleStateChanged reports the host idle detector ("active", "idle", "locked").
func (a *App) IdleStateChanged(state string) {
	a.tracker.IdleStateChanged(types.IdleState(state))
}
