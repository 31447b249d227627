package services

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"retrace/internal/history"
	"retrace/internal/infrastructure/errors"
	"retrace/internal/infrastructure/logging"
	"retrace/internal/repository"
	"retrace/internal/types"
)

const (
	// DefaultWindowDays is the window used when a request names no range.
	DefaultWindowDays = 30

	maxHistoryItems = 10000
	pageKeyMaxLen   = 150

	topDomainLimit    = 20
	topPageLimit      = 50
	topSearchLimit    = 10
	topOtherPageLimit = 200
)

// AnalyticsService orchestrates aggregation passes over host history,
// classification, session reconstruction, live active-time merging and the
// result cache. One instance serves all requests.
type AnalyticsService struct {
	history history.Service
	tracker *ActiveTimeTracker
	repo    repository.StateRepository
	logger  logging.Logger

	cache resultCache
	// Concurrent default-window misses collapse into one aggregation pass.
	group singleflight.Group

	rulesMu sync.RWMutex
	rules   []types.CategoryRule

	now func() time.Time
}

// NewAnalyticsService wires the aggregation pipeline to its collaborators.
// repo may be nil; rule changes then live in memory only.
func NewAnalyticsService(historyService history.Service, tracker *ActiveTimeTracker, repo repository.StateRepository, logger logging.Logger) *AnalyticsService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &AnalyticsService{
		history: historyService,
		tracker: tracker,
		repo:    repo,
		logger:  logger,
		rules:   []types.CategoryRule{},
		now:     time.Now,
	}
}

// Start loads the persisted rule list. A missing store degrades to an empty
// in-memory list with a warning.
func (s *AnalyticsService) Start(ctx context.Context) {
	if s.repo == nil {
		s.logger.Warn("State store unavailable, custom category rules will not survive restarts")
		return
	}
	rules, err := s.repo.LoadCategoryRules(ctx)
	if err != nil {
		s.logger.Warn("Failed to load category rules, starting with none", "error", err)
		return
	}
	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()
	s.logger.Info("Loaded custom category rules", "count", len(rules))
}

// Rules returns a copy of the current rule list in insertion order.
func (s *AnalyticsService) Rules() []types.CategoryRule {
	s.rulesMu.RLock()
	defer s.rulesMu.RUnlock()
	out := make([]types.CategoryRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// SetRules replaces the whole rule list, persists it and invalidates the
// cache. Rules without an ID get one. When the store is unavailable the new
// rules still take effect in memory and the reply says so.
func (s *AnalyticsService) SetRules(ctx context.Context, rules []types.CategoryRule) types.SaveRulesResult {
	if rules == nil {
		rules = []types.CategoryRule{}
	}
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
	}

	s.rulesMu.Lock()
	s.rules = rules
	s.rulesMu.Unlock()

	if s.repo == nil {
		s.ClearCache()
		return types.SaveRulesResult{
			Success:   true,
			Persisted: false,
			Warning:   "state store is unavailable, rules apply to this run only",
		}
	}

	if err := s.repo.SaveCategoryRules(ctx, rules); err != nil {
		s.logger.Error("Failed to persist category rules", "error", err)
		return types.SaveRulesResult{Success: false, Error: err.Error()}
	}
	s.ClearCache()
	return types.SaveRulesResult{Success: true, Persisted: true}
}

// ClearCache invalidates the result cache only.
func (s *AnalyticsService) ClearCache() {
	s.cache.clear()
}

// GetAnalytics returns a snapshot for the requested window. A zero
// startMs/endMs pair selects the default "last N days" window, which is
// cacheable; explicit ranges always bypass and never populate the cache.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, days int, startMs, endMs int64) (*types.AnalyticsSnapshot, error) {
	if days <= 0 {
		days = DefaultWindowDays
	}

	customRange := startMs > 0 && endMs > 0
	if customRange {
		return s.aggregate(ctx, days, startMs, endMs)
	}

	now := s.now()
	if snapshot := s.cache.get(days, now); snapshot != nil {
		return snapshot, nil
	}

	result, err, _ := s.group.Do("default:"+strconv.Itoa(days), func() (interface{}, error) {
		// Another waiter may have populated the cache while we queued.
		if snapshot := s.cache.get(days, s.now()); snapshot != nil {
			return snapshot, nil
		}
		end := s.now()
		start := end.Add(-time.Duration(days) * 24 * time.Hour)
		snapshot, err := s.aggregate(ctx, days, start.UnixMilli(), end.UnixMilli())
		if err != nil {
			return nil, err
		}
		s.cache.put(snapshot, days, s.now())
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*types.AnalyticsSnapshot), nil
}

// domainAccum and pageAccum keep per-key tallies plus first-seen order so
// ranked lists can break ties by encounter order.
type domainAccum struct {
	visits    int
	lastVisit int64
}

type pageAccum struct {
	url    string
	title  string
	visits int
}

// aggregate runs one full pass: host history query, per-item visit
// enumeration, classification, bucketing, session reconstruction, live
// tracker merge. A failed history query aborts the pass; a failed per-item
// visit lookup falls back to a single visit at the item's last-known time.
func (s *AnalyticsService) aggregate(ctx context.Context, days int, startMs, endMs int64) (*types.AnalyticsSnapshot, error) {
	const op = "aggregate"
	now := s.now()
	nowMs := now.UnixMilli()

	items, err := s.history.Search(ctx, history.Query{
		StartTime:  startMs,
		EndTime:    endMs,
		MaxResults: maxHistoryItems,
	})
	if err != nil {
		s.logger.Error("History query failed, aborting aggregation", "error", err)
		return nil, errors.HandleUpstreamError(op, err)
	}

	rules := s.Rules()
	categoryStats := NewCategoryCounts()

	domains := make(map[string]*domainAccum)
	var domainOrder []string
	pages := make(map[string]*pageAccum)
	var pageOrder []string
	otherPages := make(map[string]*pageAccum)
	var otherOrder []string

	searchEngineCounts := make(map[string]int)
	searchQueryCounts := make(map[string]int)
	var searchQueryOrder []string
	searchTotal := 0

	var hourly [24]int
	var daily [7]int
	var visitTimes, visitTimesToday []int64
	totalVisits, todayVisits := 0, 0
	todayStartMs := StartOfDay(now).UnixMilli()

	for _, item := range items {
		domain := ExtractDomain(item.URL)

		visits, verr := s.history.GetVisits(ctx, item.URL)
		if verr != nil {
			// Per-item detail is optional: degrade to one visit at the
			// item's last-known time rather than failing the pass.
			fallback := item.LastVisit
			if fallback == 0 {
				fallback = nowMs
			}
			visits = []history.Visit{{VisitTime: fallback}}
		} else {
			inWindow := visits[:0]
			for _, v := range visits {
				if v.VisitTime >= startMs && v.VisitTime <= endMs {
					inWindow = append(inWindow, v)
				}
			}
			visits = inWindow
		}

		visitCount := len(visits)
		if visitCount == 0 {
			continue
		}
		totalVisits += visitCount

		if info := ExtractSearchQuery(item.URL); info != nil {
			queryKey := normalizeQuery(info.Query)
			searchTotal += visitCount
			searchEngineCounts[info.Engine] += visitCount
			if _, seen := searchQueryCounts[queryKey]; !seen {
				searchQueryOrder = append(searchQueryOrder, queryKey)
			}
			searchQueryCounts[queryKey] += visitCount
		}

		acc, ok := domains[domain]
		if !ok {
			acc = &domainAccum{}
			domains[domain] = acc
			domainOrder = append(domainOrder, domain)
		}
		acc.visits += visitCount
		if item.LastVisit > acc.lastVisit {
			acc.lastVisit = item.LastVisit
		}

		title := item.Title
		if title == "" {
			title = item.URL
		}
		pageKey := truncateString(item.URL, pageKeyMaxLen)
		page, ok := pages[pageKey]
		if !ok {
			page = &pageAccum{url: item.URL, title: title}
			pages[pageKey] = page
			pageOrder = append(pageOrder, pageKey)
		}
		page.visits += visitCount

		category := Categorize(domain, item.URL, rules)
		categoryStats[category] += visitCount
		if category == FallbackCategory {
			// Keyed by the full URL, untruncated, so a later lookup (or a
			// targeted deletion) can identify the exact page.
			other, ok := otherPages[item.URL]
			if !ok {
				other = &pageAccum{url: item.URL, title: title}
				otherPages[item.URL] = other
				otherOrder = append(otherOrder, item.URL)
			}
			other.visits += visitCount
		}

		for _, visit := range visits {
			visitTime := time.UnixMilli(visit.VisitTime)
			visitTimes = append(visitTimes, visit.VisitTime)
			hourly[visitTime.Hour()]++
			daily[int(visitTime.Weekday())]++
			if visit.VisitTime >= todayStartMs {
				todayVisits++
				visitTimesToday = append(visitTimesToday, visit.VisitTime)
			}
		}
	}

	sessions := ComputeSessions(visitTimes)
	activeTodayFromVisits := ActiveTimeLowerBound(visitTimesToday, ActiveVisitGap)

	live := s.tracker.Live()
	activeToday := live.Today
	if activeTodayFromVisits > activeToday {
		activeToday = activeTodayFromVisits
	}

	snapshot := &types.AnalyticsSnapshot{
		TopDomains:      rankDomains(domains, domainOrder),
		TopPages:        rankPages(pages, pageOrder, topPageLimit),
		OtherPages:      rankPages(otherPages, otherOrder, topOtherPageLimit),
		HourlyActivity:  hourly,
		DailyActivity:   daily,
		CategoryStats:   categoryStats,
		SearchStats:     rankSearches(searchTotal, searchEngineCounts, searchQueryCounts, searchQueryOrder),
		Sessions:        sessions,
		TotalVisits:     totalVisits,
		TodayVisits:     todayVisits,
		TotalItems:      len(items),
		UniqueDomains:   len(domains),
		ActiveTimeTotal: live.Total,
		ActiveTimeToday: activeToday,
		FetchedAt:       nowMs,
		DateRange:       types.DateRange{Start: startMs, End: endMs, Days: days},
	}
	return snapshot, nil
}

func rankDomains(domains map[string]*domainAccum, order []string) []types.DomainStat {
	stats := make([]types.DomainStat, 0, len(order))
	for _, domain := range order {
		acc := domains[domain]
		stats = append(stats, types.DomainStat{Domain: domain, Visits: acc.visits, LastVisit: acc.lastVisit})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Visits > stats[j].Visits })
	if len(stats) > topDomainLimit {
		stats = stats[:topDomainLimit]
	}
	return stats
}

func rankPages(pages map[string]*pageAccum, order []string, limit int) []types.PageStat {
	stats := make([]types.PageStat, 0, len(order))
	for _, key := range order {
		acc := pages[key]
		stats = append(stats, types.PageStat{URL: acc.url, Title: acc.title, Visits: acc.visits})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Visits > stats[j].Visits })
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func rankSearches(total int, engines map[string]int, queries map[string]int, order []string) types.SearchStats {
	top := make([]types.SearchCount, 0, len(order))
	for _, query := range order {
		top = append(top, types.SearchCount{Query: query, Count: queries[query]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > topSearchLimit {
		top = top[:topSearchLimit]
	}
	return types.SearchStats{Total: total, Engines: engines, TopSearches: top}
}

// TodayStats derives the popup projection from a one-day aggregation over
// local midnight to now. That is an explicit range, so it never touches the
// cache.
func (s *AnalyticsService) TodayStats(ctx context.Context) (*types.TodayStats, error) {
	now := s.now()
	snapshot, err := s.GetAnalytics(ctx, 1, StartOfDay(now).UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, err
	}

	topDomains := snapshot.TopDomains
	if len(topDomains) > 3 {
		topDomains = topDomains[:3]
	}
	return &types.TodayStats{
		TodayVisits:    snapshot.TotalVisits,
		UniqueDomains:  snapshot.UniqueDomains,
		TopDomains:     topDomains,
		HourlyActivity: snapshot.HourlyActivity,
	}, nil
}

// HistoryStartDate scans host history for the oldest recorded visit: a
// single-item probe seeds the bound, then a broader search below that bound
// tightens it. Per-URL lookup failures fall back to the item's last-visit
// time.
func (s *AnalyticsService) HistoryStartDate(ctx context.Context) (*types.HistoryStartDate, error) {
	const op = "HistoryStartDate"
	nowMs := s.now().UnixMilli()

	seed, err := s.history.Search(ctx, history.Query{StartTime: 0, MaxResults: 1})
	if err != nil {
		return nil, errors.HandleUpstreamError(op, err)
	}
	if len(seed) == 0 {
		return &types.HistoryStartDate{StartDate: nowMs, DaysAvailable: 0}, nil
	}

	oldest := nowMs
	scan := func(items []history.Item) {
		for _, item := range items {
			visits, verr := s.history.GetVisits(ctx, item.URL)
			if verr != nil {
				if item.LastVisit > 0 && item.LastVisit < oldest {
					oldest = item.LastVisit
				}
				continue
			}
			for _, visit := range visits {
				if visit.VisitTime < oldest {
					oldest = visit.VisitTime
				}
			}
		}
	}
	scan(seed)

	older, err := s.history.Search(ctx, history.Query{StartTime: 0, EndTime: oldest, MaxResults: 100})
	if err == nil {
		scan(older)
	}

	daysAvailable := int(math.Ceil(float64(nowMs-oldest) / float64(24*time.Hour.Milliseconds())))
	return &types.HistoryStartDate{StartDate: oldest, DaysAvailable: daysAvailable}, nil
}

// DeleteRange removes all history in [startTime, endTime] and invalidates
// the cache. Bounds arrive as float64 from the JS bridge; non-finite values
// and inverted ranges are rejected before any host call.
func (s *AnalyticsService) DeleteRange(ctx context.Context, startTime, endTime float64) types.ActionResult {
	if !isFinite(startTime) || !isFinite(endTime) || startTime > endTime {
		return types.ActionResult{Success: false, Error: "invalid time range"}
	}

	if err := s.history.DeleteRange(ctx, int64(startTime), int64(endTime)); err != nil {
		s.logger.Error("Failed to delete history range", "error", err)
		return types.ActionResult{Success: false, Error: err.Error()}
	}
	s.ClearCache()
	return types.ActionResult{Success: true}
}

// DeleteURLs removes each URL best-effort: every deletion is attempted even
// after a failure, the first error is the one reported, and success is
// claimed only when all deletions succeeded. An empty list is rejected
// outright.
func (s *AnalyticsService) DeleteURLs(ctx context.Context, urls []string) types.ActionResult {
	if len(urls) == 0 {
		return types.ActionResult{Success: false, Error: "no URLs provided"}
	}

	var firstErr error
	for _, url := range urls {
		if err := s.history.DeleteURL(ctx, url); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.logger.Error("Failed to delete history URLs", "error", firstErr)
		return types.ActionResult{Success: false, Error: firstErr.Error()}
	}
	s.ClearCache()
	return types.ActionResult{Success: true, DeletedCount: len(urls)}
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
