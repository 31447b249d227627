package types

// DomainStat aggregates visits for one domain within a window.
type DomainStat struct {
	Domain    string `json:"domain"`
	Visits    int    `json:"visits"`
	LastVisit int64  `json:"lastVisit"` // unix ms of most recent visit
}

// PageStat aggregates visits for one page within a window.
type PageStat struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Visits int    `json:"visits"`
}

// SearchCount is one ranked search query.
type SearchCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// SearchStats aggregates recognized search-engine queries.
type SearchStats struct {
	Total       int            `json:"total"`
	Engines     map[string]int `json:"engines"`
	TopSearches []SearchCount  `json:"topSearches"`
}

// SessionStats summarizes reconstructed browsing sessions.
type SessionStats struct {
	Count           int   `json:"count"`
	TotalDuration   int64 `json:"totalDuration"` // ms
	AvgDuration     int64 `json:"avgDuration"`   // ms
	LongestDuration int64 `json:"longestDuration"`
}

// DateRange describes the window an aggregation pass covered.
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Days  int   `json:"days"`
}

// AnalyticsSnapshot is the immutable result of one aggregation pass.
// It is never mutated after construction; the cache and the requester share it.
type AnalyticsSnapshot struct {
	TopDomains     []DomainStat   `json:"topDomains"`
	TopPages       []PageStat     `json:"topPages"`
	OtherPages     []PageStat     `json:"otherPages"`
	HourlyActivity [24]int        `json:"hourlyActivity"`
	DailyActivity  [7]int         `json:"dailyActivity"` // Sunday-first, like time.Weekday
	CategoryStats  map[string]int `json:"categoryStats"`
	SearchStats    SearchStats    `json:"searchStats"`
	Sessions       SessionStats   `json:"sessions"`

	TotalVisits   int `json:"totalVisits"`
	TodayVisits   int `json:"todayVisits"`
	TotalItems    int `json:"totalItems"`
	UniqueDomains int `json:"uniqueDomains"`

	ActiveTimeTotal int64 `json:"activeTimeTotal"` // ms, live tracker included
	ActiveTimeToday int64 `json:"activeTimeToday"`

	FetchedAt int64     `json:"fetchedAt"`
	DateRange DateRange `json:"dateRange"`
}

// TodayStats is the compact projection served for the popup view.
type TodayStats struct {
	TodayVisits    int          `json:"todayVisits"`
	UniqueDomains  int          `json:"uniqueDomains"`
	TopDomains     []DomainStat `json:"topDomains"` // at most 3
	HourlyActivity [24]int      `json:"hourlyActivity"`
}

// HistoryStartDate reports the oldest recorded visit in host history.
type HistoryStartDate struct {
	StartDate     int64 `json:"startDate"` // unix ms
	DaysAvailable int   `json:"daysAvailable"`
}
