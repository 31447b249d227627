package app

import (
	"context"
	"math"
	"testing"

	"retrace/internal/services"
	"retrace/internal/types"
)

// newTestApp builds the operation surface on fully mocked collaborators.
func newTestApp() (*App, *services.MockHistory) {
	hist := services.NewMockHistory()
	repo := services.NewMockStateRepository()
	tracker := services.NewActiveTimeTracker(repo, nil)

	return &App{
		ctx:       context.Background(),
		history:   hist,
		tracker:   tracker,
		analytics: services.NewAnalyticsService(hist, tracker, repo, nil),
	}, hist
}

func TestApp_ClearCache(t *testing.T) {
	a, _ := newTestApp()

	if result := a.ClearCache(); !result.Success {
		t.Errorf("ClearCache() = %+v, want success", result)
	}
}

func TestApp_DeleteHistoryRangeRejectsBadInput(t *testing.T) {
	a, hist := newTestApp()

	if result := a.DeleteHistoryRange(math.NaN(), 1000); result.Success {
		t.Errorf("DeleteHistoryRange(NaN, _) = %+v, want rejection", result)
	}
	if result := a.DeleteHistoryRange(2000, 1000); result.Success {
		t.Errorf("DeleteHistoryRange(inverted) = %+v, want rejection", result)
	}
	if _, _, deletes := hist.GetCallCounts(); deletes != 0 {
		t.Errorf("invalid input reached the history store %d times", deletes)
	}
}

func TestApp_DeleteHistoryURLsRejectsEmpty(t *testing.T) {
	a, _ := newTestApp()

	if result := a.DeleteHistoryURLs(nil); result.Success {
		t.Errorf("DeleteHistoryURLs(nil) = %+v, want rejection", result)
	}
}

func TestApp_CategoryRulesRoundTrip(t *testing.T) {
	a, _ := newTestApp()

	result := a.SetCustomCategoryRules([]types.CategoryRule{
		{Pattern: "example.com", Category: "work"},
	})
	if !result.Success {
		t.Fatalf("SetCustomCategoryRules() = %+v", result)
	}

	rules := a.GetCustomCategoryRules()
	if len(rules.Rules) != 1 || rules.Rules[0].Category != "work" {
		t.Errorf("GetCustomCategoryRules() = %+v", rules)
	}
}

func TestApp_TrackerEvents(t *testing.T) {
	a, _ := newTestApp()

	a.WindowFocusChanged(true)
	a.IdleStateChanged("active")
	a.ActiveDomainChanged("https://example.com/")
	a.ActiveTabClosed()

	live := a.GetLiveActiveTime()
	if live.ByDomain == nil {
		t.Error("GetLiveActiveTime() returned nil domain map")
	}
}
