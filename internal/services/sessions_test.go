package services

import (
	"testing"
	"time"
)

func TestComputeSessions_Empty(t *testing.T) {
	stats := ComputeSessions(nil)

	if stats.Count != 0 {
		t.Errorf("ComputeSessions(nil) Count = %d, want 0", stats.Count)
	}
	if stats.TotalDuration != 0 || stats.AvgDuration != 0 || stats.LongestDuration != 0 {
		t.Errorf("ComputeSessions(nil) durations = %+v, want all zero", stats)
	}
}

func TestComputeSessions_SingleVisit(t *testing.T) {
	stats := ComputeSessions([]int64{1000})

	if stats.Count != 1 {
		t.Errorf("Count = %d, want 1", stats.Count)
	}
	if stats.TotalDuration != 0 {
		t.Errorf("TotalDuration = %d, want 0", stats.TotalDuration)
	}
}

func TestComputeSessions_GapSplitsSessions(t *testing.T) {
	// Two visits one second apart, then one 40 minutes later: the 30-minute
	// gap rule yields two sessions, the second with zero duration.
	stats := ComputeSessions([]int64{0, 1000, 40 * 60 * 1000})

	if stats.Count != 2 {
		t.Errorf("Count = %d, want 2", stats.Count)
	}
	if stats.TotalDuration != 1000 {
		t.Errorf("TotalDuration = %d, want 1000", stats.TotalDuration)
	}
	if stats.LongestDuration != 1000 {
		t.Errorf("LongestDuration = %d, want 1000", stats.LongestDuration)
	}
	if stats.AvgDuration != 500 {
		t.Errorf("AvgDuration = %d, want 500", stats.AvgDuration)
	}
}

func TestComputeSessions_UnorderedInput(t *testing.T) {
	// Order must not matter.
	a := ComputeSessions([]int64{0, 1000, 40 * 60 * 1000})
	b := ComputeSessions([]int64{40 * 60 * 1000, 0, 1000})

	if a != b {
		t.Errorf("unordered input changed result: %+v vs %+v", a, b)
	}
}

func TestComputeSessions_ExactGapStaysOneSession(t *testing.T) {
	gap := SessionGap.Milliseconds()
	stats := ComputeSessions([]int64{0, gap})

	if stats.Count != 1 {
		t.Errorf("Count = %d, want 1 (gap equal to threshold must not split)", stats.Count)
	}
	if stats.TotalDuration != gap {
		t.Errorf("TotalDuration = %d, want %d", stats.TotalDuration, gap)
	}
}

func TestActiveTimeLowerBound(t *testing.T) {
	fiveMin := int64(5 * 60 * 1000)
	twentyMin := int64(20 * 60 * 1000)

	// The 15-minute gap between the second and third visit exceeds the
	// 10-minute threshold, so only the first gap counts.
	got := ActiveTimeLowerBound([]int64{0, fiveMin, twentyMin}, ActiveVisitGap)
	if got != fiveMin {
		t.Errorf("ActiveTimeLowerBound = %d, want %d", got, fiveMin)
	}
}

func TestActiveTimeLowerBound_TooFewVisits(t *testing.T) {
	if got := ActiveTimeLowerBound(nil, ActiveVisitGap); got != 0 {
		t.Errorf("ActiveTimeLowerBound(nil) = %d, want 0", got)
	}
	if got := ActiveTimeLowerBound([]int64{5000}, ActiveVisitGap); got != 0 {
		t.Errorf("ActiveTimeLowerBound(single) = %d, want 0", got)
	}
}

func TestActiveTimeLowerBound_DuplicateTimestamps(t *testing.T) {
	// Zero-width gaps contribute nothing.
	got := ActiveTimeLowerBound([]int64{1000, 1000, 2000}, ActiveVisitGap)
	if got != 1000 {
		t.Errorf("ActiveTimeLowerBound = %d, want 1000", got)
	}
}

func TestActiveTimeLowerBound_CustomGap(t *testing.T) {
	got := ActiveTimeLowerBound([]int64{0, 1000, 3000}, time.Second)
	if got != 1000 {
		t.Errorf("ActiveTimeLowerBound = %d, want 1000 (2s gap exceeds 1s threshold)", got)
	}
}
