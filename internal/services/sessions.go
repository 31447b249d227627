package services

import (
	"math"
	"sort"
	"time"

	"retrace/internal/types"
)

const (
	// SessionGap is the idle gap that splits two visits into separate sessions.
	SessionGap = 30 * time.Minute
	// ActiveVisitGap is the tighter gap used to lower-bound active time from
	// visit density alone.
	ActiveVisitGap = 10 * time.Minute
)

// ComputeSessions reconstructs browsing sessions from visit timestamps
// (unix ms, any order). A session is a maximal run of visits where no
// consecutive gap exceeds SessionGap; its duration is last minus first, so a
// single-visit session has duration zero.
func ComputeSessions(timestamps []int64) types.SessionStats {
	if len(timestamps) == 0 {
		return types.SessionStats{}
	}

	times := make([]int64, len(timestamps))
	copy(times, timestamps)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	gapMs := SessionGap.Milliseconds()
	count := 1
	sessionStart := times[0]
	sessionEnd := times[0]
	var totalDuration, longestDuration int64

	for _, t := range times[1:] {
		if t-sessionEnd > gapMs {
			duration := sessionEnd - sessionStart
			totalDuration += duration
			if duration > longestDuration {
				longestDuration = duration
			}
			count++
			sessionStart = t
		}
		sessionEnd = t
	}

	finalDuration := sessionEnd - sessionStart
	totalDuration += finalDuration
	if finalDuration > longestDuration {
		longestDuration = finalDuration
	}

	return types.SessionStats{
		Count:           count,
		TotalDuration:   totalDuration,
		AvgDuration:     int64(math.Round(float64(totalDuration) / float64(count))),
		LongestDuration: longestDuration,
	}
}

// ActiveTimeLowerBound sums consecutive-visit gaps that are positive and at
// most gap, treating larger gaps as the user having left. The result is a
// conservative active-time estimate usable for ranges the live tracker never
// saw.
func ActiveTimeLowerBound(timestamps []int64, gap time.Duration) int64 {
	if len(timestamps) < 2 {
		return 0
	}

	times := make([]int64, len(timestamps))
	copy(times, timestamps)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	gapMs := gap.Milliseconds()
	var total int64
	for i := 1; i < len(times); i++ {
		delta := times[i] - times[i-1]
		if delta > 0 && delta <= gapMs {
			total += delta
		}
	}
	return total
}
