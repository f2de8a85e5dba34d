// Package analyzer reduces raw time-block history into a productivity
// profile: completion rate, ranked peak hours, category distribution and
// day streaks. Every function is pure and total; an empty history produces
// a valid all-zero profile, never an error.
package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// DefaultWindowDays is the trailing analysis window applied when the caller
// passes a non-positive one.
const DefaultWindowDays = 30

// MaxPeakHours caps how many ranked peak hours a profile exposes.
const MaxPeakHours = 5

// Analyze builds a profile over the trailing windowDays ending today.
func Analyze(history []timeblock.Block, windowDays int) timeblock.Profile {
	return AnalyzeAt(history, windowDays, timeblock.DateOf(time.Now()))
}

// AnalyzeAt is Analyze with a pinned "today", which keeps window and streak
// math deterministic for tests and for callers carrying their own clock.
//
// Window statistics (rate, peaks, distribution) cover the windowDays
// calendar days ending today, inclusive. Streaks run over the whole history
// passed in: the longest run would otherwise be clipped by the window.
func AnalyzeAt(history []timeblock.Block, windowDays int, today timeblock.Date) timeblock.Profile {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := today.AddDays(-(windowDays - 1))

	profile := timeblock.Profile{
		WindowDays:           windowDays,
		PeakHours:            []timeblock.PeakHour{},
		CategoryDistribution: map[timeblock.Category]int{},
	}

	hourCounts := map[int]int{}
	completedDays := map[timeblock.Date]struct{}{}
	for _, b := range history {
		if b.Completed {
			completedDays[b.Date] = struct{}{}
		}
		if b.Date.Before(cutoff) || b.Date.After(today) {
			continue
		}
		profile.TotalBlocks++
		profile.CategoryDistribution[timeblock.NormalizeCategory(string(b.Category))]++
		if b.Completed {
			profile.CompletedBlocks++
			if b.Hour >= 0 && b.Hour <= 23 {
				hourCounts[b.Hour]++
			}
		}
	}

	if profile.TotalBlocks > 0 {
		profile.CompletionRate = int(math.Round(100 * float64(profile.CompletedBlocks) / float64(profile.TotalBlocks)))
	}
	profile.PeakHours = rankPeakHours(hourCounts)
	profile.CurrentStreak = currentStreak(completedDays, today)
	profile.LongestStreak = longestStreak(completedDays)
	return profile
}

// rankPeakHours orders hours by completed-block count descending, ties by
// the earlier hour. Hours that never saw a completed block are left out.
func rankPeakHours(counts map[int]int) []timeblock.PeakHour {
	ranked := make([]timeblock.PeakHour, 0, len(counts))
	for hour, n := range counts {
		if n <= 0 {
			continue
		}
		ranked = append(ranked, timeblock.PeakHour{Hour: hour, Completions: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Completions != ranked[j].Completions {
			return ranked[i].Completions > ranked[j].Completions
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	if len(ranked) > MaxPeakHours {
		ranked = ranked[:MaxPeakHours]
	}
	return ranked
}

// currentStreak counts consecutive completed days walking backward from
// today. A streak broken only by a missed today is still valid through
// yesterday.
func currentStreak(days map[timeblock.Date]struct{}, today timeblock.Date) int {
	start := today
	if _, ok := days[start]; !ok {
		start = today.AddDays(-1)
		if _, ok := days[start]; !ok {
			return 0
		}
	}
	streak := 0
	for d := start; ; d = d.AddDays(-1) {
		if _, ok := days[d]; !ok {
			break
		}
		streak++
	}
	return streak
}

// longestStreak finds the maximum consecutive-day run anywhere in history.
func longestStreak(days map[timeblock.Date]struct{}) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]timeblock.Date, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].DaysUntil(sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
