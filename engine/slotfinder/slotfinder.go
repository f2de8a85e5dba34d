// Package slotfinder computes ranked placement candidates for one day.
// It is pure computation: callers supply the day's existing blocks and a
// productivity profile, and get back scored free slots with human-readable
// reasons. No gap of sufficient size means an empty result, never an error.
package slotfinder

import (
	"math"
	"sort"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// Defaults for the scheduling day window.
const (
	DefaultWindowStart = 6 * 60  // 06:00
	DefaultWindowEnd   = 22 * 60 // 22:00
	DefaultStepMinutes = 30
	DefaultMinGap      = 15
	DefaultLimit       = 8
)

// Window bounds and tunes the slot search. All times are minutes from
// midnight; zero values fall back to the defaults above.
type Window struct {
	Start  int // inclusive lower bound of the scheduling day
	End    int // exclusive upper bound
	Step   int // candidate start grid inside a gap
	MinGap int // leftovers smaller than this count as fragmentation
	Limit  int // max candidates returned
}

// DefaultWindow is the 06:00-22:00 day with a 30-minute candidate grid.
func DefaultWindow() Window {
	return Window{
		Start:  DefaultWindowStart,
		End:    DefaultWindowEnd,
		Step:   DefaultStepMinutes,
		MinGap: DefaultMinGap,
		Limit:  DefaultLimit,
	}
}

// Normalized returns w with zero values replaced by the defaults.
func (w Window) Normalized() Window {
	def := DefaultWindow()
	if w.End <= w.Start {
		w.Start, w.End = def.Start, def.End
	}
	if w.Step <= 0 {
		w.Step = def.Step
	}
	if w.MinGap <= 0 {
		w.MinGap = def.MinGap
	}
	if w.Limit <= 0 {
		w.Limit = def.Limit
	}
	return w
}

// Interval is a half-open [Start, End) span in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// Len returns the interval length in minutes.
func (iv Interval) Len() int { return iv.End - iv.Start }

// MergeBusy collapses the date's existing blocks into sorted, disjoint busy
// intervals. Blocks on other dates are ignored.
func MergeBusy(existing []timeblock.Block, date timeblock.Date) []Interval {
	var busy []Interval
	for _, b := range existing {
		if b.Date != date || b.DurationMinutes <= 0 {
			continue
		}
		busy = append(busy, Interval{Start: b.Start(), End: b.End()})
	}
	sort.Slice(busy, func(i, j int) bool {
		if busy[i].Start == busy[j].Start {
			return busy[i].End > busy[j].End
		}
		return busy[i].Start < busy[j].Start
	})

	var merged []Interval
	for _, iv := range busy {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FreeGaps returns the complements of the merged busy set inside the window
// that are at least minLen minutes long.
func FreeGaps(busy []Interval, w Window, minLen int) []Interval {
	w = w.Normalized()
	var gaps []Interval
	cursor := w.Start
	for _, b := range busy {
		if b.End <= w.Start || b.Start >= w.End {
			continue
		}
		gapEnd := b.Start
		if gapEnd > w.End {
			gapEnd = w.End
		}
		if gapEnd-cursor >= minLen {
			gaps = append(gaps, Interval{Start: cursor, End: gapEnd})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < w.End && w.End-cursor >= minLen {
		gaps = append(gaps, Interval{Start: cursor, End: w.End})
	}
	return gaps
}

// Find returns ranked candidate slots for placing durationMinutes of the
// given category on date, best first, ties broken by earlier start.
func Find(existing []timeblock.Block, date timeblock.Date, durationMinutes int, category timeblock.Category, profile timeblock.Profile, w Window) []timeblock.Slot {
	if durationMinutes <= 0 {
		return nil
	}
	w = w.Normalized()

	busy := MergeBusy(existing, date)
	gaps := FreeGaps(busy, w, durationMinutes)
	focusEnds := focusBlockEnds(existing, date)

	var slots []timeblock.Slot
	for _, gap := range gaps {
		for start := gap.Start; start+durationMinutes <= gap.End; start += w.Step {
			score, reasons := scoreCandidate(start, durationMinutes, gap, category, profile, focusEnds, w)
			slots = append(slots, timeblock.Slot{
				Start:   start,
				End:     start + durationMinutes,
				Score:   clampScore(score),
				Reasons: reasons,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start < slots[j].Start
	})
	if len(slots) > w.Limit {
		slots = slots[:w.Limit]
	}
	return slots
}

// Category time-of-day bands, hours.
const (
	morningStart = 8
	morningEnd   = 12
	middayStart  = 11
	middayEnd    = 15
	eveningStart = 17
	eveningEnd   = 21
)

// breakAdjacency is how soon after a focus block a break still counts as
// "right after" it, minutes.
const breakAdjacency = 15

// shortGapMax marks gaps a break prefers, minutes.
const shortGapMax = 60

// scoreCandidate rates one candidate start. The base is 0.5; each matched
// heuristic shifts the score and contributes a reason. Callers clamp.
func scoreCandidate(start, duration int, gap Interval, category timeblock.Category, profile timeblock.Profile, focusEnds []int, w Window) (float64, []string) {
	score := 0.5
	reasons := []string{"no conflicts with existing blocks"}
	hour := start / 60

	peakScored := false
	if category == timeblock.CategoryWork || category == timeblock.CategoryLearning {
		if dist, ok := profile.NearestPeakDistance(hour); ok {
			switch dist {
			case 0:
				score += 0.3
				reasons = append(reasons, "matches your historical peak focus hour")
			case 1:
				score += 0.2
				reasons = append(reasons, "within an hour of your peak focus time")
			case 2:
				score += 0.1
				reasons = append(reasons, "close to your usual focus hours")
			}
			peakScored = true
		}
	}

	if !peakScored {
		switch category {
		case timeblock.CategoryWork:
			if hour >= morningStart && hour < morningEnd {
				score += 0.2
				reasons = append(reasons, "morning hours suit focused work")
			}
		case timeblock.CategoryMeeting:
			if hour >= middayStart && hour < middayEnd {
				score += 0.2
				reasons = append(reasons, "midday slot keeps meetings together")
			}
		case timeblock.CategoryPersonal:
			if hour >= eveningStart && hour < eveningEnd {
				score += 0.2
				reasons = append(reasons, "evening hours fit personal time")
			}
		case timeblock.CategoryExercise:
			if hour >= eveningStart && hour < eveningEnd {
				score += 0.2
				reasons = append(reasons, "evening slot works well for exercise")
			}
		}
	}

	if category == timeblock.CategoryBreak {
		for _, end := range focusEnds {
			if start >= end && start-end <= breakAdjacency {
				score += 0.25
				reasons = append(reasons, "placed after existing work blocks to allow recovery time")
				break
			}
		}
		if gap.Len() <= shortGapMax {
			score += 0.1
			reasons = append(reasons, "short opening sized for a break")
		}
	}

	leftover := gap.Len() - duration
	switch {
	case leftover == 0:
		score += 0.05
		reasons = append(reasons, "fills this opening exactly")
	case leftover > 0 && leftover < w.MinGap:
		score -= 0.1
		reasons = append(reasons, "leaves an awkward leftover gap")
	}

	return score, reasons
}

// focusBlockEnds collects end times of the date's work and learning blocks,
// used by the break adjacency heuristic.
func focusBlockEnds(existing []timeblock.Block, date timeblock.Date) []int {
	var ends []int
	for _, b := range existing {
		if b.Date != date || b.DurationMinutes <= 0 {
			continue
		}
		if b.Category == timeblock.CategoryWork || b.Category == timeblock.CategoryLearning {
			ends = append(ends, b.End())
		}
	}
	return ends
}

// clampScore keeps scores in [0, 1] and rounds off floating-point noise.
func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return math.Round(s*1000) / 1000
}
