package analyzer

import (
	"testing"

	"github.com/hrygo/blockwise/engine/timeblock"
)

const today = timeblock.Date("2025-03-20")

func block(date timeblock.Date, hour int, category timeblock.Category, completed bool) timeblock.Block {
	return timeblock.Block{
		Date:            date,
		Hour:            hour,
		DurationMinutes: 60,
		Category:        category,
		Completed:       completed,
	}
}

func TestAnalyzeAtEmptyHistory(t *testing.T) {
	p := AnalyzeAt(nil, 30, today)

	if p.CompletionRate != 0 {
		t.Errorf("CompletionRate = %d, want 0", p.CompletionRate)
	}
	if len(p.PeakHours) != 0 {
		t.Errorf("PeakHours = %v, want empty", p.PeakHours)
	}
	if p.PeakHours == nil || p.CategoryDistribution == nil {
		t.Error("empty profile should carry initialized collections")
	}
	if p.CurrentStreak != 0 || p.LongestStreak != 0 {
		t.Errorf("streaks = %d/%d, want 0/0", p.CurrentStreak, p.LongestStreak)
	}
	if p.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want 30", p.WindowDays)
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		pending   int
		want      int
	}{
		{"two thirds", 2, 1, 67},
		{"half", 1, 1, 50},
		{"none done", 0, 4, 0},
		{"all done", 4, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []timeblock.Block
			for i := 0; i < tt.completed; i++ {
				history = append(history, block(today, 9, timeblock.CategoryWork, true))
			}
			for i := 0; i < tt.pending; i++ {
				history = append(history, block(today, 14, timeblock.CategoryWork, false))
			}
			p := AnalyzeAt(history, 30, today)
			if p.CompletionRate != tt.want {
				t.Errorf("CompletionRate = %d, want %d", p.CompletionRate, tt.want)
			}
			if p.CompletionRate < 0 || p.CompletionRate > 100 {
				t.Errorf("CompletionRate = %d out of [0,100]", p.CompletionRate)
			}
		})
	}
}

func TestPeakHourRanking(t *testing.T) {
	history := []timeblock.Block{
		block(today, 9, timeblock.CategoryWork, true),
		block(today.AddDays(-1), 9, timeblock.CategoryWork, true),
		block(today.AddDays(-2), 9, timeblock.CategoryWork, true),
		block(today, 14, timeblock.CategoryWork, true),
		block(today.AddDays(-1), 14, timeblock.CategoryWork, true),
		block(today.AddDays(-3), 14, timeblock.CategoryWork, true),
		block(today, 7, timeblock.CategoryExercise, true),
		// 11:00 never completed, must not appear at all.
		block(today, 11, timeblock.CategoryMeeting, false),
	}
	p := AnalyzeAt(history, 30, today)

	want := []timeblock.PeakHour{{Hour: 9, Completions: 3}, {Hour: 14, Completions: 3}, {Hour: 7, Completions: 1}}
	if len(p.PeakHours) != len(want) {
		t.Fatalf("PeakHours = %v, want %v", p.PeakHours, want)
	}
	for i := range want {
		if p.PeakHours[i] != want[i] {
			t.Errorf("PeakHours[%d] = %v, want %v", i, p.PeakHours[i], want[i])
		}
	}
	for _, ph := range p.PeakHours {
		if ph.Completions == 0 {
			t.Errorf("peak hour %d has zero completions", ph.Hour)
		}
	}
}

func TestPeakHourCap(t *testing.T) {
	var history []timeblock.Block
	for hour := 6; hour < 14; hour++ {
		for n := 0; n <= hour; n++ {
			history = append(history, block(today, hour, timeblock.CategoryWork, true))
		}
	}
	p := AnalyzeAt(history, 30, today)
	if len(p.PeakHours) != MaxPeakHours {
		t.Errorf("len(PeakHours) = %d, want %d", len(p.PeakHours), MaxPeakHours)
	}
	if p.PeakHours[0].Hour != 13 {
		t.Errorf("top peak hour = %d, want 13", p.PeakHours[0].Hour)
	}
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name        string
		days        []timeblock.Date
		wantCurrent int
		wantLongest int
	}{
		{
			name:        "three day run ending today with gap behind",
			days:        []timeblock.Date{today, today.AddDays(-1), today.AddDays(-2), today.AddDays(-4)},
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "missed today keeps run through yesterday",
			days:        []timeblock.Date{today.AddDays(-1), today.AddDays(-2)},
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "stale history has no current streak",
			days:        []timeblock.Date{today.AddDays(-5), today.AddDays(-6)},
			wantCurrent: 0,
			wantLongest: 2,
		},
		{
			name: "longest run may predate the current one",
			days: []timeblock.Date{
				today, today.AddDays(-1),
				today.AddDays(-10), today.AddDays(-11), today.AddDays(-12), today.AddDays(-13),
			},
			wantCurrent: 2,
			wantLongest: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var history []timeblock.Block
			for _, d := range tt.days {
				history = append(history, block(d, 9, timeblock.CategoryWork, true))
			}
			p := AnalyzeAt(history, 30, today)
			if p.CurrentStreak != tt.wantCurrent {
				t.Errorf("CurrentStreak = %d, want %d", p.CurrentStreak, tt.wantCurrent)
			}
			if p.LongestStreak != tt.wantLongest {
				t.Errorf("LongestStreak = %d, want %d", p.LongestStreak, tt.wantLongest)
			}
		})
	}
}

func TestWindowFilter(t *testing.T) {
	history := []timeblock.Block{
		block(today.AddDays(-6), 9, timeblock.CategoryWork, true),  // inside a 7-day window
		block(today.AddDays(-7), 10, timeblock.CategoryWork, true), // outside
		block(today.AddDays(1), 11, timeblock.CategoryWork, true),  // future, outside
	}
	p := AnalyzeAt(history, 7, today)

	if p.TotalBlocks != 1 {
		t.Errorf("TotalBlocks = %d, want 1", p.TotalBlocks)
	}
	if len(p.PeakHours) != 1 || p.PeakHours[0].Hour != 9 {
		t.Errorf("PeakHours = %v, want only hour 9", p.PeakHours)
	}
}

func TestLongestStreakOutlivesWindow(t *testing.T) {
	// A 3-day run far outside the stats window still counts for the
	// longest streak, while window stats stay empty.
	history := []timeblock.Block{
		block(today.AddDays(-40), 9, timeblock.CategoryWork, true),
		block(today.AddDays(-41), 9, timeblock.CategoryWork, true),
		block(today.AddDays(-42), 9, timeblock.CategoryWork, true),
	}
	p := AnalyzeAt(history, 7, today)

	if p.TotalBlocks != 0 || p.CompletionRate != 0 {
		t.Errorf("window stats = %d blocks / rate %d, want 0 / 0", p.TotalBlocks, p.CompletionRate)
	}
	if p.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", p.LongestStreak)
	}
	if p.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", p.CurrentStreak)
	}
}

func TestUnknownCategoryBucket(t *testing.T) {
	history := []timeblock.Block{
		block(today, 9, timeblock.CategoryWork, true),
		block(today, 10, "focus", false),
		block(today, 11, "", false),
	}
	p := AnalyzeAt(history, 30, today)

	if got := p.CategoryDistribution[timeblock.CategoryUnknown]; got != 2 {
		t.Errorf("unknown bucket = %d, want 2", got)
	}
	if got := p.CategoryDistribution[timeblock.CategoryWork]; got != 1 {
		t.Errorf("work bucket = %d, want 1", got)
	}
}

func TestDefaultWindow(t *testing.T) {
	p := AnalyzeAt(nil, 0, today)
	if p.WindowDays != DefaultWindowDays {
		t.Errorf("WindowDays = %d, want %d", p.WindowDays, DefaultWindowDays)
	}
}
