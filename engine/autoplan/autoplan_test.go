package autoplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/blockwise/engine/slotfinder"
	"github.com/hrygo/blockwise/engine/timeblock"
)

const day = timeblock.Date("2025-03-10")

func occupiedBlock(hour, duration int, category timeblock.Category) timeblock.Block {
	return timeblock.Block{Date: day, Hour: hour, DurationMinutes: duration, Category: category}
}

func TestPlanOneDefaultsDuration(t *testing.T) {
	suggestion, err := PlanOne(nil, timeblock.Profile{}, timeblock.Task{Title: "inbox sweep", Category: timeblock.CategoryWork}, day, slotfinder.Window{})
	require.NoError(t, err)
	assert.Equal(t, timeblock.DefaultTaskMinutes, suggestion.DurationMinutes)
	assert.NotEmpty(t, suggestion.Reason)
	assert.Equal(t, day, suggestion.Date)
}

func TestPlanOneNoSlot(t *testing.T) {
	existing := []timeblock.Block{
		occupiedBlock(6, 360, timeblock.CategoryWork),  // 06:00-12:00
		occupiedBlock(14, 480, timeblock.CategoryWork), // 14:00-22:00
	}
	_, err := PlanOne(existing, timeblock.Profile{}, timeblock.Task{Category: timeblock.CategoryWork, DurationMinutes: 180}, day, slotfinder.Window{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSlotAvailable))
	assert.Equal(t, "no free slot of 180 minutes on 2025-03-10 within 06:00-22:00", err.Error())
}

func TestPlanManyLongestFirstAtPeakHour(t *testing.T) {
	profile := timeblock.Profile{
		PeakHours:   []timeblock.PeakHour{{Hour: 9, Completions: 6}},
		TotalBlocks: 12,
	}
	tasks := []timeblock.Task{
		{Title: "email", Category: timeblock.CategoryWork, DurationMinutes: 30},
		{Title: "write design doc", Category: timeblock.CategoryWork, DurationMinutes: 60},
	}

	result := PlanMany(nil, profile, tasks, day, slotfinder.Window{})
	require.Len(t, result.Placed, 2)
	require.Empty(t, result.Unplaced)

	// The 60-minute task goes first and lands on the peak hour.
	assert.Equal(t, "write design doc", result.Placed[0].Title)
	assert.Equal(t, 9, result.Placed[0].Hour)
	assert.Equal(t, 0, result.Placed[0].StartMinute)

	assert.False(t, result.Placed[0].Block().Overlaps(result.Placed[1].Block()))
}

func TestPlanManyPartialFailure(t *testing.T) {
	existing := []timeblock.Block{
		occupiedBlock(6, 360, timeblock.CategoryWork),  // 06:00-12:00
		occupiedBlock(14, 480, timeblock.CategoryWork), // 14:00-22:00
	}
	tasks := []timeblock.Task{
		{Title: "deep focus", Category: timeblock.CategoryWork, DurationMinutes: 180},
		{Title: "stretch", Category: timeblock.CategoryBreak, DurationMinutes: 30},
	}

	result := PlanMany(existing, timeblock.Profile{}, tasks, day, slotfinder.Window{})

	require.Len(t, result.Placed, 1)
	assert.Equal(t, "stretch", result.Placed[0].Title)

	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "deep focus", result.Unplaced[0].Task.Title)
	assert.Equal(t, "no free slot of 180 minutes on 2025-03-10 within 06:00-22:00", result.Unplaced[0].Reason)
}

func TestPlanManyNoOverlaps(t *testing.T) {
	existing := []timeblock.Block{
		occupiedBlock(9, 60, timeblock.CategoryWork),
		occupiedBlock(13, 30, timeblock.CategoryMeeting),
	}
	tasks := []timeblock.Task{
		{Title: "a", Category: timeblock.CategoryWork, DurationMinutes: 90},
		{Title: "b", Category: timeblock.CategoryMeeting, DurationMinutes: 30},
		{Title: "c", Category: timeblock.CategoryBreak, DurationMinutes: 15},
		{Title: "d", Category: timeblock.CategoryLearning, DurationMinutes: 45},
	}

	result := PlanMany(existing, timeblock.Profile{}, tasks, day, slotfinder.Window{})
	require.Len(t, result.Placed, 4)

	all := make([]timeblock.Block, 0, len(existing)+len(result.Placed))
	all = append(all, existing...)
	for _, s := range result.Placed {
		all = append(all, s.Block())
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			assert.False(t, all[i].Overlaps(all[j]), "blocks %d and %d overlap: %+v / %+v", i, j, all[i], all[j])
		}
	}
}

func TestPlanManyDeterministic(t *testing.T) {
	existing := []timeblock.Block{occupiedBlock(10, 60, timeblock.CategoryWork)}
	profile := timeblock.Profile{PeakHours: []timeblock.PeakHour{{Hour: 9, Completions: 3}}, TotalBlocks: 9}
	tasks := []timeblock.Task{
		{Title: "one", Category: timeblock.CategoryWork, DurationMinutes: 45},
		{Title: "two", Category: timeblock.CategoryWork, DurationMinutes: 45},
		{Title: "three", Category: timeblock.CategoryBreak, DurationMinutes: 15},
	}

	first := PlanMany(existing, profile, tasks, day, slotfinder.Window{})
	second := PlanMany(existing, profile, tasks, day, slotfinder.Window{})
	assert.Equal(t, first, second)

	// Equal durations keep their input order.
	require.Len(t, first.Placed, 3)
	assert.Equal(t, "one", first.Placed[0].Title)
	assert.Equal(t, "two", first.Placed[1].Title)
}

func TestPlanManyEmptyTaskList(t *testing.T) {
	result := PlanMany(nil, timeblock.Profile{}, nil, day, slotfinder.Window{})
	assert.Empty(t, result.Placed)
	assert.Empty(t, result.Unplaced)
	assert.NotNil(t, result.Placed)
	assert.NotNil(t, result.Unplaced)
}
