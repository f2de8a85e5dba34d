// Package autoplan places tasks into a day without conflicts: a single task
// against the day's existing blocks, or a batch placed greedily against the
// cumulative set of existing blocks plus the batch's own earlier
// placements. Both entry points are pure functions; batch placement is
// deterministic for identical inputs.
package autoplan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hrygo/blockwise/engine/slotfinder"
	"github.com/hrygo/blockwise/engine/timeblock"
)

// ErrNoSlotAvailable reports that no free gap of sufficient size exists in
// the scheduling window. Callers recover by shrinking the duration, picking
// another day, or relaxing the category preference.
var ErrNoSlotAvailable = errors.New("no slot available")

// NoSlotError carries the request that could not be satisfied. It unwraps
// to ErrNoSlotAvailable and its message doubles as the deterministic
// unplaced-task reason.
type NoSlotError struct {
	DurationMinutes int
	Date            timeblock.Date
	Window          slotfinder.Window
}

func (e *NoSlotError) Error() string {
	w := e.Window.Normalized()
	return fmt.Sprintf("no free slot of %d minutes on %s within %s-%s",
		e.DurationMinutes, e.Date,
		timeblock.FormatMinutes(w.Start), timeblock.FormatMinutes(w.End))
}

func (e *NoSlotError) Unwrap() error { return ErrNoSlotAvailable }

// PlanOne places a single task on date, returning the top-ranked suggestion
// or a NoSlotError when nothing fits.
func PlanOne(existing []timeblock.Block, profile timeblock.Profile, task timeblock.Task, date timeblock.Date, w slotfinder.Window) (timeblock.Suggestion, error) {
	task = task.Normalize()
	slots := slotfinder.Find(existing, date, task.DurationMinutes, task.Category, profile, w)
	if len(slots) == 0 {
		return timeblock.Suggestion{}, &NoSlotError{
			DurationMinutes: task.DurationMinutes,
			Date:            date,
			Window:          w,
		}
	}
	return fromSlot(slots[0], task, date), nil
}

// PlanMany places a batch on date. Tasks are ordered by descending duration
// so the hardest-to-place ones get first choice of slots; the stable sort
// keeps input order among equal durations, making repeated calls identical.
// A task that finds no slot lands in Unplaced and the batch continues.
func PlanMany(existing []timeblock.Block, profile timeblock.Profile, tasks []timeblock.Task, date timeblock.Date, w slotfinder.Window) timeblock.BatchResult {
	ordered := make([]timeblock.Task, len(tasks))
	copy(ordered, tasks)
	for i := range ordered {
		ordered[i] = ordered[i].Normalize()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DurationMinutes > ordered[j].DurationMinutes
	})

	result := timeblock.BatchResult{
		Placed:   []timeblock.Suggestion{},
		Unplaced: []timeblock.UnplacedTask{},
	}
	occupied := make([]timeblock.Block, len(existing), len(existing)+len(ordered))
	copy(occupied, existing)

	for _, task := range ordered {
		suggestion, err := PlanOne(occupied, profile, task, date, w)
		if err != nil {
			result.Unplaced = append(result.Unplaced, timeblock.UnplacedTask{
				Task:   task,
				Reason: err.Error(),
			})
			continue
		}
		result.Placed = append(result.Placed, suggestion)
		occupied = append(occupied, suggestion.Block())
	}
	return result
}

func fromSlot(slot timeblock.Slot, task timeblock.Task, date timeblock.Date) timeblock.Suggestion {
	return timeblock.Suggestion{
		Date:            date,
		Hour:            slot.Hour(),
		StartMinute:     slot.StartMinute(),
		DurationMinutes: task.DurationMinutes,
		Category:        task.Category,
		Title:           task.Title,
		Reason:          strings.Join(slot.Reasons, "; "),
		Confidence:      slot.Score,
	}
}
