// Package timeblock defines the shared vocabulary of the scheduling engine:
// calendar blocks, task requests, candidate slots and derived productivity
// profiles. Everything here is a plain value; the engine never mutates a
// stored block, it only reads existing ones and returns proposed ones.
package timeblock

import "fmt"

// Category classifies what a block is for.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryMeeting  Category = "meeting"
	CategoryBreak    Category = "break"
	CategoryPersonal Category = "personal"
	CategoryLearning Category = "learning"
	CategoryExercise Category = "exercise"
	// CategoryUnknown buckets blocks whose category is missing or
	// unrecognized. It is counted like any other category, never dropped.
	CategoryUnknown Category = "unknown"
)

// NormalizeCategory maps a raw category string onto the known set. Anything
// unrecognized, including the empty string, becomes CategoryUnknown.
func NormalizeCategory(raw string) Category {
	switch Category(raw) {
	case CategoryWork, CategoryMeeting, CategoryBreak, CategoryPersonal, CategoryLearning, CategoryExercise:
		return Category(raw)
	default:
		return CategoryUnknown
	}
}

// Known reports whether c is one of the schedulable categories.
func (c Category) Known() bool {
	return c != CategoryUnknown && NormalizeCategory(string(c)) == c
}

// Block is a placed or completed activity on a single calendar day.
type Block struct {
	ID              string   `json:"id,omitempty"`
	Date            Date     `json:"date"`
	Hour            int      `json:"hour"`
	StartMinute     int      `json:"startMinute"`
	DurationMinutes int      `json:"durationMinutes"`
	Category        Category `json:"category"`
	Completed       bool     `json:"completed"`
	Title           string   `json:"title,omitempty"`
}

// Start returns the block start in minutes from midnight.
func (b Block) Start() int { return b.Hour*60 + b.StartMinute }

// End returns the exclusive block end in minutes from midnight.
func (b Block) End() int { return b.Start() + b.DurationMinutes }

// Overlaps reports whether b and other occupy intersecting minutes of the
// same day. Intervals are half-open, so back-to-back blocks do not overlap.
func (b Block) Overlaps(other Block) bool {
	if b.Date != other.Date {
		return false
	}
	return b.Start() < other.End() && other.Start() < b.End()
}

// Clock formats the block start as HH:MM.
func (b Block) Clock() string { return FormatMinutes(b.Start()) }

// FormatMinutes renders minutes from midnight as HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseClock parses an HH:MM day time into minutes from midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// DefaultTaskMinutes is the duration assumed for tasks that do not carry one.
const DefaultTaskMinutes = 25

// Task is a request to place one activity on a day.
type Task struct {
	Title           string   `json:"title"`
	Category        Category `json:"category"`
	DurationMinutes int      `json:"durationMinutes"`
}

// Normalize fills task defaults: the 25-minute fallback duration and the
// unknown-category bucket.
func (t Task) Normalize() Task {
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = DefaultTaskMinutes
	}
	t.Category = NormalizeCategory(string(t.Category))
	return t
}

// Suggestion is a proposed placement. The engine never persists it; turning
// an accepted suggestion into a stored block is the caller's move.
type Suggestion struct {
	Date            Date     `json:"date"`
	Hour            int      `json:"hour"`
	StartMinute     int      `json:"startMinute"`
	DurationMinutes int      `json:"durationMinutes"`
	Category        Category `json:"category"`
	Title           string   `json:"title,omitempty"`
	Reason          string   `json:"reason"`
	Confidence      float64  `json:"confidence"`
}

// Block converts the suggestion into an unpersisted block, mainly for
// overlap checks against existing blocks.
func (s Suggestion) Block() Block {
	return Block{
		Date:            s.Date,
		Hour:            s.Hour,
		StartMinute:     s.StartMinute,
		DurationMinutes: s.DurationMinutes,
		Category:        s.Category,
		Title:           s.Title,
	}
}

// Slot is a ranked candidate interval inside the scheduling day window.
type Slot struct {
	Start   int      `json:"start"` // minutes from midnight
	End     int      `json:"end"`   // exclusive
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Hour returns the hour-of-day component of the slot start.
func (s Slot) Hour() int { return s.Start / 60 }

// StartMinute returns the minute-of-hour component of the slot start.
func (s Slot) StartMinute() int { return s.Start % 60 }

// Clock formats the slot start as HH:MM.
func (s Slot) Clock() string { return FormatMinutes(s.Start) }
