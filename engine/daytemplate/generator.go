// Package daytemplate synthesizes a whole-day plan from a productivity
// profile plus fixed structural heuristics. The skeleton is assembled by an
// ordered pipeline of independent rules so each heuristic stays testable in
// isolation; later rules see earlier placements. Sparse history never
// fails: the same skeleton runs with default anchors and the template is
// marked as not pattern-based.
package daytemplate

import (
	"sort"

	"github.com/hrygo/blockwise/engine/slotfinder"
	"github.com/hrygo/blockwise/engine/timeblock"
)

// Options tunes the template skeleton. Zero values fall back to defaults.
type Options struct {
	MinHistoryBlocks int     // history size below which the structural fallback is used
	DeepWorkMinutes  int     // morning anchor block length
	FocusMinutes     int     // afternoon focus block length
	BreakMinutes     int     // recovery break length
	ReviewMinutes    int     // end-of-day review length
	DefaultDeepHour  int     // deep-work anchor without profile signal
	DefaultFocusHour int     // afternoon anchor without a second peak
	MeetingHour      int     // meeting cluster anchor
	MeetingShareMin  float64 // meeting share that counts as clustering
	MeetingCountMin  int     // minimum meetings that count as clustering
	LongBlockMinutes int     // focus blocks longer than this earn a break
	ReviewHour       int     // review anchor near the end of the working day
}

// DefaultOptions returns the canonical skeleton tuning.
func DefaultOptions() Options {
	return Options{
		MinHistoryBlocks: 10,
		DeepWorkMinutes:  90,
		FocusMinutes:     60,
		BreakMinutes:     15,
		ReviewMinutes:    15,
		DefaultDeepHour:  9,
		DefaultFocusHour: 15,
		MeetingHour:      13,
		MeetingShareMin:  0.15,
		MeetingCountMin:  2,
		LongBlockMinutes: 60,
		ReviewHour:       17,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MinHistoryBlocks <= 0 {
		o.MinHistoryBlocks = def.MinHistoryBlocks
	}
	if o.DeepWorkMinutes <= 0 {
		o.DeepWorkMinutes = def.DeepWorkMinutes
	}
	if o.FocusMinutes <= 0 {
		o.FocusMinutes = def.FocusMinutes
	}
	if o.BreakMinutes <= 0 {
		o.BreakMinutes = def.BreakMinutes
	}
	if o.ReviewMinutes <= 0 {
		o.ReviewMinutes = def.ReviewMinutes
	}
	if o.DefaultDeepHour <= 0 {
		o.DefaultDeepHour = def.DefaultDeepHour
	}
	if o.DefaultFocusHour <= 0 {
		o.DefaultFocusHour = def.DefaultFocusHour
	}
	if o.MeetingHour <= 0 {
		o.MeetingHour = def.MeetingHour
	}
	if o.MeetingShareMin <= 0 {
		o.MeetingShareMin = def.MeetingShareMin
	}
	if o.MeetingCountMin <= 0 {
		o.MeetingCountMin = def.MeetingCountMin
	}
	if o.LongBlockMinutes <= 0 {
		o.LongBlockMinutes = def.LongBlockMinutes
	}
	if o.ReviewHour <= 0 {
		o.ReviewHour = def.ReviewHour
	}
	return o
}

// Generate builds a day template for date. existing blocks on that date are
// treated as immovable: nothing the template proposes overlaps them.
func Generate(profile timeblock.Profile, date timeblock.Date, existing []timeblock.Block, w slotfinder.Window, opts Options) timeblock.DayTemplate {
	opts = opts.normalized()
	w = w.Normalized()

	draft := &Draft{
		Date:     date,
		Profile:  profile,
		Window:   w,
		Opts:     opts,
		Patterns: profile.TotalBlocks >= opts.MinHistoryBlocks,
	}
	for _, b := range existing {
		if b.Date == date && b.DurationMinutes > 0 {
			draft.occupied = append(draft.occupied, b)
		}
	}

	for _, rule := range Rules() {
		rule.Apply(draft)
	}

	sort.Slice(draft.blocks, func(i, j int) bool {
		return draft.blocks[i].Start() < draft.blocks[j].Start()
	})
	return timeblock.DayTemplate{
		Date:            date,
		Blocks:          draft.blocks,
		BasedOnPatterns: draft.Patterns,
	}
}

// Draft accumulates proposed blocks against the occupied set while the rule
// pipeline runs.
type Draft struct {
	Date     timeblock.Date
	Profile  timeblock.Profile
	Window   slotfinder.Window
	Opts     Options
	Patterns bool

	blocks   []timeblock.TemplateBlock
	occupied []timeblock.Block
}

// Blocks returns the proposals placed so far, in placement order.
func (d *Draft) Blocks() []timeblock.TemplateBlock { return d.blocks }

// place puts a block at anchor (minutes from midnight) or the nearest free
// start after it. It reports the chosen start, or ok=false when the rest of
// the day has no room, in which case the draft is unchanged.
func (d *Draft) place(anchor, duration int, category timeblock.Category, title, reason string) (int, bool) {
	start, ok := d.nextFreeStart(anchor, duration)
	if !ok {
		return 0, false
	}
	block := timeblock.TemplateBlock{
		Hour:            start / 60,
		StartMinute:     start % 60,
		DurationMinutes: duration,
		Category:        category,
		Title:           title,
		Reason:          reason,
	}
	d.blocks = append(d.blocks, block)
	d.occupied = append(d.occupied, timeblock.Block{
		Date:            d.Date,
		Hour:            block.Hour,
		StartMinute:     block.StartMinute,
		DurationMinutes: duration,
		Category:        category,
		Title:           title,
	})
	return start, true
}

func (d *Draft) nextFreeStart(anchor, duration int) (int, bool) {
	if anchor < d.Window.Start {
		anchor = d.Window.Start
	}
	busy := slotfinder.MergeBusy(d.occupied, d.Date)
	for _, gap := range slotfinder.FreeGaps(busy, d.Window, duration) {
		start := gap.Start
		if start < anchor {
			start = anchor
		}
		if start+duration <= gap.End {
			return start, true
		}
	}
	return 0, false
}
