package daytemplate

import (
	"fmt"
	"sort"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// Rule is one structural heuristic of the day skeleton. Rules run in the
// order Rules() returns them; later rules see earlier placements.
type Rule interface {
	Name() string
	Apply(d *Draft)
}

// Rules returns the canonical skeleton pipeline: the deep-work anchor, the
// conditional meeting cluster, an afternoon focus block, break cadence and
// the end-of-day review.
func Rules() []Rule {
	return []Rule{
		deepWorkRule{},
		meetingClusterRule{},
		afternoonFocusRule{},
		breakCadenceRule{},
		dailyReviewRule{},
	}
}

// deepWorkRule anchors one long work block at the top peak hour, or the
// default morning hour when the profile has no signal.
type deepWorkRule struct{}

func (deepWorkRule) Name() string { return "deep_work" }

func (deepWorkRule) Apply(d *Draft) {
	hour := d.Opts.DefaultDeepHour
	reason := "morning anchor for focused work"
	if d.Patterns && d.Profile.HasPeakHours() {
		hour = d.Profile.TopPeakHour(hour)
		reason = fmt.Sprintf("anchored at your most productive hour (%02d:00)", hour)
	}
	d.place(hour*60, d.Opts.DeepWorkMinutes, timeblock.CategoryWork, "Deep work", reason)
}

// meetingClusterRule groups meeting-shaped blocks back to back when the
// history shows meeting clustering.
type meetingClusterRule struct{}

func (meetingClusterRule) Name() string { return "meeting_cluster" }

func (meetingClusterRule) Apply(d *Draft) {
	if !d.Patterns {
		return
	}
	meetings := d.Profile.CategoryDistribution[timeblock.CategoryMeeting]
	if meetings < d.Opts.MeetingCountMin || d.Profile.MeetingShare() < d.Opts.MeetingShareMin {
		return
	}
	start, ok := d.place(d.Opts.MeetingHour*60, 30, timeblock.CategoryMeeting,
		"Meetings", "meetings grouped to keep focus time contiguous")
	if !ok {
		return
	}
	d.place(start+30, 30, timeblock.CategoryMeeting,
		"Meetings", "grouped with your other meetings")
}

// afternoonFocusRule places a second, shorter work block at the next-best
// peak hour, or mid-afternoon by default.
type afternoonFocusRule struct{}

func (afternoonFocusRule) Name() string { return "afternoon_focus" }

func (afternoonFocusRule) Apply(d *Draft) {
	hour := d.Opts.DefaultFocusHour
	reason := "afternoon block for follow-through work"
	if d.Patterns {
		if second, ok := d.Profile.PeakHourAt(1); ok {
			hour = second
			reason = fmt.Sprintf("your second-best focus hour (%02d:00)", second)
		}
	}
	d.place(hour*60, d.Opts.FocusMinutes, timeblock.CategoryWork, "Focus block", reason)
}

// breakCadenceRule inserts a short break right after every long work or
// learning block placed so far.
type breakCadenceRule struct{}

func (breakCadenceRule) Name() string { return "break_cadence" }

func (breakCadenceRule) Apply(d *Draft) {
	placed := append([]timeblock.TemplateBlock(nil), d.blocks...)
	sort.Slice(placed, func(i, j int) bool { return placed[i].Start() < placed[j].Start() })

	for _, b := range placed {
		if b.Category != timeblock.CategoryWork && b.Category != timeblock.CategoryLearning {
			continue
		}
		if b.DurationMinutes <= d.Opts.LongBlockMinutes {
			continue
		}
		d.place(b.End(), d.Opts.BreakMinutes, timeblock.CategoryBreak,
			"Break", "short break to recover after a long focus block")
	}
}

// dailyReviewRule closes the day with a fixed short review block.
type dailyReviewRule struct{}

func (dailyReviewRule) Name() string { return "daily_review" }

func (dailyReviewRule) Apply(d *Draft) {
	d.place(d.Opts.ReviewHour*60, d.Opts.ReviewMinutes, timeblock.CategoryWork,
		"Daily review", "wrap up and plan tomorrow")
}
