package timeblock

// PeakHour is an hour-of-day paired with its completed-block count inside
// the analysis window. Hours with zero completions are never ranked.
type PeakHour struct {
	Hour        int `json:"hour"`
	Completions int `json:"completions"`
}

// Profile summarizes a user's trailing activity window. It is derived and
// ephemeral: recomputed per request, never persisted by the engine.
type Profile struct {
	// CompletionRate is round(100 * completed / total), 0 for an empty window.
	CompletionRate int `json:"completionRate"`
	// PeakHours is ranked by completions descending, ties earlier hour first.
	PeakHours []PeakHour `json:"peakHours"`
	// CategoryDistribution counts every block in the window per category,
	// with unrecognized categories in the distinct unknown bucket.
	CategoryDistribution map[Category]int `json:"categoryDistribution"`
	CurrentStreak        int              `json:"currentStreak"`
	LongestStreak        int              `json:"longestStreak"`
	TotalBlocks          int              `json:"totalBlocks"`
	CompletedBlocks      int              `json:"completedBlocks"`
	WindowDays           int              `json:"windowDays"`
}

// HasPeakHours reports whether the window produced any peak-hour signal.
func (p Profile) HasPeakHours() bool { return len(p.PeakHours) > 0 }

// TopPeakHour returns the best-ranked peak hour, or def when the profile
// carries no signal.
func (p Profile) TopPeakHour(def int) int {
	if len(p.PeakHours) == 0 {
		return def
	}
	return p.PeakHours[0].Hour
}

// PeakHourAt returns the n-th ranked peak hour.
func (p Profile) PeakHourAt(n int) (int, bool) {
	if n < 0 || n >= len(p.PeakHours) {
		return 0, false
	}
	return p.PeakHours[n].Hour, true
}

// NearestPeakDistance returns the distance in whole hours from hour to the
// closest peak hour. ok is false when the profile has no peak signal.
func (p Profile) NearestPeakDistance(hour int) (dist int, ok bool) {
	if len(p.PeakHours) == 0 {
		return 0, false
	}
	best := -1
	for _, ph := range p.PeakHours {
		d := ph.Hour - hour
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best, true
}

// MeetingShare returns the fraction of window blocks categorized as
// meetings, 0 for an empty window.
func (p Profile) MeetingShare() float64 {
	if p.TotalBlocks == 0 {
		return 0
	}
	return float64(p.CategoryDistribution[CategoryMeeting]) / float64(p.TotalBlocks)
}
