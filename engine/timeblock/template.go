package timeblock

// TemplateBlock is one proposed entry of a day template, annotated with the
// heuristic that placed it.
type TemplateBlock struct {
	Hour            int      `json:"hour"`
	StartMinute     int      `json:"startMinute"`
	DurationMinutes int      `json:"durationMinutes"`
	Category        Category `json:"category"`
	Title           string   `json:"title"`
	Reason          string   `json:"reason"`
}

// Start returns the block start in minutes from midnight.
func (t TemplateBlock) Start() int { return t.Hour*60 + t.StartMinute }

// End returns the exclusive block end in minutes from midnight.
func (t TemplateBlock) End() int { return t.Start() + t.DurationMinutes }

// DayTemplate is a whole-day plan proposal, ordered by start time.
// BasedOnPatterns is false when the user's history was too sparse and the
// structural fallback skeleton was used instead.
type DayTemplate struct {
	Date            Date            `json:"date"`
	Blocks          []TemplateBlock `json:"blocks"`
	BasedOnPatterns bool            `json:"basedOnPatterns"`
}

// UnplacedTask records a batch member that found no slot, with the
// deterministic reason it could not be placed.
type UnplacedTask struct {
	Task   Task   `json:"task"`
	Reason string `json:"reason"`
}

// BatchResult carries the outcome of one batch scheduling run. Failing to
// place a task is data here, not an error: Placed always holds the subset
// that fit, Unplaced the rest.
type BatchResult struct {
	RunID    string         `json:"runId,omitempty"`
	Placed   []Suggestion   `json:"placed"`
	Unplaced []UnplacedTask `json:"unplaced"`
}
