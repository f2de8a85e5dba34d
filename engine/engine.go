// Package engine assembles the scheduling components behind a single
// facade: profile analysis, single and batch task placement, and day
// template generation. The engine is stateless across requests apart from
// a short-lived profile cache; all planning math lives in the pure
// subpackages, while this package owns the ports to the outside world
// (block history, optional reason rewriting), logging and metrics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/blockwise/engine/analyzer"
	"github.com/hrygo/blockwise/engine/autoplan"
	"github.com/hrygo/blockwise/engine/cache"
	"github.com/hrygo/blockwise/engine/daytemplate"
	"github.com/hrygo/blockwise/engine/metrics"
	"github.com/hrygo/blockwise/engine/timeblock"
)

// ErrNoSlotAvailable reports that a task found no free gap of sufficient
// size in the scheduling window. Test with errors.Is; callers recover by
// shrinking the task, picking another day, or relaxing the category.
var ErrNoSlotAvailable = autoplan.ErrNoSlotAvailable

// HistorySource supplies stored time blocks for a user. The range is
// inclusive on both ends; implementations must not return blocks outside
// it. The engine only ever reads.
type HistorySource interface {
	GetBlocks(ctx context.Context, userID string, from, to timeblock.Date) ([]timeblock.Block, error)
}

// Rewriter turns a deterministic suggestion reason into friendlier text.
// It is optional and best-effort: every call runs under a short timeout and
// any failure leaves the deterministic reason in place.
type Rewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// Engine is the scheduling facade. Construct with New; the zero value is
// not usable. Safe for concurrent use.
type Engine struct {
	history  HistorySource
	rewriter Rewriter
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
	profiles *cache.Cache[string, timeblock.Profile]
	exporter *metrics.Exporter
	sem      *semaphore.Weighted
}

// Option configures the engine.
type Option func(*Engine)

// WithRewriter attaches an optional reason rewriter.
func WithRewriter(r Rewriter) Option {
	return func(e *Engine) {
		e.rewriter = r
	}
}

// WithConfig replaces the default tuning. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithNow pins the engine's clock. The clock decides what "today" means
// for analysis windows and cache keys; tests use it to stay deterministic.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches a metrics exporter. Without one the engine records
// nothing.
func WithMetrics(exporter *metrics.Exporter) Option {
	return func(e *Engine) {
		e.exporter = exporter
	}
}

// New builds an engine over the given history source.
func New(history HistorySource, opts ...Option) (*Engine, error) {
	if history == nil {
		return nil, errors.New("engine: history source is required")
	}
	e := &Engine{
		history: history,
		cfg:     DefaultConfig(),
		now:     time.Now,
		logger:  slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.normalized()
	e.profiles = cache.New[string, timeblock.Profile](e.cfg.ProfileCacheSize, e.cfg.ProfileCacheTTL)
	e.sem = semaphore.NewWeighted(e.cfg.PhraseConcurrency)
	return e, nil
}

// GetProfile returns the user's productivity profile over the trailing
// windowDays calendar days ending today. A non-positive windowDays falls
// back to the configured default. Profiles are derived on demand and cached
// briefly; an empty history yields a valid all-zero profile.
func (e *Engine) GetProfile(ctx context.Context, userID string, windowDays int) (timeblock.Profile, error) {
	start := time.Now()
	profile, err := e.profileFor(ctx, userID, windowDays)
	e.record("get_profile", start, err)
	return profile, err
}

// ScheduleOne places one task on date, returning the top-ranked suggestion.
// When nothing fits the error satisfies errors.Is(err, ErrNoSlotAvailable)
// and carries the deterministic reason in its message.
func (e *Engine) ScheduleOne(ctx context.Context, userID string, task timeblock.Task, date timeblock.Date) (timeblock.Suggestion, error) {
	start := time.Now()
	suggestion, err := e.scheduleOne(ctx, userID, task, date)
	e.record("schedule_one", start, err)
	return suggestion, err
}

func (e *Engine) scheduleOne(ctx context.Context, userID string, task timeblock.Task, date timeblock.Date) (timeblock.Suggestion, error) {
	runID := uuid.New().String()
	logger := e.logger.With("run_id", runID, "user_id", userID, "date", date)

	profile, err := e.profileFor(ctx, userID, 0)
	if err != nil {
		return timeblock.Suggestion{}, err
	}
	existing, err := e.blocksOn(ctx, userID, date)
	if err != nil {
		return timeblock.Suggestion{}, err
	}

	suggestion, err := autoplan.PlanOne(existing, profile, task, date, e.cfg.Day)
	if err != nil {
		logger.Info("no slot for task",
			"category", task.Category,
			"duration_minutes", task.DurationMinutes,
			"existing_blocks", len(existing))
		return timeblock.Suggestion{}, err
	}

	e.decorate(ctx, logger, &suggestion)
	if e.exporter != nil {
		e.exporter.RecordPlacement(string(suggestion.Category))
	}
	logger.Info("task scheduled",
		"start", timeblock.FormatMinutes(suggestion.Hour*60+suggestion.StartMinute),
		"duration_minutes", suggestion.DurationMinutes,
		"category", suggestion.Category,
		"confidence", suggestion.Confidence)
	return suggestion, nil
}

// ScheduleMany places a batch of tasks on date. Placement itself is
// sequential and deterministic for identical inputs; a task that finds no
// slot lands in Unplaced with its reason and the batch continues. The
// returned result carries a run ID matching the log lines of this call.
func (e *Engine) ScheduleMany(ctx context.Context, userID string, tasks []timeblock.Task, date timeblock.Date) (timeblock.BatchResult, error) {
	start := time.Now()
	result, err := e.scheduleMany(ctx, userID, tasks, date)
	e.record("schedule_many", start, err)
	return result, err
}

func (e *Engine) scheduleMany(ctx context.Context, userID string, tasks []timeblock.Task, date timeblock.Date) (timeblock.BatchResult, error) {
	runID := uuid.New().String()
	logger := e.logger.With("run_id", runID, "user_id", userID, "date", date)

	profile, err := e.profileFor(ctx, userID, 0)
	if err != nil {
		return timeblock.BatchResult{}, err
	}
	existing, err := e.blocksOn(ctx, userID, date)
	if err != nil {
		return timeblock.BatchResult{}, err
	}

	result := autoplan.PlanMany(existing, profile, tasks, date, e.cfg.Day)
	result.RunID = runID
	e.decorateAll(ctx, logger, result.Placed)

	if e.exporter != nil {
		for _, s := range result.Placed {
			e.exporter.RecordPlacement(string(s.Category))
		}
		e.exporter.RecordUnplaced(len(result.Unplaced))
	}
	logger.Info("batch scheduled",
		"tasks", len(tasks),
		"placed", len(result.Placed),
		"unplaced", len(result.Unplaced))
	return result, nil
}

// GenerateTemplate proposes a full-day plan for date from the user's
// profile. Sparse history never fails; the template falls back to the
// structural skeleton and says so via BasedOnPatterns.
func (e *Engine) GenerateTemplate(ctx context.Context, userID string, date timeblock.Date) (timeblock.DayTemplate, error) {
	start := time.Now()
	template, err := e.generateTemplate(ctx, userID, date)
	e.record("generate_template", start, err)
	return template, err
}

func (e *Engine) generateTemplate(ctx context.Context, userID string, date timeblock.Date) (timeblock.DayTemplate, error) {
	profile, err := e.profileFor(ctx, userID, 0)
	if err != nil {
		return timeblock.DayTemplate{}, err
	}
	existing, err := e.blocksOn(ctx, userID, date)
	if err != nil {
		return timeblock.DayTemplate{}, err
	}

	template := daytemplate.Generate(profile, date, existing, e.cfg.Day, e.cfg.Template)
	e.logger.Debug("day template generated",
		"user_id", userID,
		"date", date,
		"blocks", len(template.Blocks),
		"based_on_patterns", template.BasedOnPatterns)
	return template, nil
}

// profileFor loads or derives the profile for the trailing window ending
// today. The cache key pins the calendar day, so entries age out naturally
// at midnight even before their TTL.
func (e *Engine) profileFor(ctx context.Context, userID string, windowDays int) (timeblock.Profile, error) {
	if windowDays <= 0 {
		windowDays = e.cfg.WindowDays
	}
	today := timeblock.DateOf(e.now())
	key := fmt.Sprintf("%s|%d|%s", userID, windowDays, today)

	if profile, ok := e.profiles.Get(key); ok {
		if e.exporter != nil {
			e.exporter.RecordCacheHit()
		}
		return profile, nil
	}
	if e.exporter != nil {
		e.exporter.RecordCacheMiss()
	}

	from := today.AddDays(-(windowDays - 1))
	history, err := e.history.GetBlocks(ctx, userID, from, today)
	if err != nil {
		return timeblock.Profile{}, fmt.Errorf("load history for user %s: %w", userID, err)
	}
	profile := analyzer.AnalyzeAt(history, windowDays, today)
	e.profiles.Set(key, profile)
	return profile, nil
}

func (e *Engine) blocksOn(ctx context.Context, userID string, date timeblock.Date) ([]timeblock.Block, error) {
	blocks, err := e.history.GetBlocks(ctx, userID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load blocks on %s: %w", date, err)
	}
	return blocks, nil
}

// decorate rewrites one suggestion reason under the phrase timeout. Any
// failure keeps the deterministic reason; the suggestion itself is never
// at risk.
func (e *Engine) decorate(ctx context.Context, logger *slog.Logger, s *timeblock.Suggestion) {
	if e.rewriter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.PhraseTimeout)
	defer cancel()

	rewritten, err := e.rewriter.Rewrite(ctx, s.Reason)
	if err != nil || rewritten == "" {
		if e.exporter != nil {
			e.exporter.RecordPhraseFallback()
		}
		logger.Debug("reason rewrite failed, keeping deterministic text", "error", err)
		return
	}
	s.Reason = rewritten
}

// decorateAll fans the rewrite out over the placed suggestions, bounded by
// the phrase semaphore. Each worker writes only its own element, so the
// slice needs no lock.
func (e *Engine) decorateAll(ctx context.Context, logger *slog.Logger, placed []timeblock.Suggestion) {
	if e.rewriter == nil || len(placed) == 0 {
		return
	}
	var wg sync.WaitGroup
	for i := range placed {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			logger.Debug("rewrite fan-out stopped", "error", err)
			break
		}
		wg.Add(1)
		go func(s *timeblock.Suggestion) {
			defer wg.Done()
			defer e.sem.Release(1)
			e.decorate(ctx, logger, s)
		}(&placed[i])
	}
	wg.Wait()
}

func (e *Engine) record(operation string, start time.Time, err error) {
	if e.exporter == nil {
		return
	}
	e.exporter.RecordOperation(operation, time.Since(start), err)
}
