package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/blockwise/engine/metrics"
	"github.com/hrygo/blockwise/engine/timeblock"
)

const testDay = timeblock.Date("2025-03-10")

// fixedClock pins "today" to testDay.
func fixedClock() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

type fakeHistory struct {
	mu     sync.Mutex
	calls  int
	blocks []timeblock.Block
	err    error
}

func (f *fakeHistory) GetBlocks(_ context.Context, _ string, from, to timeblock.Date) ([]timeblock.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []timeblock.Block
	for _, b := range f.blocks {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeHistory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type rewriterFunc func(ctx context.Context, text string) (string, error)

func (f rewriterFunc) Rewrite(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func busyBlock(date timeblock.Date, hour, duration int, category timeblock.Category, completed bool) timeblock.Block {
	return timeblock.Block{
		Date:            date,
		Hour:            hour,
		DurationMinutes: duration,
		Category:        category,
		Completed:       completed,
	}
}

func newTestEngine(t *testing.T, history HistorySource, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{
		WithNow(fixedClock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	e, err := New(history, opts...)
	require.NoError(t, err)
	return e
}

func TestNewRequiresHistorySource(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestGetProfileComputesAndCaches(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay.AddDays(-1), 9, 60, timeblock.CategoryWork, true),
		busyBlock(testDay.AddDays(-2), 9, 90, timeblock.CategoryWork, true),
		busyBlock(testDay.AddDays(-2), 14, 30, timeblock.CategoryMeeting, false),
	}}
	e := newTestEngine(t, source)

	first, err := e.GetProfile(context.Background(), "alice", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalBlocks)
	assert.Equal(t, 67, first.CompletionRate)
	assert.Equal(t, 9, first.TopPeakHour(0))

	second, err := e.GetProfile(context.Background(), "alice", 30)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.callCount(), "second call should hit the cache")

	// A different window is a different cache key.
	_, err = e.GetProfile(context.Background(), "alice", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}

func TestGetProfileSourceError(t *testing.T) {
	source := &fakeHistory{err: errors.New("connection refused")}
	e := newTestEngine(t, source)

	_, err := e.GetProfile(context.Background(), "alice", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice")
}

func TestScheduleOneAvoidsExistingBlocks(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay, 9, 120, timeblock.CategoryWork, false),
		busyBlock(testDay, 14, 60, timeblock.CategoryMeeting, false),
	}}
	e := newTestEngine(t, source)

	suggestion, err := e.ScheduleOne(context.Background(), "alice", timeblock.Task{
		Title:           "write report",
		Category:        timeblock.CategoryWork,
		DurationMinutes: 60,
	}, testDay)
	require.NoError(t, err)

	assert.Equal(t, testDay, suggestion.Date)
	assert.NotEmpty(t, suggestion.Reason)
	assert.GreaterOrEqual(t, suggestion.Confidence, 0.0)
	assert.LessOrEqual(t, suggestion.Confidence, 1.0)
	for _, b := range source.blocks {
		assert.False(t, suggestion.Block().Overlaps(b), "suggestion overlaps block at %s", b.Clock())
	}
}

func TestScheduleOneNoSlot(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay, 6, 960, timeblock.CategoryWork, false), // 06:00-22:00
	}}
	e := newTestEngine(t, source)

	_, err := e.ScheduleOne(context.Background(), "alice", timeblock.Task{
		Category:        timeblock.CategoryWork,
		DurationMinutes: 30,
	}, testDay)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSlotAvailable))
	assert.Contains(t, err.Error(), "no free slot of 30 minutes")
}

func TestScheduleManyDeterministicAcrossRuns(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay, 12, 60, timeblock.CategoryBreak, false),
	}}
	e := newTestEngine(t, source)
	tasks := []timeblock.Task{
		{Title: "standup", Category: timeblock.CategoryMeeting, DurationMinutes: 30},
		{Title: "deep work", Category: timeblock.CategoryWork, DurationMinutes: 120},
		{Title: "reading", Category: timeblock.CategoryLearning, DurationMinutes: 45},
	}

	first, err := e.ScheduleMany(context.Background(), "alice", tasks, testDay)
	require.NoError(t, err)
	second, err := e.ScheduleMany(context.Background(), "alice", tasks, testDay)
	require.NoError(t, err)

	require.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID, "each run gets its own ID")
	assert.Equal(t, first.Placed, second.Placed)
	assert.Equal(t, first.Unplaced, second.Unplaced)
}

func TestScheduleManyPlacementsNeverOverlap(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay, 9, 90, timeblock.CategoryWork, false),
		busyBlock(testDay, 13, 60, timeblock.CategoryMeeting, false),
	}}
	e := newTestEngine(t, source)
	tasks := []timeblock.Task{
		{Title: "a", Category: timeblock.CategoryWork, DurationMinutes: 90},
		{Title: "b", Category: timeblock.CategoryWork, DurationMinutes: 60},
		{Title: "c", Category: timeblock.CategoryBreak, DurationMinutes: 15},
		{Title: "d", Category: timeblock.CategoryPersonal, DurationMinutes: 45},
	}

	result, err := e.ScheduleMany(context.Background(), "alice", tasks, testDay)
	require.NoError(t, err)
	require.NotEmpty(t, result.Placed)

	occupied := append([]timeblock.Block{}, source.blocks...)
	for _, s := range result.Placed {
		for _, b := range occupied {
			assert.False(t, s.Block().Overlaps(b), "placement %q overlaps block at %s", s.Title, b.Clock())
		}
		occupied = append(occupied, s.Block())
	}
}

func TestScheduleManyPartialFailureIsData(t *testing.T) {
	source := &fakeHistory{blocks: []timeblock.Block{
		busyBlock(testDay, 6, 900, timeblock.CategoryWork, false), // free only 21:00-22:00
	}}
	e := newTestEngine(t, source)
	tasks := []timeblock.Task{
		{Title: "fits", Category: timeblock.CategoryPersonal, DurationMinutes: 60},
		{Title: "does not", Category: timeblock.CategoryWork, DurationMinutes: 120},
	}

	result, err := e.ScheduleMany(context.Background(), "alice", tasks, testDay)
	require.NoError(t, err, "partial failure must not surface as an error")
	require.Len(t, result.Placed, 1)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "fits", result.Placed[0].Title)
	assert.Equal(t, "does not", result.Unplaced[0].Task.Title)
	assert.Contains(t, result.Unplaced[0].Reason, "no free slot of 120 minutes")
}

func TestScheduleOneAppliesRewriter(t *testing.T) {
	source := &fakeHistory{}
	e := newTestEngine(t, source, WithRewriter(rewriterFunc(func(_ context.Context, text string) (string, error) {
		return "Great pick! " + text, nil
	})))

	suggestion, err := e.ScheduleOne(context.Background(), "alice", timeblock.Task{
		Category:        timeblock.CategoryWork,
		DurationMinutes: 30,
	}, testDay)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(suggestion.Reason, "Great pick! "))
}

func TestRewriterFailureKeepsDeterministicReason(t *testing.T) {
	task := timeblock.Task{Category: timeblock.CategoryWork, DurationMinutes: 30}

	plain := newTestEngine(t, &fakeHistory{})
	baseline, err := plain.ScheduleOne(context.Background(), "alice", task, testDay)
	require.NoError(t, err)

	failing := newTestEngine(t, &fakeHistory{}, WithRewriter(rewriterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model unavailable")
	})))
	got, err := failing.ScheduleOne(context.Background(), "alice", task, testDay)
	require.NoError(t, err)
	assert.Equal(t, baseline.Reason, got.Reason)
}

func TestRewriterTimeoutKeepsDeterministicReason(t *testing.T) {
	slow := rewriterFunc(func(ctx context.Context, _ string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	})
	cfg := DefaultConfig()
	cfg.PhraseTimeout = 20 * time.Millisecond
	e := newTestEngine(t, &fakeHistory{}, WithConfig(cfg), WithRewriter(slow))

	start := time.Now()
	suggestion, err := e.ScheduleOne(context.Background(), "alice", timeblock.Task{
		Category:        timeblock.CategoryWork,
		DurationMinutes: 30,
	}, testDay)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.NotEqual(t, "too late", suggestion.Reason)
	assert.NotEmpty(t, suggestion.Reason)
}

func TestScheduleManyRewritesEveryPlacement(t *testing.T) {
	e := newTestEngine(t, &fakeHistory{}, WithRewriter(rewriterFunc(func(_ context.Context, text string) (string, error) {
		return strings.ToUpper(text), nil
	})))
	tasks := []timeblock.Task{
		{Title: "a", Category: timeblock.CategoryWork, DurationMinutes: 30},
		{Title: "b", Category: timeblock.CategoryWork, DurationMinutes: 30},
		{Title: "c", Category: timeblock.CategoryBreak, DurationMinutes: 15},
		{Title: "d", Category: timeblock.CategoryPersonal, DurationMinutes: 45},
		{Title: "e", Category: timeblock.CategoryLearning, DurationMinutes: 60},
	}

	result, err := e.ScheduleMany(context.Background(), "alice", tasks, testDay)
	require.NoError(t, err)
	require.NotEmpty(t, result.Placed)
	for _, s := range result.Placed {
		assert.Equal(t, strings.ToUpper(s.Reason), s.Reason, "placement %q reason not rewritten", s.Title)
	}
}

func TestGenerateTemplateSparseHistoryFallsBack(t *testing.T) {
	e := newTestEngine(t, &fakeHistory{})

	template, err := e.GenerateTemplate(context.Background(), "newcomer", testDay)
	require.NoError(t, err)
	assert.False(t, template.BasedOnPatterns)
	require.NotEmpty(t, template.Blocks, "fallback skeleton still proposes a day")

	for i := 1; i < len(template.Blocks); i++ {
		prev, cur := template.Blocks[i-1], template.Blocks[i]
		assert.LessOrEqual(t, prev.End(), cur.Start(),
			"blocks %d and %d overlap or are out of order", i-1, i)
	}
}

func TestGenerateTemplateRespectsExistingBlocks(t *testing.T) {
	existing := busyBlock(testDay, 9, 90, timeblock.CategoryMeeting, false)
	e := newTestEngine(t, &fakeHistory{blocks: []timeblock.Block{existing}})

	template, err := e.GenerateTemplate(context.Background(), "alice", testDay)
	require.NoError(t, err)
	for _, b := range template.Blocks {
		proposed := timeblock.Block{
			Date:            testDay,
			Hour:            b.Hour,
			StartMinute:     b.StartMinute,
			DurationMinutes: b.DurationMinutes,
		}
		assert.False(t, proposed.Overlaps(existing), "template block at %s overlaps the 09:00 meeting", proposed.Clock())
	}
}

func TestMetricsCountCacheHits(t *testing.T) {
	exporter := metrics.NewExporter(metrics.DefaultConfig())
	e := newTestEngine(t, &fakeHistory{}, WithMetrics(exporter))

	_, err := e.GetProfile(context.Background(), "alice", 30)
	require.NoError(t, err)
	_, err = e.GetProfile(context.Background(), "alice", 30)
	require.NoError(t, err)

	families, err := exporter.Registry().Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			counts[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["blockwise_engine_profile_cache_hits_total"])
	assert.Equal(t, 1.0, counts["blockwise_engine_profile_cache_misses_total"])
}
