// Package digest delivers each user's generated day plan as a short text
// message on a cron schedule. Delivery is strictly best-effort: a failed
// render or send is logged and never surfaces to the engine or the server.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hrygo/blockwise/engine/timeblock"
)

// TemplateSource produces the day plan a digest renders.
type TemplateSource interface {
	GenerateTemplate(ctx context.Context, userID string, date timeblock.Date) (timeblock.DayTemplate, error)
}

// Notifier delivers one rendered digest.
type Notifier interface {
	Notify(ctx context.Context, userID string, text string) error
}

// runTimeout bounds one whole digest run, all users included.
const runTimeout = 2 * time.Minute

// Scheduler renders and delivers digests on a cron spec.
type Scheduler struct {
	cron     *cron.Cron
	source   TemplateSource
	notifier Notifier
	users    []string
	logger   *slog.Logger
	now      func() time.Time
}

// Options configures the scheduler.
type Options struct {
	// Spec is a standard 5-field cron expression, e.g. "0 7 * * *".
	Spec string
	// Users lists the user IDs to render digests for.
	Users []string
	// Now supplies the clock deciding the digest date; nil means time.Now.
	Now func() time.Time
	// Logger for delivery outcomes; nil means slog.Default.
	Logger *slog.Logger
}

// New builds a scheduler and registers the digest job. The returned
// scheduler is idle until Start.
func New(source TemplateSource, notifier Notifier, opts Options) (*Scheduler, error) {
	if source == nil {
		return nil, fmt.Errorf("digest: template source required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("digest: notifier required")
	}
	if len(opts.Users) == 0 {
		return nil, fmt.Errorf("digest: no users configured")
	}

	s := &Scheduler{
		cron:     cron.New(),
		source:   source,
		notifier: notifier,
		users:    opts.Users,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "digest")
	}
	if s.now == nil {
		s.now = time.Now
	}

	if _, err := s.cron.AddFunc(opts.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("digest: invalid cron spec %q: %w", opts.Spec, err)
	}
	return s, nil
}

// Start begins the cron schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("digest scheduler started", "users", len(s.users))
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("digest scheduler stopped")
}

// RunOnce renders and delivers today's digest for every configured user.
// Per-user failures are logged and the run continues.
func (s *Scheduler) RunOnce(ctx context.Context) {
	date := timeblock.DateOf(s.now())
	for _, userID := range s.users {
		template, err := s.source.GenerateTemplate(ctx, userID, date)
		if err != nil {
			s.logger.Warn("digest: failed to generate template",
				"user_id", userID,
				"date", date,
				"error", err)
			continue
		}
		text := Render(template)
		if err := s.notifier.Notify(ctx, userID, text); err != nil {
			s.logger.Warn("digest: failed to deliver",
				"user_id", userID,
				"date", date,
				"error", err)
			continue
		}
		s.logger.Info("digest delivered",
			"user_id", userID,
			"date", date,
			"blocks", len(template.Blocks))
	}
}

// Render turns a day template into the digest text.
func Render(t timeblock.DayTemplate) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Plan for %s\n", t.Date))
	if t.BasedOnPatterns {
		b.WriteString("Shaped by your recent habits.\n")
	} else {
		b.WriteString("A starter plan while your history builds up.\n")
	}
	b.WriteString("\n")

	for _, block := range t.Blocks {
		b.WriteString(fmt.Sprintf("%s-%s  %s",
			timeblock.FormatMinutes(block.Start()),
			timeblock.FormatMinutes(block.End()),
			block.Title))
		if block.Category != "" && !strings.EqualFold(block.Title, string(block.Category)) {
			b.WriteString(fmt.Sprintf(" (%s)", block.Category))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
