package engine

import (
	"time"

	"github.com/hrygo/blockwise/engine/daytemplate"
	"github.com/hrygo/blockwise/engine/slotfinder"
)

// Config carries the engine tuning knobs. Zero values fall back to the
// defaults, so callers only set what they mean to change.
type Config struct {
	// WindowDays is the trailing analysis window applied when a caller
	// passes a non-positive one.
	WindowDays int
	// Day bounds the scheduling day and the candidate grid.
	Day slotfinder.Window
	// Template tunes the day-template skeleton.
	Template daytemplate.Options
	// ProfileCacheSize caps the number of cached profiles.
	ProfileCacheSize int
	// ProfileCacheTTL is how long a derived profile may be reused.
	ProfileCacheTTL time.Duration
	// PhraseTimeout bounds each optional rewrite call.
	PhraseTimeout time.Duration
	// PhraseConcurrency bounds the rewrite fan-out over a batch.
	PhraseConcurrency int64
}

// DefaultConfig returns the canonical engine tuning.
func DefaultConfig() Config {
	return Config{
		WindowDays:        30,
		Day:               slotfinder.DefaultWindow(),
		Template:          daytemplate.DefaultOptions(),
		ProfileCacheSize:  256,
		ProfileCacheTTL:   5 * time.Minute,
		PhraseTimeout:     2 * time.Second,
		PhraseConcurrency: 4,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	c.Day = c.Day.Normalized()
	if c.ProfileCacheSize <= 0 {
		c.ProfileCacheSize = def.ProfileCacheSize
	}
	if c.ProfileCacheTTL <= 0 {
		c.ProfileCacheTTL = def.ProfileCacheTTL
	}
	if c.PhraseTimeout <= 0 {
		c.PhraseTimeout = def.PhraseTimeout
	}
	if c.PhraseConcurrency <= 0 {
		c.PhraseConcurrency = def.PhraseConcurrency
	}
	return c
}
