package phrase

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

// Resilient wraps a Rewriter with bounded retries inside a hard timeout, so
// a slow or flapping provider degrades to the deterministic text instead of
// stalling a scheduling response.
type Resilient struct {
	inner       Rewriter
	hardTimeout time.Duration
}

// NewResilient wraps inner. hardTimeout bounds the whole attempt sequence;
// non-positive values fall back to 10 seconds.
func NewResilient(inner Rewriter, hardTimeout time.Duration) *Resilient {
	if hardTimeout <= 0 {
		hardTimeout = 10 * time.Second
	}
	return &Resilient{inner: inner, hardTimeout: hardTimeout}
}

// Rewrite retries the inner rewriter up to twice with exponential backoff,
// all inside the hard timeout. Any error that survives the retries is
// returned for the caller's fallback.
func (r *Resilient) Rewrite(ctx context.Context, text string) (string, error) {
	rt := retry.New[string](retry.Config{
		MaxAttempts:   2,
		InitialDelay:  200 * time.Millisecond,
		BackoffPolicy: retry.BackoffExponential,
	})
	to := timeout.New[string](timeout.Config{
		DefaultTimeout: r.hardTimeout,
	})

	return to.Execute(ctx, r.hardTimeout, func(ctx context.Context) (string, error) {
		return rt.Do(ctx, func(ctx context.Context) (string, error) {
			return r.inner.Rewrite(ctx, text)
		})
	})
}
