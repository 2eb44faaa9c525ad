// Package cas runs optimistic read-compute-write cycles against a versioned
// store, retrying transparently when a concurrent writer wins the race.
package cas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrConflict is returned by a store when the expected version is stale.
	ErrConflict = errors.New("version conflict")
	// ErrExhausted is returned by Do when every attempt hit a conflict.
	ErrExhausted = errors.New("retries exhausted")
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the policy used by the match app.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    200 * time.Millisecond,
	}
}

// Delay returns how long to wait before the given attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

// Do calls attempt until it succeeds, fails with an error other than
// ErrConflict, or the policy runs out of attempts. attempt must re-read its
// input on every call and must not have side effects before its write.
func Do[T any](ctx context.Context, clock clockwork.Clock, p Policy, attempt func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if d := p.Delay(i); d > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-clock.After(d):
			}
		}

		v, err := attempt(ctx)
		if err == nil {
			if i > 0 {
				log.Debug().Int("attempt", i+1).Msg("compare-and-swap succeeded after retry")
			}
			return v, nil
		}
		if !errors.Is(err, ErrConflict) {
			return zero, err
		}

		lastErr = err
		log.Debug().Err(err).Int("attempt", i+1).Msg("compare-and-swap conflict, retrying")
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}
