package auth

import (
	"context"
	"time"

	"github.com/oakmart/storecore/domain"
)

// CooldownWindow is the minimum interval between successive login-code
// issuances for the same email.
const CooldownWindow = 30 * time.Second

// RateLimiter decides whether a new login code may be issued to an email
// based on the most recent issuance.
type RateLimiter interface {
	// MayIssue reports whether a new code may be issued. When disallowed,
	// retryAfter carries the remaining wait. No side effects.
	MayIssue(ctx context.Context, email string) (allowed bool, retryAfter time.Duration, err error)

	// MarkIssued records an issuance for limiters that keep their own
	// cool-down state. Implementations deriving state from the code store
	// treat this as a no-op.
	MarkIssued(ctx context.Context, email string) error
}

// StoreRateLimiter derives the cool-down from the most recent OneTimeCode
// issuance in the code store. It keeps no state of its own.
type StoreRateLimiter struct {
	codes  domain.CodeStorage
	window time.Duration
	now    func() time.Time
}

func NewStoreRateLimiter(codes domain.CodeStorage) *StoreRateLimiter {
	return &StoreRateLimiter{
		codes:  codes,
		window: CooldownWindow,
		now:    time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (l *StoreRateLimiter) SetClock(now func() time.Time) { l.now = now }

func (l *StoreRateLimiter) MayIssue(ctx context.Context, email string) (bool, time.Duration, error) {
	latest, err := l.codes.LatestCode(ctx, email)
	if err != nil {
		return false, 0, err
	}
	if latest == nil {
		return true, 0, nil
	}

	elapsed := l.now().Sub(latest.IssuedAt)
	if elapsed >= l.window {
		return true, 0, nil
	}
	return false, l.window - elapsed, nil
}

// MarkIssued is a no-op: SaveCode is the issuance marker.
func (l *StoreRateLimiter) MarkIssued(ctx context.Context, email string) error {
	return nil
}
