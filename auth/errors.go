package auth

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for the credential lifecycle. Expiry and mismatch are
// expected outcomes, resolved locally and reported to the caller as
// structured results rather than escaping as failures.
var (
	// ErrInvalidCredentials is returned when the password check fails at login.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrNoSession is returned when the login token is absent, malformed,
	// already consumed, or no longer resolves to a user.
	ErrNoSession = errors.New("auth: no login session")

	// ErrExpiredCode is returned when the login code is past its expiry,
	// even if the submitted code is correct.
	ErrExpiredCode = errors.New("auth: login code expired")

	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = errors.New("auth: login code mismatch")

	// ErrTokenNotFound is returned when a reset token does not exist.
	ErrTokenNotFound = errors.New("auth: reset token not found")

	// ErrExpiredToken is returned when a reset token is past its expiry.
	// The token is deleted before this is reported.
	ErrExpiredToken = errors.New("auth: reset token expired")
)

// RateLimitError is returned when a code reissue is attempted inside the
// cool-down window. RetryAfter carries the remaining wait so the client can
// disable retry until it elapses.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("auth: rate limit exceeded, retry after %v", e.RetryAfter)
}

// RetryAfterSeconds reports the remaining wait rounded up to the nearest
// whole second.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// AsRateLimitError extracts RateLimitError from err if possible.
func AsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	ok := errors.As(err, &rle)
	return rle, ok
}
