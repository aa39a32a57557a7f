package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAccountNotFound is returned when an account ID does not reference an
	// existing account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrStorageUnavailable wraps record-store failures. Entitlement checks
	// fail closed on it; callers map it to a 5xx response.
	ErrStorageUnavailable = errors.New("record store unavailable")

	// ErrInvalidTier is returned for an unrecognized tier value.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrInvalidAction is returned for an unrecognized gated action.
	ErrInvalidAction = errors.New("invalid action")
)

// QuotaExceededError reports that a specific quota dimension is exhausted.
// It is an expected, user-facing outcome, not an infrastructure failure.
type QuotaExceededError struct {
	Dimension string
	Current   int64
	Limit     int64
	Message   string
}

func (e *QuotaExceededError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("quota exceeded for %s (%d/%d)", e.Dimension, e.Current, e.Limit)
}

// RateLimitedError reports a rate-limit denial and how long the caller should
// wait before retrying.
type RateLimitedError struct {
	Granularity string
	RetryAfter  time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s window, retry after %s", e.Granularity, e.RetryAfter)
}
