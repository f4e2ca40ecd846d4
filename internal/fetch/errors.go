package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Retryable reports whether the status is worth another attempt. 429 means
// the site is pushing back and 5xx is usually transient; other 4xx codes are
// permanent for a given URL.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// ContentError reports a body rejected before parsing: too small to be a
// real offer page, or carrying a known block/stub marker. Both read as the
// site serving filler instead of content, so they are retried rather than
// stored.
type ContentError struct {
	Reason string
	Size   int
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("rejected body (%s, %d bytes)", e.Reason, e.Size)
}

// Retryable reports whether the fetch failure is transient. Context
// cancellation is never retried; permanent HTTP statuses are not; everything
// else (timeouts, resets, rejected bodies, rate pushback) gets another
// attempt up to the policy's cap.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
