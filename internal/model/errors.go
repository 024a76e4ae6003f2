package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSearchExpired is returned when a subscription is requested for a
	// search whose ephemeral results are gone (expired or never made).
	ErrSearchExpired = errors.New("search results expired, search again")

	// ErrNotSubscribed is returned when an operation needs an existing subscription.
	ErrNotSubscribed = errors.New("not subscribed")

	// ErrAlreadySubscribed is returned when subscribing a pair twice.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrUnknownAction is returned for action names the engine does not handle.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidKeyword is returned for keywords that are blank after trimming.
	ErrInvalidKeyword = errors.New("keyword must not be empty")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
