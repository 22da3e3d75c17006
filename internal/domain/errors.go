package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput signals a malformed request (wrong type, shape or length).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized signals a missing or unrecognized credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a credential without access to the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a write that would duplicate an active resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrTooManyParams signals a compiled query with more terms than allowed.
	ErrTooManyParams = errors.New("too many query parameters")

	// ErrUpstreamQuota signals that the external search API refused for quota reasons.
	ErrUpstreamQuota = errors.New("upstream quota exhausted")
	// ErrUpstreamUnavailable signals a network-level or 5xx failure of the search API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamTimeout signals that the search API did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamNoResults signals a not-found / zero-result response from the search API.
	ErrUpstreamNoResults = errors.New("upstream returned no results")

	// ErrGenerationQuotaExceeded signals an exhausted generative token budget.
	ErrGenerationQuotaExceeded = errors.New("generation quota exceeded")
	// ErrGenerationProviderError signals a generative backend failure.
	ErrGenerationProviderError = errors.New("generation provider error")

	// ErrFeedbackNotPending signals that a feedback item was already claimed or finished.
	ErrFeedbackNotPending = errors.New("feedback item is not pending")
)

// RateLimitError wraps ErrRateLimited with the scope that rejected the request
// and the time until its window resets.
type RateLimitError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: %s limit, retry after %s", ErrRateLimited.Error(), e.Scope, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds the retry hint up to whole seconds, never below 1.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
