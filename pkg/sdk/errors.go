package cardquery

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kailas-cloud/cardquery/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput            = domain.ErrInvalidInput
	ErrUnauthorized            = domain.ErrUnauthorized
	ErrForbidden               = domain.ErrForbidden
	ErrNotFound                = domain.ErrNotFound
	ErrRateLimited             = domain.ErrRateLimited
	ErrTooManyParams           = domain.ErrTooManyParams
	ErrUpstreamQuota           = domain.ErrUpstreamQuota
	ErrUpstreamUnavailable     = domain.ErrUpstreamUnavailable
	ErrUpstreamTimeout         = domain.ErrUpstreamTimeout
	ErrGenerationQuotaExceeded = domain.ErrGenerationQuotaExceeded
	ErrGenerationProviderError = domain.ErrGenerationProviderError
	ErrFeedbackNotPending      = domain.ErrFeedbackNotPending
)

// ErrUnavailable matches failures to reach the service or a 5xx answer
// from it.
var ErrUnavailable = errors.New("cardquery: service unavailable")

var codeSentinels = map[string]error{
	"bad_request":               ErrInvalidInput,
	"validation_failed":         ErrInvalidInput,
	"payload_too_large":         ErrInvalidInput,
	"too_many_params":           ErrTooManyParams,
	"unauthorized":              ErrUnauthorized,
	"forbidden":                 ErrForbidden,
	"not_found":                 ErrNotFound,
	"rate_limited":              ErrRateLimited,
	"upstream_quota_exhausted":  ErrUpstreamQuota,
	"upstream_timeout":          ErrUpstreamTimeout,
	"upstream_unavailable":      ErrUpstreamUnavailable,
	"generation_quota_exceeded": ErrGenerationQuotaExceeded,
	"generation_provider_error": ErrGenerationProviderError,
	"feedback_not_pending":      ErrFeedbackNotPending,
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// APIError is an error response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     []FieldError
	// RetryAfter is set on rate-limited responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cardquery: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code to a sentinel.
func (e *APIError) Unwrap() error {
	if s, ok := codeSentinels[e.Code]; ok {
		return s
	}
	return nil
}

// Is reports server-side failures as ErrUnavailable.
func (e *APIError) Is(target error) bool {
	return target == ErrUnavailable && e.StatusCode >= http.StatusInternalServerError &&
		e.Code != "upstream_timeout" && e.Code != "upstream_unavailable" &&
		e.Code != "generation_provider_error"
}

// TransportError wraps a request that never got a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "cardquery: transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches ErrUnavailable.
func (e *TransportError) Is(target error) bool { return target == ErrUnavailable }
