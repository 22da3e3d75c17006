package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/validate"
)

// ErrorCode is the stable machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeTooManyParams           ErrorCode = "too_many_params"
	CodePayloadTooLarge         ErrorCode = "payload_too_large"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeForbidden               ErrorCode = "forbidden"
	CodeNotFound                ErrorCode = "not_found"
	CodeRateLimited             ErrorCode = "rate_limited"
	CodeUpstreamQuota           ErrorCode = "upstream_quota_exhausted"
	CodeUpstreamTimeout         ErrorCode = "upstream_timeout"
	CodeUpstreamUnavailable     ErrorCode = "upstream_unavailable"
	CodeGenerationQuotaExceeded ErrorCode = "generation_quota_exceeded"
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	CodeFeedbackNotPending      ErrorCode = "feedback_not_pending"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code       ErrorCode    `json:"code"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	RetryAfter int          `json:"retry_after,omitempty"`
}

// FieldError describes one failed field check.
type FieldError struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		rateLimitHandler,
		validationHandler,
		sentinelHandler(domain.ErrTooManyParams, http.StatusBadRequest, CodeTooManyParams),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, CodeForbidden),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrFeedbackNotPending, http.StatusConflict, CodeFeedbackNotPending),
		sentinelHandler(domain.ErrUpstreamQuota, http.StatusTooManyRequests, CodeUpstreamQuota),
		sentinelHandler(domain.ErrUpstreamTimeout, http.StatusGatewayTimeout, CodeUpstreamTimeout),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
		sentinelHandler(domain.ErrGenerationQuotaExceeded, http.StatusPaymentRequired, CodeGenerationQuotaExceeded),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, CodeGenerationProviderError),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns the message of the sentinel an error wraps so
// that wrapped internals never reach the client.
func safeDomainMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrTooManyParams,
		domain.ErrInvalidInput,
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrFeedbackNotPending,
		domain.ErrUpstreamQuota,
		domain.ErrUpstreamTimeout,
		domain.ErrUpstreamUnavailable,
		domain.ErrGenerationQuotaExceeded,
		domain.ErrGenerationProviderError,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

func validationHandler(w http.ResponseWriter, err error) bool {
	verrs, ok := validate.AsErrors(err)
	if !ok {
		return false
	}
	resp := ErrorResponse{Code: CodeValidationFailed, Message: "validation failed"}
	for _, fe := range verrs {
		resp.Fields = append(resp.Fields, FieldError{Field: fe.Field, Kind: fe.Kind.String(), Message: fe.Msg})
	}
	if first, ok := verrs.First(); ok {
		resp.Message = first.Error()
	}
	writeJSON(w, http.StatusBadRequest, resp)
	return true
}

func rateLimitHandler(w http.ResponseWriter, err error) bool {
	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		return false
	}
	secs := rl.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Code:       CodeRateLimited,
		Message:    "rate limit exceeded (" + rl.Scope + ")",
		RetryAfter: secs,
	})
	return true
}
