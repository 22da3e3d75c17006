// Package validate checks inbound payload fields with small composable
// rules. Every failure is a FieldError with a Kind, so callers can switch
// exhaustively instead of matching messages.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/cardquery/internal/domain"
)

// Kind classifies a validation failure.
type Kind int

// Failure kinds.
const (
	KindMissing Kind = iota + 1
	KindType
	KindTooLong
	KindTooMany
	KindFormat
	KindInjection
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindType:
		return "type"
	case KindTooLong:
		return "too_long"
	case KindTooMany:
		return "too_many"
	case KindFormat:
		return "format"
	case KindInjection:
		return "injection"
	default:
		return "unknown"
	}
}

// FieldError is one failed check.
type FieldError struct {
	Field string
	Kind  Kind
	Limit int
	Msg   string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Msg
}

// Errors collects field failures. It matches domain.ErrInvalidInput under errors.Is.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, domain.ErrInvalidInput) true.
func (e Errors) Is(target error) bool { return target == domain.ErrInvalidInput }

// First returns the first failure; ok is false when e is empty.
func (e Errors) First() (FieldError, bool) {
	if len(e) == 0 {
		return FieldError{}, false
	}
	return e[0], true
}

// AsErrors extracts validation failures from err.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Rule checks one string value.
type Rule func(field, v string) *FieldError

// Validator accumulates failures across fields.
type Validator struct {
	errs Errors
}

// String runs rules against a value; the first failing rule per field wins.
func (v *Validator) String(field, value string, rules ...Rule) *Validator {
	for _, r := range rules {
		if fe := r(field, value); fe != nil {
			v.errs = append(v.errs, *fe)
			break
		}
	}
	return v
}

// Optional runs rules only when value is non-empty.
func (v *Validator) Optional(field, value string, rules ...Rule) *Validator {
	if value == "" {
		return v
	}
	return v.String(field, value, rules...)
}

// Add records a failure found outside the rule set (for example a JSON type mismatch).
func (v *Validator) Add(fe FieldError) *Validator {
	v.errs = append(v.errs, fe)
	return v
}

// Err returns the collected failures, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// Required rejects empty or whitespace-only values.
func Required() Rule {
	return func(field, v string) *FieldError {
		if strings.TrimSpace(v) == "" {
			return &FieldError{Field: field, Kind: KindMissing, Msg: "is required"}
		}
		return nil
	}
}

// MaxLen rejects values longer than n characters.
func MaxLen(n int) Rule {
	return func(field, v string) *FieldError {
		if utf8.RuneCountInString(v) > n {
			return &FieldError{Field: field, Kind: KindTooLong, Limit: n, Msg: fmt.Sprintf("exceeds %d characters", n)}
		}
		return nil
	}
}

// Matches rejects values not fully matching re; what names the expected shape.
func Matches(re *regexp.Regexp, what string) Rule {
	return func(field, v string) *FieldError {
		if !re.MatchString(v) {
			return &FieldError{Field: field, Kind: KindFormat, Msg: "must be " + what}
		}
		return nil
	}
}

// MaxTerms rejects search strings with more than n top-level terms.
func MaxTerms(n int) Rule {
	return func(field, v string) *FieldError {
		if CountTerms(v) > n {
			return &FieldError{Field: field, Kind: KindTooMany, Limit: n, Msg: fmt.Sprintf("exceeds %d query parameters", n)}
		}
		return nil
	}
}

// NoInjection rejects markup, script and statement-smuggling payloads.
func NoInjection() Rule {
	return func(field, v string) *FieldError {
		if LooksInjected(v) {
			return &FieldError{Field: field, Kind: KindInjection, Msg: "contains disallowed content"}
		}
		return nil
	}
}
