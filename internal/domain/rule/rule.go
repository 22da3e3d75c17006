package rule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPatternLength bounds stored natural-language patterns.
const MaxPatternLength = 256

// Source records which learning path produced a rule.
type Source string

const (
	// SourceFeedback marks rules produced by the feedback processor.
	SourceFeedback Source = "feedback"
	// SourceMiner marks rules promoted by the pattern miner.
	SourceMiner Source = "miner"
	// SourceManual marks rules inserted by an operator.
	SourceManual Source = "manual"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == SourceFeedback || s == SourceMiner || s == SourceManual
}

// Rule maps a natural-language pattern to a compiled search query
// (immutable value object; updates go through the repository).
type Rule struct {
	id               string
	pattern          string
	key              string
	compiledQuery    string
	confidence       float64
	description      string
	sourceFeedbackID string
	source           Source
	active           bool
	hitCount         int64
	createdAt        int64
	updatedAt        int64
}

// New validates and creates an active Rule with a fresh UUIDv7 id.
// The pattern must already be normalized.
func New(
	pattern, compiledQuery string, confidence float64,
	description string, source Source, sourceFeedbackID string,
) (Rule, error) {
	pattern = strings.TrimSpace(pattern)
	compiledQuery = strings.TrimSpace(compiledQuery)
	if pattern == "" {
		return Rule{}, fmt.Errorf("rule pattern is required")
	}
	if len(pattern) > MaxPatternLength {
		return Rule{}, fmt.Errorf("rule pattern too long (max %d)", MaxPatternLength)
	}
	if compiledQuery == "" {
		return Rule{}, fmt.Errorf("rule compiled query is required")
	}
	if confidence < 0 || confidence > 1 {
		return Rule{}, fmt.Errorf("rule confidence must be between 0 and 1, got %v", confidence)
	}
	if !source.IsValid() {
		return Rule{}, fmt.Errorf("invalid rule source: %q", source)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Rule{}, fmt.Errorf("generate rule id: %w", err)
	}
	now := time.Now().UnixMilli()
	return Rule{
		id:               id.String(),
		pattern:          pattern,
		key:              PatternKey(pattern),
		compiledQuery:    compiledQuery,
		confidence:       confidence,
		description:      description,
		sourceFeedbackID: sourceFeedbackID,
		source:           source,
		active:           true,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct creates a Rule without validation (storage hydration).
func Reconstruct(
	id, pattern, compiledQuery string, confidence float64,
	description, sourceFeedbackID string, source Source, active bool,
	hitCount, createdAt, updatedAt int64,
) Rule {
	return Rule{
		id:               id,
		pattern:          pattern,
		key:              PatternKey(pattern),
		compiledQuery:    compiledQuery,
		confidence:       confidence,
		description:      description,
		sourceFeedbackID: sourceFeedbackID,
		source:           source,
		active:           active,
		hitCount:         hitCount,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ID returns the rule identifier.
func (r Rule) ID() string { return r.id }

// Pattern returns the normalized natural-language pattern.
func (r Rule) Pattern() string { return r.pattern }

// Key returns the order-independent form of the pattern.
func (r Rule) Key() string { return r.key }

// CompiledQuery returns the search string the pattern maps to.
func (r Rule) CompiledQuery() string { return r.compiledQuery }

// Confidence returns the confidence in [0,1].
func (r Rule) Confidence() float64 { return r.confidence }

// Description returns the human-readable explanation.
func (r Rule) Description() string { return r.description }

// SourceFeedbackID returns the feedback item that produced the rule, if any.
func (r Rule) SourceFeedbackID() string { return r.sourceFeedbackID }

// Source returns the learning path that produced the rule.
func (r Rule) Source() Source { return r.source }

// Active reports whether the rule is served.
func (r Rule) Active() bool { return r.active }

// HitCount returns how many lookups the rule has answered.
func (r Rule) HitCount() int64 { return r.hitCount }

// CreatedAt returns the creation timestamp (unix millis).
func (r Rule) CreatedAt() int64 { return r.createdAt }

// UpdatedAt returns the last update timestamp (unix millis).
func (r Rule) UpdatedAt() int64 { return r.updatedAt }

// PatternKey returns an order-independent form of a normalized query:
// its distinct words sorted, so "red creature" and "creature red" collide.
func PatternKey(s string) string {
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return ""
	}
	sort.Strings(words)
	out := words[:1]
	for _, w := range words[1:] {
		if w != out[len(out)-1] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}
