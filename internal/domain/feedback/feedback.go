package feedback

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits.
const (
	MaxQueryLength       = 500
	MaxDescriptionLength = 2000
)

var idRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ValidID reports whether s has the shape of a UUID.
func ValidID(s string) bool { return idRegex.MatchString(s) }

// Status is the processing state of a feedback item.
type Status string

// Processing states.
const (
	StatusPending         Status = "pending"
	StatusProcessing      Status = "processing"
	StatusCompleted       Status = "completed"
	StatusDuplicate       Status = "duplicate"
	StatusSkipped         Status = "skipped"
	StatusFailed          Status = "failed"
	StatusUpdatedExisting Status = "updated_existing"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusDuplicate,
		StatusSkipped, StatusFailed, StatusUpdatedExisting:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s.IsValid() && s != StatusPending && s != StatusProcessing
}

// CanTransition reports whether from -> to is allowed.
// Only pending -> processing and processing -> terminal exist.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to.IsTerminal()
	default:
		return false
	}
}

// Item is a user-submitted translation correction.
type Item struct {
	id               string
	originalQuery    string
	translatedQuery  string
	issueDescription string
	status           Status
	generatedRuleID  string
	reason           string
	createdAt        int64
	updatedAt        int64
}

// New validates and creates a pending Item with a fresh UUID.
func New(originalQuery, translatedQuery, issueDescription string) (Item, error) {
	originalQuery = strings.TrimSpace(originalQuery)
	translatedQuery = strings.TrimSpace(translatedQuery)
	issueDescription = strings.TrimSpace(issueDescription)

	if originalQuery == "" {
		return Item{}, fmt.Errorf("original query is required")
	}
	if len(originalQuery) > MaxQueryLength {
		return Item{}, fmt.Errorf("original query too long (max %d chars)", MaxQueryLength)
	}
	if len(translatedQuery) > MaxQueryLength {
		return Item{}, fmt.Errorf("translated query too long (max %d chars)", MaxQueryLength)
	}
	if len(issueDescription) > MaxDescriptionLength {
		return Item{}, fmt.Errorf("issue description too long (max %d chars)", MaxDescriptionLength)
	}

	now := time.Now().UnixMilli()
	return Item{
		id:               uuid.NewString(),
		originalQuery:    originalQuery,
		translatedQuery:  translatedQuery,
		issueDescription: issueDescription,
		status:           StatusPending,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(
	id, originalQuery, translatedQuery, issueDescription string,
	status Status, generatedRuleID, reason string, createdAt, updatedAt int64,
) Item {
	return Item{
		id:               id,
		originalQuery:    originalQuery,
		translatedQuery:  translatedQuery,
		issueDescription: issueDescription,
		status:           status,
		generatedRuleID:  generatedRuleID,
		reason:           reason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ID returns the item identifier.
func (i Item) ID() string { return i.id }

// OriginalQuery returns the natural-language request the user made.
func (i Item) OriginalQuery() string { return i.originalQuery }

// TranslatedQuery returns the compiled query the user found wrong.
func (i Item) TranslatedQuery() string { return i.translatedQuery }

// IssueDescription returns the user's explanation.
func (i Item) IssueDescription() string { return i.issueDescription }

// Status returns the processing state.
func (i Item) Status() Status { return i.status }

// GeneratedRuleID returns the rule created or updated from this item.
func (i Item) GeneratedRuleID() string { return i.generatedRuleID }

// Reason returns the short human-readable outcome explanation.
func (i Item) Reason() string { return i.reason }

// CreatedAt returns the creation timestamp (unix millis).
func (i Item) CreatedAt() int64 { return i.createdAt }

// UpdatedAt returns the last transition timestamp (unix millis).
func (i Item) UpdatedAt() int64 { return i.updatedAt }
