// Package feedback turns user corrections into learned rules.
package feedback

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	"github.com/kailas-cloud/cardquery/internal/validate"
)

// SubmitRequest is a user-reported translation problem.
type SubmitRequest struct {
	OriginalQuery    string
	TranslatedQuery  string
	IssueDescription string
}

// Service accepts feedback submissions.
type Service struct {
	repo   Repo
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New creates a feedback service.
func New(repo Repo, logger *zap.Logger) *Service {
	return &Service{repo: repo, policy: bluemonday.StrictPolicy(), logger: logger}
}

// Submit validates, sanitizes and stores a pending feedback item.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (domfb.Item, error) {
	err := new(validate.Validator).
		String("originalQuery", req.OriginalQuery,
			validate.Required(), validate.MaxLen(domfb.MaxQueryLength), validate.NoInjection()).
		Optional("translatedQuery", req.TranslatedQuery,
			validate.MaxLen(domfb.MaxQueryLength), validate.NoInjection()).
		Optional("issueDescription", req.IssueDescription,
			validate.MaxLen(domfb.MaxDescriptionLength)).
		Err()
	if err != nil {
		return domfb.Item{}, err
	}

	it, err := domfb.New(req.OriginalQuery, req.TranslatedQuery, s.sanitize(req.IssueDescription))
	if err != nil {
		return domfb.Item{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return domfb.Item{}, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.Info("Feedback submitted",
		zap.String("feedback_id", it.ID()),
		zap.String("original_query", it.OriginalQuery()),
	)
	return it, nil
}

// Get returns a feedback item by id.
func (s *Service) Get(ctx context.Context, id string) (domfb.Item, error) {
	if !domfb.ValidID(id) {
		return domfb.Item{}, invalidID()
	}
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domfb.Item{}, fmt.Errorf("get feedback %s: %w", id, err)
	}
	return it, nil
}

// sanitize strips markup and returns plain text.
func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

func invalidID() error {
	return new(validate.Validator).
		Add(validate.FieldError{Field: "feedbackId", Kind: validate.KindFormat, Msg: "must be a UUID"}).
		Err()
}
