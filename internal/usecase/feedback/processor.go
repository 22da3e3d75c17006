package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/metrics"
	"github.com/kailas-cloud/cardquery/internal/translate/normalize"
	"github.com/kailas-cloud/cardquery/internal/validate"
)

// ProcessorConfig tunes feedback processing.
type ProcessorConfig struct {
	// ConfidenceFloor is the lowest proposal confidence that becomes a rule.
	ConfidenceFloor float64
	// Timeout bounds one item end to end.
	Timeout time.Duration
	// ValidationFailOpen accepts proposals when the search API cannot be
	// reached. Queries the API rejects or that match nothing still fail.
	ValidationFailOpen bool
}

// Outcome is the terminal state of a processed item.
type Outcome struct {
	ID            string
	Status        domfb.Status
	RuleID        string
	Reason        string
	Pattern       string
	CompiledQuery string
}

// Processor turns one pending feedback item into a rule.
type Processor struct {
	items    Repo
	rules    RuleRepo
	proposer domain.Proposer
	counter  Counter
	cache    CacheRefresher
	cfg      ProcessorConfig
	logger   *zap.Logger
}

// NewProcessor creates a processor. counter and cache may be nil; without
// a counter proposals are not validated live.
func NewProcessor(
	items Repo, rules RuleRepo, proposer domain.Proposer,
	counter Counter, cache CacheRefresher, cfg ProcessorConfig, logger *zap.Logger,
) *Processor {
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = 0.7
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Processor{
		items:    items,
		rules:    rules,
		proposer: proposer,
		counter:  counter,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

// Process claims a pending item, asks for a rule, validates it and
// records the outcome. Domain outcomes (skipped, failed, duplicate) are
// returned as an Outcome, not an error.
func (p *Processor) Process(ctx context.Context, id string) (Outcome, error) {
	if !domfb.ValidID(id) {
		return Outcome{}, invalidID()
	}
	it, err := p.items.Get(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("get feedback %s: %w", id, err)
	}
	claimed, err := p.items.Claim(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !claimed {
		return Outcome{}, fmt.Errorf("feedback %s is %s: %w", id, it.Status(), domain.ErrFeedbackNotPending)
	}

	workCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	out, decideErr := p.decide(workCtx, it)
	cancel()

	out.ID = id
	if decideErr != nil {
		out.Status = domfb.StatusFailed
		out.RuleID = ""
		if errors.Is(decideErr, context.DeadlineExceeded) {
			out.Reason = fmt.Sprintf("processing exceeded %s", p.cfg.Timeout)
		} else {
			out.Reason = "internal error"
		}
		p.logger.Error("Feedback processing failed",
			zap.String("feedback_id", id), zap.Error(decideErr))
	}

	// finish even when the caller's context is gone so the item never stays claimed
	finishCtx, cancelFinish := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancelFinish()
	ok, err := p.items.Finish(finishCtx, id, out.Status, out.RuleID, out.Reason)
	if err != nil {
		return out, fmt.Errorf("finish feedback %s: %w", id, err)
	}
	if !ok {
		cur, err := p.items.Get(finishCtx, id)
		if err == nil {
			out.Status, out.RuleID, out.Reason = cur.Status(), cur.GeneratedRuleID(), cur.Reason()
		}
		p.logger.Warn("Feedback item finished elsewhere", zap.String("feedback_id", id),
			zap.String("status", string(out.Status)))
	}

	metrics.FeedbackOutcomesTotal.WithLabelValues(string(out.Status)).Inc()
	p.logger.Info("Feedback processed",
		zap.String("feedback_id", id),
		zap.String("status", string(out.Status)),
		zap.String("rule_id", out.RuleID),
		zap.String("reason", out.Reason),
	)
	if decideErr != nil && !errors.Is(decideErr, context.DeadlineExceeded) {
		return out, decideErr
	}
	return out, nil
}

// ProcessPending processes up to limit of the oldest pending items.
func (p *Processor) ProcessPending(ctx context.Context, limit int) ([]Outcome, error) {
	ids, err := p.items.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := p.Process(ctx, id)
		if errors.Is(err, domain.ErrFeedbackNotPending) {
			continue
		}
		if err != nil {
			p.logger.Warn("Skipping feedback item", zap.String("feedback_id", id), zap.Error(err))
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (p *Processor) decide(ctx context.Context, it domfb.Item) (Outcome, error) {
	normalized := normalize.Normalize(it.OriginalQuery())

	prior, err := p.items.CountByPattern(ctx, it.OriginalQuery(), it.ID())
	if err != nil {
		return Outcome{}, err
	}
	retry := prior > 0

	existing, found, err := p.findRule(ctx, normalized)
	if err != nil {
		return Outcome{}, err
	}
	req := domain.ProposalRequest{
		OriginalQuery:    it.OriginalQuery(),
		NormalizedQuery:  normalized,
		TranslatedQuery:  it.TranslatedQuery(),
		IssueDescription: it.IssueDescription(),
		Retry:            retry,
	}
	if found {
		req.ExistingQuery = existing.CompiledQuery()
	}

	prop, err := p.proposer.Propose(ctx, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Outcome{}, err
	case errors.Is(err, domain.ErrGenerationQuotaExceeded):
		return failed("generation budget exhausted"), nil
	case err != nil:
		return failed("rule generation failed"), nil
	}

	pattern := normalize.Normalize(prop.Pattern)
	if pattern == "" {
		pattern = normalized
	}
	out := Outcome{Pattern: pattern, CompiledQuery: prop.CompiledQuery}

	switch {
	case prop.CompiledQuery == "":
		return withStatus(out, domfb.StatusFailed, "empty proposal"), nil
	case validate.LooksInjected(prop.CompiledQuery):
		return withStatus(out, domfb.StatusFailed, "proposal contains disallowed content"), nil
	case prop.Confidence < p.cfg.ConfidenceFloor:
		return withStatus(out, domfb.StatusSkipped,
			fmt.Sprintf("confidence %.2f below floor %.2f", prop.Confidence, p.cfg.ConfidenceFloor)), nil
	}

	if reason, ok, err := p.validateLive(ctx, prop.CompiledQuery); err != nil {
		return out, err
	} else if !ok {
		return withStatus(out, domfb.StatusFailed, reason), nil
	}

	if pattern != normalized {
		existing, found, err = p.findRule(ctx, pattern)
		if err != nil {
			return out, err
		}
	}
	if found {
		if !retry {
			out.RuleID = existing.ID()
			return withStatus(out, domfb.StatusDuplicate, "an active rule already covers this pattern"), nil
		}
		if err := p.rules.Update(ctx, existing.ID(), prop.CompiledQuery, prop.Confidence, prop.Description, it.ID()); err != nil {
			return out, err
		}
		p.refresh(ctx, existing.ID())
		out.RuleID = existing.ID()
		return withStatus(out, domfb.StatusUpdatedExisting, "replaced the rule from earlier feedback"), nil
	}

	rl, err := domrule.New(pattern, prop.CompiledQuery, prop.Confidence, prop.Description, domrule.SourceFeedback, it.ID())
	if err != nil {
		return withStatus(out, domfb.StatusFailed, "invalid proposal"), nil
	}
	if err := p.rules.Insert(ctx, rl); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return withStatus(out, domfb.StatusDuplicate, "an active rule already covers this pattern"), nil
		}
		return out, err
	}
	p.refresh(ctx, rl.ID())
	out.RuleID = rl.ID()
	return withStatus(out, domfb.StatusCompleted, "rule created"), nil
}

// validateLive runs the proposal upstream. It reports a failure reason, or
// an error when the item as a whole has run out of time.
func (p *Processor) validateLive(ctx context.Context, query string) (string, bool, error) {
	if p.counter == nil {
		return "", true, nil
	}
	_, err := p.counter.Count(ctx, query)
	switch {
	case err == nil:
		return "", true, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		return "", false, ctx.Err()
	case errors.Is(err, domain.ErrUpstreamNoResults):
		return "proposed query matches no cards", false, nil
	case errors.Is(err, domain.ErrInvalidInput):
		return "proposed query was rejected by the search API", false, nil
	case p.cfg.ValidationFailOpen:
		p.logger.Warn("Live validation unavailable, accepting proposal", zap.Error(err))
		return "", true, nil
	default:
		return "live validation unavailable", false, nil
	}
}

// findRule looks a rule up by exact pattern, then by pattern key.
func (p *Processor) findRule(ctx context.Context, pattern string) (domrule.Rule, bool, error) {
	rl, err := p.rules.FindActiveByPattern(ctx, pattern)
	if errors.Is(err, domain.ErrNotFound) {
		rl, err = p.rules.FindActiveByKey(ctx, domrule.PatternKey(pattern))
	}
	switch {
	case err == nil:
		return rl, true, nil
	case errors.Is(err, domain.ErrNotFound):
		return domrule.Rule{}, false, nil
	default:
		return domrule.Rule{}, false, fmt.Errorf("find rule: %w", err)
	}
}

func (p *Processor) refresh(ctx context.Context, ruleID string) {
	if p.cache == nil {
		return
	}
	rl, err := p.rules.Get(ctx, ruleID)
	if err == nil {
		err = p.cache.Refresh(ctx, rl)
	}
	if err != nil {
		p.logger.Warn("Failed to refresh cache after rule commit", zap.String("rule_id", ruleID), zap.Error(err))
	}
}

func failed(reason string) Outcome {
	return Outcome{Status: domfb.StatusFailed, Reason: reason}
}

func withStatus(out Outcome, status domfb.Status, reason string) Outcome {
	out.Status = status
	out.Reason = reason
	return out
}
