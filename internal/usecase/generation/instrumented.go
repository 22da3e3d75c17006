// Package generation guards the rule proposer with a token budget and
// records its usage.
package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedProposer wraps a Proposer with budget enforcement and a
// per-call timeout. Transport metrics are recorded by the provider clients.
type InstrumentedProposer struct {
	inner    domain.Proposer
	provider string
	model    string
	timeout  time.Duration
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedProposer wraps a proposer. budget may be nil; a zero
// timeout leaves the caller's deadline in charge.
func NewInstrumentedProposer(
	inner domain.Proposer, provider, model string, timeout time.Duration,
	budget BudgetChecker, logger *zap.Logger,
) *InstrumentedProposer {
	return &InstrumentedProposer{
		inner:    inner,
		provider: provider,
		model:    model,
		timeout:  timeout,
		budget:   budget,
		logger:   logger,
	}
}

// Propose checks the budget, delegates and records token usage.
func (p *InstrumentedProposer) Propose(ctx context.Context, req domain.ProposalRequest) (domain.Proposal, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Generation budget exceeded",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.Proposal{}, fmt.Errorf("budget check: %w", err)
		}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	prop, err := p.inner.Propose(ctx, req)
	duration := time.Since(start)
	if err != nil {
		p.logger.Error("Rule proposal failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.Proposal{}, fmt.Errorf("propose: %w", err)
	}

	if p.budget != nil && prop.TotalTokens > 0 {
		p.budget.Record(int64(prop.TotalTokens))
		remaining := metrics.GenerationBudgetTokensRemaining
		remaining.WithLabelValues(p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
		remaining.WithLabelValues(p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
	}

	p.logger.Debug("Rule proposal completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.String("pattern", prop.Pattern),
		zap.Float64("confidence", prop.Confidence),
		zap.Int("total_tokens", prop.TotalTokens),
	)
	return prop, nil
}
