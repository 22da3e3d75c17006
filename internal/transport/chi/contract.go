package chi

import (
	"context"

	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/cardquery/internal/usecase/health"
	mineruc "github.com/kailas-cloud/cardquery/internal/usecase/miner"
	translateuc "github.com/kailas-cloud/cardquery/internal/usecase/translate"
)

// Translator compiles requests and proxies searches.
type Translator interface {
	Translate(ctx context.Context, req translateuc.Request) (translation.Result, error)
	Search(ctx context.Context, req translateuc.SearchRequest) (translateuc.SearchResult, error)
}

// Feedback accepts and reads feedback items.
type Feedback interface {
	Submit(ctx context.Context, req feedbackuc.SubmitRequest) (domfb.Item, error)
	Get(ctx context.Context, id string) (domfb.Item, error)
}

// Processor processes one feedback item.
type Processor interface {
	Process(ctx context.Context, id string) (feedbackuc.Outcome, error)
}

// Miner runs the pattern miner.
type Miner interface {
	Run(ctx context.Context) (mineruc.Report, error)
}

// RuleLister pages through active rules.
type RuleLister interface {
	ListActive(ctx context.Context, limit, offset int) ([]domrule.Rule, error)
}

// Limiter admits or rejects a request.
type Limiter interface {
	Allow(ctx context.Context, key, session string) error
}

// UsageReporter reports generation usage.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthChecker aggregates dependency checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
