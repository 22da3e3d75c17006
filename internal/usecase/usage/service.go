package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
)

// Service reports generation token usage against the configured budget.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (no budget configured).
func New(br BudgetReader, provider string) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the given period. Unknown periods
// report the current day.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := bounds(period, s.now().UTC())
	if period != domusage.PeriodMonth {
		period = domusage.PeriodDay
	}

	b := domusage.Budget{ResetsAt: end.UnixMilli()}
	var used int64
	if s.br != nil {
		b.TokensLimit = s.br.Limit(period)
		b.TokensRemaining = s.br.Remaining(period)
		used = s.br.Used(period)
	}
	return domusage.NewReport(period, start.UnixMilli(), end.UnixMilli(), s.provider, used, b)
}

func bounds(period domusage.Period, now time.Time) (time.Time, time.Time) {
	if period == domusage.PeriodMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
