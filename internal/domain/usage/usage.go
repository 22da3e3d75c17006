// Package usage describes generation token consumption for a period.
package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod parses a period name; empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q (want day or month)", s)
	}
}

// Budget is a token budget snapshot. A zero limit means unlimited.
type Budget struct {
	TokensLimit     int64
	TokensRemaining int64
	ResetsAt        int64 // unix millis
}

// Exhausted reports whether a limited budget is spent.
func (b Budget) Exhausted() bool {
	return b.TokensLimit > 0 && b.TokensRemaining <= 0
}

// Report is rule generation usage for one provider and period.
type Report struct {
	period      Period
	periodStart int64
	periodEnd   int64
	provider    string
	tokensUsed  int64
	budget      Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end int64, provider string, tokensUsed int64, b Budget) Report {
	return Report{
		period:      period,
		periodStart: start,
		periodEnd:   end,
		provider:    provider,
		tokensUsed:  tokensUsed,
		budget:      b,
	}
}

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// PeriodStart returns the period start timestamp (unix millis).
func (r Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end timestamp (unix millis).
func (r Report) PeriodEnd() int64 { return r.periodEnd }

// Provider returns the generation provider name.
func (r Report) Provider() string { return r.provider }

// TokensUsed returns tokens consumed in the period.
func (r Report) TokensUsed() int64 { return r.tokensUsed }

// Budget returns the budget status.
func (r Report) Budget() Budget { return r.budget }
