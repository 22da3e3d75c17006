package usage

import domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"

// BudgetReader reads generation token counters for the current day or
// month. Remaining is -1 when the period is unlimited.
type BudgetReader interface {
	Limit(period domusage.Period) int64
	Used(period domusage.Period) int64
	Remaining(period domusage.Period) int64
}
