package miner

import (
	"context"
	"time"

	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
)

// LogReader reads recent translations.
type LogReader interface {
	ListSince(ctx context.Context, since time.Time, limit int) ([]translation.LogEntry, error)
}

// RuleRepo lists existing patterns and stores promoted rules.
type RuleRepo interface {
	ActivePatterns(ctx context.Context) ([]string, error)
	InsertMany(ctx context.Context, rules []domrule.Rule) (int, error)
}

// Counter runs a compiled query against the card database.
type Counter interface {
	Count(ctx context.Context, query string) (int, error)
}
