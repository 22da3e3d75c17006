package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
)

// MatcherConfig tunes rule lookup.
type MatcherConfig struct {
	// Fuzzy enables near-match lookup against the active patterns.
	Fuzzy bool
	// MinRatio is the shortest query, as a share of the pattern length,
	// that may near-match it.
	MinRatio float64
	// Refresh is how long the pattern snapshot is reused.
	Refresh time.Duration
}

// RuleMatcher finds the learned rule for a normalized query: exact
// pattern first, then the order-independent key, then a near match.
type RuleMatcher struct {
	repo   RuleRepo
	cfg    MatcherConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	patterns []string
	loadedAt time.Time
}

// NewRuleMatcher creates a matcher.
func NewRuleMatcher(repo RuleRepo, cfg MatcherConfig, logger *zap.Logger) *RuleMatcher {
	if cfg.MinRatio <= 0 {
		cfg.MinRatio = 0.85
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = time.Minute
	}
	return &RuleMatcher{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// Match returns the rule for normalized, or false when none applies.
func (m *RuleMatcher) Match(ctx context.Context, normalized string) (domrule.Rule, bool, error) {
	rl, err := m.repo.FindActiveByPattern(ctx, normalized)
	if err == nil {
		return rl, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domrule.Rule{}, false, fmt.Errorf("find rule by pattern: %w", err)
	}

	rl, err = m.repo.FindActiveByKey(ctx, domrule.PatternKey(normalized))
	if err == nil {
		return rl, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domrule.Rule{}, false, fmt.Errorf("find rule by key: %w", err)
	}

	if !m.cfg.Fuzzy {
		return domrule.Rule{}, false, nil
	}
	pattern, ok := m.nearest(ctx, normalized)
	if !ok {
		return domrule.Rule{}, false, nil
	}
	rl, err = m.repo.FindActiveByPattern(ctx, pattern)
	switch {
	case err == nil:
		m.logger.Debug("Rule near match",
			zap.String("query", normalized), zap.String("pattern", pattern))
		return rl, true, nil
	case errors.Is(err, domain.ErrNotFound):
		// deactivated since the snapshot was taken
		m.Invalidate()
		return domrule.Rule{}, false, nil
	default:
		return domrule.Rule{}, false, fmt.Errorf("find near-match rule: %w", err)
	}
}

// Invalidate drops the pattern snapshot so the next lookup reloads it.
func (m *RuleMatcher) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

// nearest picks the best-scoring active pattern that contains the query
// as a subsequence, has the same number of words and is not much longer.
// Words carrying digits must match the pattern word in the same position.
func (m *RuleMatcher) nearest(ctx context.Context, normalized string) (string, bool) {
	patterns := m.snapshot(ctx)
	if len(patterns) == 0 {
		return "", false
	}

	words := strings.Fields(normalized)
	qlen := float64(utf8.RuneCountInString(normalized))
	for _, match := range fuzzy.Find(normalized, patterns) {
		if !numbersAlign(words, strings.Fields(match.Str)) {
			continue
		}
		if qlen < m.cfg.MinRatio*float64(utf8.RuneCountInString(match.Str)) {
			continue
		}
		return match.Str, true
	}
	return "", false
}

func numbersAlign(query, pattern []string) bool {
	if len(query) != len(pattern) {
		return false
	}
	for i, w := range query {
		if (hasDigit(w) || hasDigit(pattern[i])) && w != pattern[i] {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func (m *RuleMatcher) snapshot(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loadedAt.IsZero() && m.now().Sub(m.loadedAt) < m.cfg.Refresh {
		return m.patterns
	}
	patterns, err := m.repo.ActivePatterns(ctx)
	if err != nil {
		m.logger.Warn("Failed to load rule patterns, keeping previous snapshot", zap.Error(err))
		return m.patterns
	}
	m.patterns = patterns
	m.loadedAt = m.now()
	return m.patterns
}
