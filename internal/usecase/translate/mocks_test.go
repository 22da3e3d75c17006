package translate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/db/memory"
	"github.com/kailas-cloud/cardquery/internal/domain"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/search/request"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	cacherepo "github.com/kailas-cloud/cardquery/internal/repository/cache"
	pipeline "github.com/kailas-cloud/cardquery/internal/translate"
)

// --- Compiler ---

type countingCompiler struct {
	inner   *pipeline.Compiler
	calls   atomic.Int64
	delay   time.Duration
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newCountingCompiler() *countingCompiler {
	return &countingCompiler{inner: pipeline.NewCompiler()}
}

func (c *countingCompiler) Compile(input string) pipeline.Compiled {
	c.calls.Add(1)
	if c.started != nil {
		c.once.Do(func() { close(c.started) })
	}
	if c.release != nil {
		<-c.release
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.inner.Compile(input)
}

// --- RuleRepo ---

type mockRuleRepo struct {
	mu    sync.Mutex
	rules map[string]domrule.Rule
	hits  []string
	err   error
}

func newMockRuleRepo(rules ...domrule.Rule) *mockRuleRepo {
	m := &mockRuleRepo{rules: map[string]domrule.Rule{}}
	for _, rl := range rules {
		m.rules[rl.Pattern()] = rl
	}
	return m
}

func (m *mockRuleRepo) FindActiveByPattern(_ context.Context, pattern string) (domrule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domrule.Rule{}, m.err
	}
	if rl, ok := m.rules[pattern]; ok {
		return rl, nil
	}
	return domrule.Rule{}, domain.ErrNotFound
}

func (m *mockRuleRepo) FindActiveByKey(_ context.Context, key string) (domrule.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domrule.Rule{}, m.err
	}
	for _, rl := range m.rules {
		if rl.Key() == key {
			return rl, nil
		}
	}
	return domrule.Rule{}, domain.ErrNotFound
}

func (m *mockRuleRepo) ActivePatterns(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, 0, len(m.rules))
	for p := range m.rules {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRuleRepo) RecordHit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits = append(m.hits, id)
	return nil
}

// --- LogRepo ---

type mockLogRepo struct {
	mu      sync.Mutex
	entries []translation.LogEntry
}

func (m *mockLogRepo) Append(_ context.Context, e translation.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// --- Searcher ---

type mockSearcher struct {
	page result.Page
	err  error
	got  request.Request
}

func (m *mockSearcher) Search(_ context.Context, req request.Request) (result.Page, error) {
	m.got = req
	return m.page, m.err
}

// --- helpers ---

func mustRule(t *testing.T, pattern, compiled string) domrule.Rule {
	t.Helper()
	rl, err := domrule.New(pattern, compiled, 0.9, "", domrule.SourceFeedback, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rl
}

func newMemoryCache(t *testing.T) *cacherepo.Repo {
	t.Helper()
	ms, err := memory.NewStore(1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(ms.Close)
	return cacherepo.New(ms, nil, zap.NewNop())
}

type fixture struct {
	svc      *Service
	compiler *countingCompiler
	rules    *mockRuleRepo
	logs     *mockLogRepo
	searcher *mockSearcher
}

func newFixture(t *testing.T, cfg Config, rules ...domrule.Rule) *fixture {
	t.Helper()
	f := &fixture{
		compiler: newCountingCompiler(),
		rules:    newMockRuleRepo(rules...),
		logs:     &mockLogRepo{},
		searcher: &mockSearcher{},
	}
	matcher := NewRuleMatcher(f.rules, MatcherConfig{Fuzzy: true}, zap.NewNop())
	f.svc = New(f.compiler, newMemoryCache(t), matcher, f.logs, f.searcher, cfg, zap.NewNop())
	return f
}
