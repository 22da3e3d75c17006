package feedback

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/db/sqldb"
	"github.com/kailas-cloud/cardquery/internal/domain"
	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	fbrepo "github.com/kailas-cloud/cardquery/internal/repository/feedback"
	rulerepo "github.com/kailas-cloud/cardquery/internal/repository/rule"
)

type mockProposer struct {
	mu       sync.Mutex
	proposal domain.Proposal
	err      error
	block    bool
	requests []domain.ProposalRequest
}

func (m *mockProposer) Propose(ctx context.Context, req domain.ProposalRequest) (domain.Proposal, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return domain.Proposal{}, ctx.Err()
	}
	return m.proposal, m.err
}

func (m *mockProposer) last() domain.ProposalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

type mockCounter struct {
	n       int
	err     error
	queries []string
}

func (m *mockCounter) Count(_ context.Context, query string) (int, error) {
	m.queries = append(m.queries, query)
	return m.n, m.err
}

type mockRefresher struct {
	refreshed []domrule.Rule
	err       error
}

func (m *mockRefresher) Refresh(_ context.Context, rl domrule.Rule) error {
	m.refreshed = append(m.refreshed, rl)
	return m.err
}

type fixture struct {
	items     *fbrepo.Repo
	rules     *rulerepo.Repo
	proposer  *mockProposer
	counter   *mockCounter
	refresher *mockRefresher
	proc      *Processor
}

func newFixture(t *testing.T, cfg ProcessorConfig) *fixture {
	t.Helper()
	db := sqldb.OpenMemory(t)
	f := &fixture{
		items: fbrepo.New(db),
		rules: rulerepo.New(db),
		proposer: &mockProposer{proposal: domain.Proposal{
			Pattern:       "political goodstuff",
			CompiledQuery: "otag:politics",
			Confidence:    0.9,
			Description:   "cards that reward table politics",
		}},
		counter:   &mockCounter{n: 42},
		refresher: &mockRefresher{},
	}
	f.proc = NewProcessor(f.items, f.rules, f.proposer, f.counter, f.refresher, cfg, zap.NewNop())
	return f
}

func (f *fixture) submit(t *testing.T, query string) domfb.Item {
	t.Helper()
	it, err := domfb.New(query, "political goodstuff", "should use the politics tag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.items.Create(context.Background(), it); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return it
}

func (f *fixture) status(t *testing.T, id string) domfb.Item {
	t.Helper()
	it, err := f.items.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return it
}
