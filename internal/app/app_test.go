package app

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/config"
	"github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
	"github.com/kailas-cloud/cardquery/internal/repository/translog"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	translateuc "github.com/kailas-cloud/cardquery/internal/usecase/translate"
)

func testConfig() config.Config {
	cfg := config.Config{
		Database: config.DatabaseConfig{Driver: "memory", MemorySize: 1024},
		SQL:      config.SQLConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1},
		Search:   config.SearchConfig{BaseURL: "http://127.0.0.1:1"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNew_TranslateEndToEnd(t *testing.T) {
	a := newTestApp(t, testConfig())
	ctx := context.Background()

	first, err := a.Translator.Translate(ctx, translateuc.Request{Query: "mono red creatures"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Compiled == "" || first.Cached {
		t.Fatalf("first = %+v, want a fresh compiled query", first)
	}

	second, err := a.Translator.Translate(ctx, translateuc.Request{Query: "Mono red creatures"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || second.Compiled != first.Compiled {
		t.Errorf("second = %+v, want cached %q", second, first.Compiled)
	}

	entries, err := translog.New(a.SQL).ListSince(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("logged %d translations, want 2", len(entries))
	}
}

func TestNew_FeedbackWithoutProvider(t *testing.T) {
	a := newTestApp(t, testConfig())

	if a.Processor != nil {
		t.Error("processor should be nil without a generation provider")
	}
	if a.Services().Processor != nil {
		t.Error("Services().Processor should be a nil interface")
	}

	it, err := a.Feedback.Submit(context.Background(), feedbackuc.SubmitRequest{
		OriginalQuery:    "cheap green ramp",
		IssueDescription: "should include mana rocks",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Status() != feedback.StatusPending {
		t.Errorf("status = %q, want pending", it.Status())
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown kv driver", func(c *config.Config) { c.Database.Driver = "etcd" }},
		{"unknown sql driver", func(c *config.Config) { c.SQL.Driver = "mysql" }},
		{"unknown provider", func(c *config.Config) { c.Generation.Provider = "llama" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			a, err := New(context.Background(), cfg, zap.NewNop())
			if err == nil {
				a.Close()
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_OpenAIProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Generation.Provider = "openai"
	cfg.Generation.APIKey = "sk-test"
	cfg.Generation.Model = "gpt-4o-mini"
	cfg.Generation.Budget.DailyTokenLimit = 1000

	a := newTestApp(t, cfg)
	if a.Processor == nil {
		t.Fatal("processor should be wired when a provider is configured")
	}
	report := a.Usage.GetReport(context.Background(), domusage.PeriodDay)
	if report.Provider() != "openai" {
		t.Errorf("provider = %q", report.Provider())
	}
}
