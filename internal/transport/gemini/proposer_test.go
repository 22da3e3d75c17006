package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterGenerationMetrics()
	os.Exit(m.Run())
}

func TestNewProposer_RequiresKey(t *testing.T) {
	if _, err := NewProposer(context.Background(), &Config{Logger: zap.NewNop()}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestProposer_Propose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{{
						"text": `{"pattern":"political goodstuff","compiled_query":"otag:politics","confidence":0.85}`,
					}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 70, "totalTokenCount": 95},
		})
	}))
	defer server.Close()

	p, err := NewProposer(context.Background(), &Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "gemini",
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prop, err := p.Propose(context.Background(), domain.ProposalRequest{OriginalQuery: "political goodstuff"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prop.CompiledQuery != "otag:politics" || prop.Confidence != 0.85 {
		t.Errorf("unexpected proposal: %+v", prop)
	}
	if prop.TotalTokens != 95 {
		t.Errorf("expected 95 total tokens, got %d", prop.TotalTokens)
	}
}

func TestProposer_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p, err := NewProposer(context.Background(), &Config{
		APIKey: "test-key", BaseURL: server.URL, Model: "test-model", Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = p.Propose(context.Background(), domain.ProposalRequest{OriginalQuery: "ramp"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}
