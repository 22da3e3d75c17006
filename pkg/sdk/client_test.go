package cardquery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/cardquery/pkg/fallback"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

// closedURL returns the address of a server that is no longer listening.
func closedURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"missing base url", nil},
		{"no scheme", []Option{WithBaseURL("cardquery.example")}},
		{"unsupported scheme", []Option{WithBaseURL("ftp://cardquery.example")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	var gotAuth string
	var gotBody translateBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, Translation{
			Query:      gotBody.Query,
			Compiled:   "c=r id=r t:creature mv=5",
			Confidence: 1,
			Source:     SourcePipeline,
		})
	}, WithAPIKey("api-secret-abcdefghijklmn"))

	lo := 1.0
	tr, err := c.Translate(context.Background(), "5 mana mono red creature",
		WithSession("sess-1"), WithFilters(Filters{Format: "modern", Price: &Range{Min: &lo}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Compiled != "c=r id=r t:creature mv=5" || tr.Source != SourcePipeline {
		t.Errorf("translation = %+v", tr)
	}
	if gotAuth != "Bearer api-secret-abcdefghijklmn" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.SessionID != "sess-1" || gotBody.Filters == nil || gotBody.Filters.Format != "modern" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestTranslate_FallbackWhenUnreachable(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(WithBaseURL(closedURL()), WithPrometheus(reg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const q = "mono red goblins"
	tr, err := c.Translate(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Source != SourceFallback {
		t.Errorf("source = %q, want %q", tr.Source, SourceFallback)
	}
	if tr.Compiled != fallback.Compile(q) {
		t.Errorf("compiled = %q, want %q", tr.Compiled, fallback.Compile(q))
	}
	if got := testutil.ToFloat64(c.obs.metrics.fallbacks.WithLabelValues("transport")); got != 1 {
		t.Errorf("fallback counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.obs.metrics.calls.WithLabelValues("translate", "ok")); got != 1 {
		t.Errorf("translate ok counter = %v, want 1", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&APIError{StatusCode: http.StatusTooManyRequests, Code: "rate_limited"}, "rate_limited"},
		{&APIError{StatusCode: http.StatusNotFound, Code: "not_found"}, "rejected"},
		{&APIError{StatusCode: http.StatusBadGateway, Code: "internal_error"}, "unavailable"},
		{&TransportError{Err: io.ErrUnexpectedEOF}, "unavailable"},
		{&APIError{StatusCode: http.StatusGatewayTimeout, Code: "upstream_timeout"}, "error"},
		{errors.New("decode"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTranslate_FallbackOnServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Code: "internal_error", Message: "not configured"})
	})

	tr, err := c.Translate(context.Background(), "Xyzzy Quux")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Source != SourceFallback || tr.Compiled != "Xyzzy Quux" {
		t.Errorf("translation = %+v", tr)
	}
}

func TestTranslate_WithoutFallback(t *testing.T) {
	c, err := New(WithBaseURL(closedURL()), WithoutFallback())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Translate(context.Background(), "goblins")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("err = %T, want *TransportError", err)
	}
}

func TestTranslate_NoFallbackOnCancel(t *testing.T) {
	c, err := New(WithBaseURL(closedURL()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Translate(ctx, "goblins"); err == nil {
		t.Fatal("expected error for a cancelled context")
	}
}

func TestTranslate_ClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      errorBody
		header    string
		wantErr   error
		wantRetry time.Duration
	}{
		{
			name:    "validation",
			status:  http.StatusBadRequest,
			body:    errorBody{Code: "validation_failed", Message: "query is required", Fields: []FieldError{{Field: "query", Kind: "missing"}}},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "too many params",
			status:  http.StatusBadRequest,
			body:    errorBody{Code: "too_many_params", Message: "too many query parameters"},
			wantErr: ErrTooManyParams,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      errorBody{Code: "rate_limited", Message: "rate limit exceeded (session)", RetryAfter: 3},
			wantErr:   ErrRateLimited,
			wantRetry: 3 * time.Second,
		},
		{
			name:      "retry header only",
			status:    http.StatusTooManyRequests,
			body:      errorBody{Code: "rate_limited"},
			header:    "7",
			wantErr:   ErrRateLimited,
			wantRetry: 7 * time.Second,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    errorBody{Code: "unauthorized", Message: "invalid credentials"},
			wantErr: ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.Translate(context.Background(), "goblins")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrUnavailable) {
				t.Error("client error must not count as unavailable")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %T, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.RetryAfter != tt.wantRetry {
				t.Errorf("api error = %+v", apiErr)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	var got searchBody
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, SearchPage{
			Translation: Translation{Compiled: "t:goblin"},
			Total:       1,
			Cards:       []Card{{Name: "Goblin Guide", SetCode: "zen"}},
		})
	})

	page, err := c.Search(context.Background(), "goblins", SearchOptions{Page: 2, Order: "usd"}, WithSession("s"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 || len(page.Cards) != 1 || page.Cards[0].SetCode != "zen" {
		t.Errorf("page = %+v", page)
	}
	if got.Query != "goblins" || got.Page != 2 || got.Order != "usd" || got.SessionID != "s" {
		t.Errorf("request body = %+v", got)
	}
}

func TestSearch_UpstreamErrors(t *testing.T) {
	tests := []struct {
		status  int
		code    string
		wantErr error
	}{
		{http.StatusTooManyRequests, "upstream_quota_exhausted", ErrUpstreamQuota},
		{http.StatusGatewayTimeout, "upstream_timeout", ErrUpstreamTimeout},
		{http.StatusBadGateway, "upstream_unavailable", ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, errorBody{Code: tt.code})
			})
			_, err := c.Search(context.Background(), "goblins", SearchOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearch_NoFallback(t *testing.T) {
	c, err := New(WithBaseURL(closedURL()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Search(context.Background(), "goblins", SearchOptions{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	const id = "0191f3a4-7c2e-7d3b-9a41-2b6c8d9e0f11"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/feedback":
			var fb Feedback
			_ = json.NewDecoder(r.Body).Decode(&fb)
			if fb.OriginalQuery != "political cards" {
				t.Errorf("feedback = %+v", fb)
			}
			writeJSON(w, http.StatusAccepted, FeedbackReceipt{ID: id, Status: "pending"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/feedback/"+id:
			writeJSON(w, http.StatusOK, FeedbackItem{ID: id, Status: "completed", GeneratedRuleID: "rule-1"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/feedback/process":
			writeJSON(w, http.StatusConflict, errorBody{Code: "feedback_not_pending"})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	receipt, err := c.SubmitFeedback(ctx, Feedback{OriginalQuery: "political cards"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.ID != id || receipt.Status != "pending" {
		t.Errorf("receipt = %+v", receipt)
	}

	item, err := c.GetFeedback(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status != "completed" || item.GeneratedRuleID != "rule-1" {
		t.Errorf("item = %+v", item)
	}

	if _, err := c.ProcessFeedback(ctx, id); !errors.Is(err, ErrFeedbackNotPending) {
		t.Errorf("err = %v, want ErrFeedbackNotPending", err)
	}
}

func TestRules(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []Rule{{ID: "r1", Pattern: "political cards", CompiledQuery: "otag:politics"}},
		})
	})

	rules, err := c.Rules(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].CompiledQuery != "otag:politics" {
		t.Errorf("rules = %+v", rules)
	}
	if gotQuery != "limit=10&offset=20" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestUsage(t *testing.T) {
	var gotPeriod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPeriod = r.URL.Query().Get("period")
		writeJSON(w, http.StatusOK, Usage{Period: "month", TokensUsed: 42})
	}, WithAPIKey("service-secret-0123456789"))

	u, err := c.Usage(context.Background(), "month")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPeriod != "month" || u.TokensUsed != 42 {
		t.Errorf("usage = %+v, period %q", u, gotPeriod)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus string
	}{
		{"ok", http.StatusOK, "ok"},
		{"unhealthy", http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, HealthStatus{Status: tt.wantStatus, Checks: map[string]string{"kv": "ok"}})
			})
			h, err := c.Health(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.Status != tt.wantStatus || h.Checks["kv"] != "ok" {
				t.Errorf("health = %+v", h)
			}
		})
	}
}

func TestOffline(t *testing.T) {
	tr := Offline("  Xyzzy Quux  ")
	if tr.Source != SourceFallback {
		t.Errorf("source = %q", tr.Source)
	}
	if tr.Compiled != "Xyzzy Quux" {
		t.Errorf("compiled = %q, want the trimmed literal name", tr.Compiled)
	}
	if !strings.Contains(Offline("mono red goblins").Compiled, "c=r") {
		t.Errorf("offline compile missed a color: %q", Offline("mono red goblins").Compiled)
	}
}
