package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
	}{
		{"local", "", false},
		{"prod", "warn", false},
		{"test", "", false},
		{"staging", "", true},
		{"local", "loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l == nil {
				t.Fatal("nil logger")
			}
		})
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zap.WarnLevel) {
		t.Error("warn enabled despite error level override")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background(), nil) == nil {
		t.Fatal("missing logger must fall back to a no-op logger")
	}
	fallback := zap.NewExample()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("missing logger must fall back to the given logger")
	}
	want := zap.NewExample()
	if got := FromContext(ContextWithLogger(context.Background(), want), fallback); got != want {
		t.Error("logger not round-tripped through context")
	}
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = WithFields(ctx, zap.String("principal", "key:abc"))
	FromContext(ctx, nil).Info("handled")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["principal"]; got != "key:abc" {
		t.Errorf("principal field = %v", got)
	}

	bare := context.Background()
	if WithFields(bare, zap.String("k", "v")) != bare {
		t.Error("context without a logger must be returned unchanged")
	}
}
