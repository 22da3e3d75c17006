package request

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/cardquery/internal/domain/search/mode"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("t:creature", 0, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Page() != DefaultPage {
		t.Errorf("expected page %d, got %d", DefaultPage, r.Page())
	}
	if r.Unique() != mode.Cards {
		t.Errorf("expected unique %q, got %q", mode.Cards, r.Unique())
	}
	if r.Order() != "" {
		t.Errorf("expected empty order, got %q", r.Order())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		page   int
		order  string
		unique mode.Mode
	}{
		{"empty query", "", 1, "", ""},
		{"query too long", strings.Repeat("a", MaxQueryLength+1), 1, "", ""},
		{"page too high", "t:land", MaxPage + 1, "", ""},
		{"bad order", "t:land", 1, "popularity", ""},
		{"bad unique", "t:land", 1, "", "hybrid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.query, tt.page, tt.order, tt.unique); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNew_Valid(t *testing.T) {
	r, err := New("c=r t:creature", 3, "usd", mode.Prints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "c=r t:creature" || r.Page() != 3 || r.Order() != "usd" || r.Unique() != mode.Prints {
		t.Errorf("unexpected request: %+v", r)
	}
}
