package feedback

import (
	"strings"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusUpdatedExisting, true},
		{StatusProcessing, StatusPending, false},
		{StatusProcessing, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
	}
	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	item, err := New("  cheap green ramp ", "c=g", "should use the ramp tag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Status() != StatusPending {
		t.Errorf("status = %s, want pending", item.Status())
	}
	if item.OriginalQuery() != "cheap green ramp" {
		t.Errorf("OriginalQuery() = %q", item.OriginalQuery())
	}
	if !ValidID(item.ID()) {
		t.Errorf("generated id %q is not a UUID", item.ID())
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New("", "x", "y"); err == nil {
		t.Error("expected error for empty original query")
	}
	if _, err := New(strings.Repeat("a", MaxQueryLength+1), "", ""); err == nil {
		t.Error("expected error for long original query")
	}
	if _, err := New("ok", "", strings.Repeat("a", MaxDescriptionLength+1)); err == nil {
		t.Error("expected error for long description")
	}
}

func TestValidID(t *testing.T) {
	if !ValidID("0190c7a2-7d5e-7a8b-9c1d-2e3f4a5b6c7d") {
		t.Error("expected valid uuid")
	}
	for _, bad := range []string{"", "not-a-uuid", "0190c7a2-7d5e-7a8b-9c1d-2e3f4a5b6c7", "0190c7a2-7d5e-7a8b-9c1d-2e3f4a5b6c7d' OR 1=1"} {
		if ValidID(bad) {
			t.Errorf("ValidID(%q) = true", bad)
		}
	}
}
