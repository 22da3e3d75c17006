package rule

import "testing"

func TestNew_Valid(t *testing.T) {
	r, err := New("cheap ramp", "otag:ramp usd<1", 0.9, "ramp under a dollar", SourceFeedback, "fb-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID() == "" {
		t.Error("expected generated id")
	}
	if !r.Active() {
		t.Error("new rule should be active")
	}
	if r.Key() != "cheap ramp" {
		t.Errorf("Key() = %q", r.Key())
	}
	if r.SourceFeedbackID() != "fb-1" {
		t.Errorf("SourceFeedbackID() = %q", r.SourceFeedbackID())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		query      string
		confidence float64
		source     Source
	}{
		{"empty pattern", "  ", "t:creature", 0.5, SourceMiner},
		{"empty query", "red creature", "", 0.5, SourceMiner},
		{"confidence high", "red creature", "c=r", 1.5, SourceMiner},
		{"confidence negative", "red creature", "c=r", -0.1, SourceMiner},
		{"bad source", "red creature", "c=r", 0.5, Source("import")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.pattern, tc.query, tc.confidence, "", tc.source, ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPatternKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"red creature", "creature red"},
		{"creature red", "creature red"},
		{"  Creature   RED red ", "creature red"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := PatternKey(tc.in); got != tc.want {
			t.Errorf("PatternKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
