package translate

import (
	"strings"
	"testing"
)

func TestCompile_RoundTrip(t *testing.T) {
	c := NewCompiler()
	got := c.Compile("5 mana mono red creature")

	tokens := strings.Fields(got.Query)
	for _, want := range []string{"t:creature", "mv=5", "c=r", "id=r"} {
		found := false
		for _, tok := range tokens {
			if tok == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Query %q is missing %s", got.Query, want)
		}
	}
	if got.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", got.Confidence)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("Warnings = %v", got.Warnings)
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Four mana rocks", "mv=4 otag:mana-rock"},
		{"Mono-Red Creatures", "c=r id=r t:creature"},
		{"cheap green ramp", "c:g usd<=1 otag:ramp"},
		{"non-creature artifacts with CMC 2 or less", "t:artifact -t:creature mv<=2"},
		{"red instants and sorceries", "c:r (t:instant or t:sorcery)"},
		{"Gruul EDH creatures", "id<=rg t:creature f:commander"},
		{"creatures under 35 cents", "t:creature usd<0.35"},
		{"creatures under 70 cents", "t:creature usd<0.7"},
		{"lands -type:land", "-t:land"},
	}
	c := NewCompiler()
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := c.Compile(tc.input).Query; got != tc.want {
				t.Errorf("Compile(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCompile_NameSearchHasLowConfidence(t *testing.T) {
	got := NewCompiler().Compile("Lightning Bolt")
	if got.Query != "lightning bolt" {
		t.Errorf("Query = %q", got.Query)
	}
	if got.Confidence != 0.2 {
		t.Errorf("Confidence = %v, want 0.2", got.Confidence)
	}
}

func TestCompile_Empty(t *testing.T) {
	got := NewCompiler().Compile("   ")
	if got.Query != "" || got.Confidence != 0 {
		t.Errorf("Compile(blank) = %+v", got)
	}
}

func TestCompile_ResidualLowersConfidence(t *testing.T) {
	got := NewCompiler().Compile("creature with purple hats")
	if got.Confidence >= 1 || got.Confidence <= 0.2 {
		t.Errorf("Confidence = %v, want between 0.2 and 1", got.Confidence)
	}
	if !strings.Contains(got.Query, `o:"purple hats"`) {
		t.Errorf("Query = %q", got.Query)
	}
}
