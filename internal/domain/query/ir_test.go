package query

import "testing"

func TestExcludeType_RemovesRequiredType(t *testing.T) {
	ir := New("")
	ir.AddType("creature")
	ir.AddType("land")
	ir.ExcludeType("land")

	if ir.HasType("land") {
		t.Error("land should no longer be required")
	}
	if !ir.IsExcluded("land") {
		t.Error("land should be excluded")
	}
	if len(ir.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", ir.Warnings)
	}
}

func TestAddType_RefusesExcluded(t *testing.T) {
	ir := New("")
	ir.ExcludeType("creature")
	if ir.AddType("creature") {
		t.Fatal("AddType should refuse an excluded type")
	}
	if ir.HasType("creature") {
		t.Error("creature must not be required")
	}
}

func TestAddNumeric_Dedup(t *testing.T) {
	ir := New("")
	n := NumericConstraint{Field: "mv", Operator: Eq, Value: 3}
	ir.AddNumeric(n)
	ir.AddNumeric(n)
	if len(ir.Numeric) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(ir.Numeric))
	}
	if !ir.HasNumeric("mv") {
		t.Error("HasNumeric(mv) = false")
	}
}

func TestExtracted(t *testing.T) {
	ir := New("anything")
	if ir.Extracted() {
		t.Fatal("fresh IR should report nothing extracted")
	}
	ir.AddTag("otag:ramp")
	if !ir.Extracted() {
		t.Fatal("IR with a tag should report extracted")
	}
}

func TestColorConstraint_Render(t *testing.T) {
	tests := []struct {
		name string
		c    ColorConstraint
		want string
	}{
		{"or", ColorConstraint{Values: []Color{Green, Red}, Operator: ColorOr}, "(c:r or c:g)"},
		{"and", ColorConstraint{Values: []Color{Green, White}, Operator: ColorAnd}, "c>=wg"},
		{"exact", ColorConstraint{Values: []Color{Black, Red}, Operator: ColorExact}, "c=br"},
		{"within identity", ColorConstraint{Values: []Color{Red, Green}, Mode: ModeIdentity, Operator: ColorWithin}, "id<=rg"},
		{"single or", ColorConstraint{Values: []Color{Blue}, Operator: ColorOr}, "c:u"},
		{"dedup", ColorConstraint{Values: []Color{Red, Red, Blue}, Operator: ColorExact}, "c=ur"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Render(); got != tc.want {
				t.Errorf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNumericConstraint_String(t *testing.T) {
	tests := []struct {
		n    NumericConstraint
		want string
	}{
		{NumericConstraint{Field: "mv", Operator: Eq, Value: 5}, "mv=5"},
		{NumericConstraint{Field: "usd", Operator: Lt, Value: 0.5}, "usd<0.5"},
		{NumericConstraint{Field: "pow", Operator: Ge, Value: 3}, "pow>=3"},
	}
	for _, tc := range tests {
		if got := tc.n.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
