package query

import (
	"sort"
	"strings"
)

// Color is a single-letter color code of the search syntax.
type Color string

// Color codes.
const (
	White     Color = "w"
	Blue      Color = "u"
	Black     Color = "b"
	Red       Color = "r"
	Green     Color = "g"
	Colorless Color = "c"
)

// wubrg is the canonical color order used when joining codes.
const wubrg = "wubrgc"

// ColorMode selects the searched field.
type ColorMode int

// Color modes.
const (
	ModeColor ColorMode = iota
	ModeIdentity
)

// Field returns the search field for the mode.
func (m ColorMode) Field() string {
	if m == ModeIdentity {
		return "id"
	}
	return "c"
}

// ColorOperator combines several colors.
type ColorOperator int

// Color operators.
const (
	// ColorOr matches any of the colors.
	ColorOr ColorOperator = iota
	// ColorAnd matches cards containing all of the colors (more allowed).
	ColorAnd
	// ColorExact matches exactly the colors.
	ColorExact
	// ColorWithin matches cards whose colors are a subset of the values.
	ColorWithin
)

// ColorConstraint is an explicit multi-color clause.
type ColorConstraint struct {
	Values   []Color
	Mode     ColorMode
	Operator ColorOperator
}

// Render returns the clause in search syntax.
func (c ColorConstraint) Render() string {
	values := SortColors(c.Values)
	field := c.Mode.Field()
	switch c.Operator {
	case ColorOr:
		if len(values) == 1 {
			return field + ":" + string(values[0])
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = field + ":" + string(v)
		}
		return "(" + strings.Join(parts, " or ") + ")"
	case ColorAnd:
		return field + ">=" + JoinColors(values)
	case ColorWithin:
		return field + "<=" + JoinColors(values)
	default:
		return field + "=" + JoinColors(values)
	}
}

// SortColors returns the colors deduplicated in WUBRG order.
func SortColors(colors []Color) []Color {
	seen := make(map[Color]bool, len(colors))
	out := make([]Color, 0, len(colors))
	for _, c := range colors {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.Index(wubrg, string(out[i])) < strings.Index(wubrg, string(out[j]))
	})
	return out
}

// JoinColors concatenates color codes, e.g. [r g] -> "rg".
func JoinColors(colors []Color) string {
	var b strings.Builder
	for _, c := range colors {
		b.WriteString(string(c))
	}
	return b.String()
}
