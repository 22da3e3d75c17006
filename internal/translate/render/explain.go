package render

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

var colorNames = map[query.Color]string{
	query.White:     "white",
	query.Blue:      "blue",
	query.Black:     "black",
	query.Red:       "red",
	query.Green:     "green",
	query.Colorless: "colorless",
}

var fieldNames = map[string]string{
	"mv":  "mana value",
	"pow": "power",
	"tou": "toughness",
	"loy": "loyalty",
	"usd": "price (USD)",
	"eur": "price (EUR)",
	"tix": "price (tix)",
	"c":   "number of colors",
	"id":  "number of identity colors",
}

// Explain describes the IR in plain words, one clause per constraint kind.
func Explain(ir *query.IR) string {
	var parts []string

	if c := explainColor(ir); c != "" {
		parts = append(parts, c)
	}
	if len(ir.Types) > 0 || len(ir.Subtypes) > 0 {
		parts = append(parts, "type: "+strings.Join(append(append([]string(nil), ir.Types...), ir.Subtypes...), ", "))
	}
	if len(ir.ExcludedTypes) > 0 {
		parts = append(parts, "not: "+strings.Join(ir.ExcludedTypes, ", "))
	}
	for _, n := range ir.Numeric {
		parts = append(parts, explainNumeric(n))
	}
	if ir.ColorCount != nil {
		parts = append(parts, explainNumeric(*ir.ColorCount))
	}
	if len(ir.Tags) > 0 || len(ir.ArtTags) > 0 {
		var tags []string
		for _, t := range append(append([]string(nil), ir.Tags...), ir.ArtTags...) {
			_, name, _ := strings.Cut(t, ":")
			tags = append(tags, name)
		}
		parts = append(parts, "tagged: "+strings.Join(tags, ", "))
	}
	if len(ir.Specials) > 0 {
		parts = append(parts, "also: "+strings.Join(ir.Specials, ", "))
	}
	if len(ir.Oracle) > 0 {
		parts = append(parts, "text: "+strings.Join(ir.Oracle, ", "))
	}

	if len(parts) == 0 {
		return "no constraints"
	}
	return strings.Join(parts, "; ")
}

func explainColor(ir *query.IR) string {
	if ir.MonoColor != nil {
		return "color: mono " + colorNames[*ir.MonoColor]
	}
	if ir.ColorConstraint == nil {
		return ""
	}
	c := ir.ColorConstraint
	names := make([]string, 0, len(c.Values))
	for _, v := range query.SortColors(c.Values) {
		names = append(names, colorNames[v])
	}
	label := "color"
	if c.Mode == query.ModeIdentity {
		label = "color identity"
	}
	switch c.Operator {
	case query.ColorOr:
		return fmt.Sprintf("%s: %s", label, strings.Join(names, " or "))
	case query.ColorAnd:
		return fmt.Sprintf("%s: at least %s", label, strings.Join(names, " and "))
	case query.ColorWithin:
		return fmt.Sprintf("%s: within %s", label, strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s: exactly %s", label, strings.Join(names, " and "))
	}
}

func explainNumeric(n query.NumericConstraint) string {
	name, ok := fieldNames[n.Field]
	if !ok {
		name = n.Field
	}
	return fmt.Sprintf("%s %s %s", name, n.Operator, strings.TrimPrefix(n.String(), n.Field+string(n.Operator)))
}
