package extract

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

var colorWords = map[string]query.Color{
	"white": query.White,
	"blue":  query.Blue,
	"black": query.Black,
	"red":   query.Red,
	"green": query.Green,
}

// Named color combinations (guilds, shards and wedges).
var colorGroups = map[string][]query.Color{
	"azorius":  {query.White, query.Blue},
	"dimir":    {query.Blue, query.Black},
	"rakdos":   {query.Black, query.Red},
	"gruul":    {query.Red, query.Green},
	"selesnya": {query.Green, query.White},
	"orzhov":   {query.White, query.Black},
	"izzet":    {query.Blue, query.Red},
	"golgari":  {query.Black, query.Green},
	"boros":    {query.Red, query.White},
	"simic":    {query.Green, query.Blue},
	"esper":    {query.White, query.Blue, query.Black},
	"grixis":   {query.Blue, query.Black, query.Red},
	"jund":     {query.Black, query.Red, query.Green},
	"naya":     {query.Red, query.Green, query.White},
	"bant":     {query.Green, query.White, query.Blue},
	"abzan":    {query.White, query.Black, query.Green},
	"jeskai":   {query.Blue, query.Red, query.White},
	"sultai":   {query.Black, query.Green, query.Blue},
	"mardu":    {query.Red, query.White, query.Black},
	"temur":    {query.Green, query.Blue, query.Red},
	"wubrg":    {query.White, query.Blue, query.Black, query.Red, query.Green},
	"rainbow":  {query.White, query.Blue, query.Black, query.Red, query.Green},
}

var (
	colorAlt = alternation(keys(colorWords))

	monoRegex   = regexp.MustCompile(`\bmono[- ]?(` + colorAlt + `|colorless)\b`)
	groupRegex  = regexp.MustCompile(`\b(` + alternation(keys(colorGroups)) + `)\b`)
	colorOrRe   = regexp.MustCompile(`\b(` + colorAlt + `)((?:\s+or\s+(?:` + colorAlt + `))+)\b(\s+mana\b)?`)
	colorAndRe  = regexp.MustCompile(`\b(` + colorAlt + `)((?:(?:\s+and\s+|-)(?:` + colorAlt + `))+)\b(\s+mana\b)?`)
	singleColor = regexp.MustCompile(`\b(` + colorAlt + `|colorless)\b(\s+mana\b)?`)
	colorWord   = regexp.MustCompile(colorAlt)

	multicolorRegex = regexp.MustCompile(`\bmulticolored\b`)
	monocolorRegex  = regexp.MustCompile(`\bmonocolored\b`)
	colorCountRegex = regexp.MustCompile(`\b(\d)\s*-?\s*colou?r(?:ed|s)?\b`)
)

// Colors recognizes color expressions: mono-color, named combinations,
// "X or Y", "X and Y" / "X-Y", color counts and lone color words. Color
// words followed by "mana" are left for mana production.
func Colors(rest string, ir *query.IR) string {
	rest = consume(rest, monoRegex, func(m []string) bool {
		c := query.Colorless
		if m[1] != "colorless" {
			c = colorWords[m[1]]
		}
		if ir.MonoColor != nil || ir.ColorConstraint != nil {
			ir.Warn(fmt.Sprintf("ignoring extra color clause %q", m[0]))
			return true
		}
		ir.MonoColor = &c
		return true
	})

	rest = consume(rest, groupRegex, func(m []string) bool {
		setColor(ir, m[0], combination(ir, colorGroups[m[1]], query.ColorExact))
		return true
	})

	rest = consume(rest, colorOrRe, func(m []string) bool {
		if m[3] != "" {
			return false
		}
		setColor(ir, m[0], query.ColorConstraint{
			Values:   colorsIn(m[1] + m[2]),
			Mode:     query.ModeColor,
			Operator: query.ColorOr,
		})
		return true
	})

	rest = consume(rest, colorAndRe, func(m []string) bool {
		if m[3] != "" {
			return false
		}
		setColor(ir, m[0], combination(ir, colorsIn(m[1]+m[2]), query.ColorAnd))
		return true
	})

	rest = countColors(rest, ir)

	var lone []query.Color
	rest = consume(rest, singleColor, func(m []string) bool {
		if m[2] != "" {
			return false
		}
		if m[1] == "colorless" {
			lone = append(lone, query.Colorless)
			return true
		}
		lone = append(lone, colorWords[m[1]])
		return true
	})
	switch {
	case len(lone) == 1 && lone[0] == query.Colorless:
		setColor(ir, "colorless", query.ColorConstraint{Values: lone, Mode: query.ModeColor, Operator: query.ColorExact})
	case len(lone) == 1:
		setColor(ir, string(lone[0]), query.ColorConstraint{Values: lone, Mode: query.ModeColor, Operator: query.ColorOr})
	case len(lone) > 1:
		setColor(ir, "color words", combination(ir, lone, query.ColorAnd))
	}
	return rest
}

func countColors(rest string, ir *query.IR) string {
	field := query.ModeColor.Field()
	if ir.IdentityCue {
		field = query.ModeIdentity.Field()
	}
	setCount := func(op query.Operator, n float64) {
		if ir.ColorCount != nil {
			ir.Warn("ignoring extra color count")
			return
		}
		ir.ColorCount = &query.NumericConstraint{Field: field, Operator: op, Value: n}
	}

	rest = consume(rest, multicolorRegex, func([]string) bool {
		setCount(query.Ge, 2)
		return true
	})
	rest = consume(rest, monocolorRegex, func([]string) bool {
		setCount(query.Eq, 1)
		return true
	})
	return consume(rest, colorCountRegex, func(m []string) bool {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > 5 {
			return false
		}
		setCount(query.Eq, float64(n))
		return true
	})
}

// combination builds a multi-color clause. Without an identity cue the
// operator applies to card colors; with one, the request is about what a
// commander allows, so the clause becomes an identity-subset test.
func combination(ir *query.IR, colors []query.Color, op query.ColorOperator) query.ColorConstraint {
	if ir.IdentityCue {
		return query.ColorConstraint{Values: colors, Mode: query.ModeIdentity, Operator: query.ColorWithin}
	}
	return query.ColorConstraint{Values: colors, Mode: query.ModeColor, Operator: op}
}

func setColor(ir *query.IR, phrase string, c query.ColorConstraint) {
	if ir.MonoColor != nil || ir.ColorConstraint != nil {
		ir.Warn(fmt.Sprintf("ignoring extra color clause %q", phrase))
		return
	}
	ir.ColorConstraint = &c
}

func colorsIn(s string) []query.Color {
	var out []query.Color
	for _, w := range colorWord.FindAllString(s, -1) {
		out = append(out, colorWords[w])
	}
	return out
}

var manaProductionRegex = regexp.MustCompile(
	`\b(?:produces?|producing|adds?|adding|taps? for|tapping for|makes?|generates?)\s+` +
		`(?:\d+\s+)?(?:(` + colorAlt + `|colorless|any color|any colors|all colors)\s+)?mana\b` +
		`|\b(` + colorAlt + `|colorless)\s+mana\s+(?:producers?|sources?|makers?)\b`)

var manaCodes = map[string]string{
	"colorless":  "c",
	"any color":  "wubrg",
	"any colors": "wubrg",
	"all colors": "wubrg",
}

// ManaProduction recognizes what mana a card produces.
func ManaProduction(rest string, ir *query.IR) string {
	return consume(rest, manaProductionRegex, func(m []string) bool {
		color := m[1]
		if color == "" {
			color = m[2]
		}
		switch {
		case color == "":
			ir.AddOracle(`o:/add \{/`)
		case manaCodes[color] == "wubrg":
			ir.AddSpecial("produces=wubrg")
		case manaCodes[color] != "":
			ir.AddSpecial("produces:" + manaCodes[color])
		default:
			ir.AddSpecial("produces:" + string(colorWords[color]))
		}
		return true
	})
}
