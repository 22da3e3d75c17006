package extract

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

var (
	exclusionRegex = regexp.MustCompile(
		`\b(?:non-?|not\s+(?:an?\s+)?|no\s+|isn't\s+(?:an?\s+)?|except\s+|excluding\s+|other than\s+)(` +
			alternation(keys(exclusionForms)) + `)\b|\b(` + alternation(keys(cardTypes)) + `)less\b`)

	// every card type and subtype form that may follow a negation
	exclusionForms = mergeForms(typeForms, subtypeForms)
)

// Exclusions recognizes negated types ("non-creature", "not a land",
// "no artifacts", "landless").
func Exclusions(rest string, ir *query.IR) string {
	return consume(rest, exclusionRegex, func(m []string) bool {
		name := m[2]
		if m[1] != "" {
			name = exclusionForms[m[1]]
		}
		ir.ExcludeType(name)
		return true
	})
}

type companion struct {
	numeric  *query.NumericConstraint
	special  string
	deckOnly bool
}

var companions = map[string]companion{
	"lurrus":   {numeric: &query.NumericConstraint{Field: "mv", Operator: query.Le, Value: 2}},
	"keruga":   {numeric: &query.NumericConstraint{Field: "mv", Operator: query.Ge, Value: 3}},
	"gyruda":   {special: "mv:even"},
	"obosh":    {special: "mv:odd"},
	"kaheera":  {special: "(t:cat or t:elemental or t:nightmare or t:dinosaur or t:beast)"},
	"jegantha": {deckOnly: true},
	"yorion":   {deckOnly: true},
	"umori":    {deckOnly: true},
	"zirda":    {deckOnly: true},
	"lutri":    {deckOnly: true},
}

var (
	companionRegex = regexp.MustCompile(`\b(` + alternation(keys(companions)) + `)\b` +
		`(?:\s+(?:companions?|legal|decks?|compatible|friendly|restrictions?|safe))*`)
	anyCompanionRegex = regexp.MustCompile(`\bcompanions?\b`)
)

// Companions translates companion deck-building restrictions into
// per-card constraints where one exists.
func Companions(rest string, ir *query.IR) string {
	rest = consume(rest, companionRegex, func(m []string) bool {
		c := companions[m[1]]
		switch {
		case c.numeric != nil:
			ir.AddNumeric(*c.numeric)
		case c.special != "":
			ir.AddSpecial(c.special)
		case c.deckOnly:
			ir.Warn(fmt.Sprintf("the %s companion restriction applies to the whole deck and was not translated", m[1]))
		}
		return true
	})
	return consume(rest, anyCompanionRegex, func([]string) bool {
		ir.AddSpecial("is:companion")
		return true
	})
}

var formats = map[string]string{
	"standard":         "standard",
	"pioneer":          "pioneer",
	"modern":           "modern",
	"legacy":           "legacy",
	"vintage":          "vintage",
	"pauper":           "pauper",
	"commander":        "commander",
	"cedh":             "commander",
	"brawl":            "brawl",
	"historic":         "historic",
	"explorer":         "explorer",
	"alchemy":          "alchemy",
	"oathbreaker":      "oathbreaker",
	"penny":            "penny",
	"penny dreadful":   "penny",
	"premodern":        "premodern",
	"timeless":         "timeless",
	"pauper commander": "paupercommander",
	"pdh":              "paupercommander",
	"duel commander":   "duel",
}

var (
	formatAlt = alternation(keys(formats))

	commanderRoleRegex = regexp.MustCompile(
		`\b(?:can be (?:your |a |an )?commanders?|as (?:a |an |your )?commanders?|legal commanders?|commanders)\b`)
	bannedRegex = regexp.MustCompile(`\b(banned|restricted) in (` + formatAlt + `)\b`)
	legalRegex  = regexp.MustCompile(`\b(?:legal|playable) in (` + formatAlt + `)\b`)
	formatRegex = regexp.MustCompile(`\b(` + formatAlt + `)(?:\s+(?:legal|format|playable|decks?|staples?|cards?))?\b`)
)

// Formats recognizes format legality and commander phrasing.
func Formats(rest string, ir *query.IR) string {
	rest = consume(rest, commanderRoleRegex, func([]string) bool {
		ir.AddSpecial("is:commander")
		return true
	})
	rest = consume(rest, bannedRegex, func(m []string) bool {
		ir.AddSpecial(m[1] + ":" + formats[m[2]])
		return true
	})
	rest = consume(rest, legalRegex, func(m []string) bool {
		ir.AddSpecial("f:" + formats[m[1]])
		return true
	})
	return consume(rest, formatRegex, func(m []string) bool {
		ir.AddSpecial("f:" + formats[m[1]])
		return true
	})
}
