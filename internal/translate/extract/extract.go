// Package extract turns a normalized request into a query.IR through an
// ordered list of pure extractors. Each extractor removes the text it
// recognizes from the residual and records fragments in the IR; no match
// leaves the residual unchanged.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

// Extractor consumes what it recognizes in rest, records it in ir and
// returns the new residual.
type Extractor func(rest string, ir *query.IR) string

// Step is a named extractor.
type Step struct {
	Name string
	Fn   Extractor
}

// Pipeline returns the extractors in execution order. Order matters:
// lookups of whole phrases run before the generic word-level extractors,
// and numbers are parsed last so they cannot swallow tokens of a phrase.
func Pipeline() []Step {
	return []Step{
		{"literal", Literals},
		{"card_function", CardFunctions},
		{"tags", Tags},
		{"tokens", Tokens},
		{"enablers", Enablers},
		{"keywords", Keywords},
		{"archetypes", Archetypes},
		{"exclusions", Exclusions},
		{"companions", Companions},
		{"formats", Formats},
		{"oracle_idioms", OracleIdioms},
		{"colors", Colors},
		{"types", Types},
		{"mana_production", ManaProduction},
		{"equipment_cost", EquipmentCost},
		{"numeric", Numeric},
		{"price", Price},
		{"bare_mana_value", BareManaValue},
	}
}

var (
	steps       = Pipeline()
	identityCue = regexp.MustCompile(`\b(commanders?|identity|edh|decks?)\b`)
)

// Run executes the default pipeline over normalized input. Any residual
// left after filler stripping is carried forward as a text search with a
// warning.
func Run(normalized string) *query.IR {
	return RunWith(steps, normalized)
}

// RunWith executes the given steps in order.
func RunWith(pipeline []Step, normalized string) *query.IR {
	ir := query.New(normalized)
	ir.IdentityCue = identityCue.MatchString(normalized)

	rest := normalized
	for _, s := range pipeline {
		rest = s.Fn(rest, ir)
	}
	ir.Remaining = StripFillers(rest)
	carryResidual(ir)
	return ir
}

func carryResidual(ir *query.IR) {
	if ir.Remaining == "" {
		return
	}
	text := strings.ReplaceAll(ir.Remaining, `"`, "")
	if !ir.Extracted() {
		// Nothing structured was found: the request is most likely a name.
		ir.AddSpecial(text)
		ir.Warn(fmt.Sprintf("no structured constraints recognized; searching names for %q", text))
		return
	}
	ir.AddOracle(`o:"` + text + `"`)
	ir.Warn(fmt.Sprintf("could not interpret %q; searching card text instead", text))
}

var fillers = map[string]bool{
	"a": true, "an": true, "the": true, "with": true, "that": true,
	"which": true, "who": true, "cards": true, "card": true, "in": true,
	"for": true, "of": true, "and": true, "or": true, "to": true,
	"is": true, "are": true, "has": true, "have": true, "i": true,
	"me": true, "my": true, "your": true, "show": true, "find": true,
	"give": true, "want": true, "need": true, "all": true, "some": true,
	"any": true, "looking": true, "good": true, "best": true,
	"please": true, "cost": true, "costs": true, "mana": true,
	"deck": true, "decks": true, "effect": true, "effects": true,
	"spell": true, "things": true, "stuff": true, "ones": true,
	"like": true, "than": true, "on": true, "it": true, "its": true,
	"from": true, "by": true, "can": true, "be": true, "list": true,
	"search": true, "get": true, "what": true, "there": true,
}

// StripFillers removes filler words and collapses whitespace.
func StripFillers(s string) string {
	words := strings.Fields(s)
	out := words[:0]
	for _, w := range words {
		if !fillers[w] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// consume removes every match of re for which fn returns true. fn receives
// the submatches; groups that did not participate are empty.
func consume(rest string, re *regexp.Regexp, fn func(m []string) bool) string {
	locs := re.FindAllStringSubmatchIndex(rest, -1)
	if locs == nil {
		return rest
	}
	var b strings.Builder
	last := 0
	changed := false
	for _, loc := range locs {
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = rest[loc[2*i]:loc[2*i+1]]
			}
		}
		if !fn(m) {
			continue
		}
		b.WriteString(rest[last:loc[0]])
		b.WriteByte(' ')
		last = loc[1]
		changed = true
	}
	if !changed {
		return rest
	}
	b.WriteString(rest[last:])
	return squash(b.String())
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

// alternation builds a regexp alternation that prefers longer phrases.
func alternation(phrases []string) string {
	sorted := append([]string(nil), phrases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	quoted := make([]string, len(sorted))
	for i, p := range sorted {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(quoted, "|")
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// emit records one search fragment in the IR field matching its prefix.
func emit(ir *query.IR, fragment string) {
	switch {
	case strings.HasPrefix(fragment, "otag:"), strings.HasPrefix(fragment, "function:"):
		ir.AddTag(fragment)
	case strings.HasPrefix(fragment, "atag:"), strings.HasPrefix(fragment, "art:"):
		ir.AddArtTag(fragment)
	case strings.HasPrefix(fragment, "-t:"):
		ir.ExcludeType(strings.TrimPrefix(fragment, "-t:"))
	case strings.HasPrefix(fragment, "t:"):
		addTypeOrSubtype(ir, strings.TrimPrefix(fragment, "t:"))
	case strings.HasPrefix(fragment, "o:"):
		ir.AddOracle(fragment)
	default:
		ir.AddSpecial(fragment)
	}
}

func addTypeOrSubtype(ir *query.IR, name string) {
	if cardTypes[name] {
		ir.AddType(name)
		return
	}
	ir.AddSubtype(name)
}
