// Package render turns a completed query.IR into a search string.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

// Result is a rendered query with the warnings collected on the way.
type Result struct {
	Query    string
	Warnings []string
}

// type mentions inside a fragment: "t:elf", "(t:cat or type:beast)", "-t:land"
var typeMention = regexp.MustCompile(`(?:^|[\s(])-?(?:t|type):([a-z][a-z'-]*)`)

// Render emits, in order: the color clause (mono before an explicit
// constraint), required types not already mentioned in a special group,
// subtypes, excluded types not mentioned in a special group, numeric
// constraints, the color count, tags, art tags, specials and oracle text.
// Tokens are deduplicated case-insensitively keeping the first occurrence.
// The same IR always renders to the same string.
func Render(ir *query.IR) Result {
	warnings := append([]string(nil), ir.Warnings...)
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		for _, w := range warnings {
			if w == msg {
				return
			}
		}
		warnings = append(warnings, msg)
	}

	var tokens []string

	switch {
	case ir.MonoColor != nil:
		c := string(*ir.MonoColor)
		tokens = append(tokens, "c="+c, "id="+c)
		if ir.ColorConstraint != nil {
			warn("mono-color takes priority over %q", ir.ColorConstraint.Render())
		}
	case ir.ColorConstraint != nil:
		tokens = append(tokens, ir.ColorConstraint.Render())
	}

	grouped := typesInSpecials(ir.Specials)
	excluded := make(map[string]bool, len(ir.ExcludedTypes))
	for _, t := range ir.ExcludedTypes {
		excluded[t] = true
	}

	for _, t := range ir.Types {
		switch {
		case excluded[t]:
			warn("type %q is both required and excluded; keeping the exclusion", t)
		case grouped[t]:
			warn("type %q is already part of a group; dropping the separate requirement", t)
		default:
			tokens = append(tokens, "t:"+quoteIfNeeded(t))
		}
	}
	for _, t := range ir.Subtypes {
		if grouped[t] || excluded[t] {
			continue
		}
		tokens = append(tokens, "t:"+quoteIfNeeded(t))
	}
	for _, t := range ir.ExcludedTypes {
		if grouped[t] {
			warn("type %q is both grouped and excluded; dropping the exclusion", t)
			continue
		}
		tokens = append(tokens, "-t:"+quoteIfNeeded(t))
	}

	for _, n := range ir.Numeric {
		tokens = append(tokens, n.String())
	}
	if ir.ColorCount != nil {
		tokens = append(tokens, ir.ColorCount.String())
	}

	tokens = append(tokens, ir.Tags...)
	tokens = append(tokens, ir.ArtTags...)
	tokens = append(tokens, ir.Specials...)
	tokens = append(tokens, ir.Oracle...)

	return Result{
		Query:    strings.Join(dedup(tokens), " "),
		Warnings: warnings,
	}
}

func typesInSpecials(specials []string) map[string]bool {
	seen := make(map[string]bool)
	for _, s := range specials {
		for _, m := range typeMention.FindAllStringSubmatch(s, -1) {
			seen[m[1]] = true
		}
	}
	return seen
}

func dedup(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}
