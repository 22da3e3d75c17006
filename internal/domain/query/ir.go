// Package query holds the intermediate representation that the extractor
// pipeline fills and the renderer turns into a search string.
package query

import "fmt"

// IR accumulates every constraint extracted from one request.
// It is created per request, owned by a single pipeline run and discarded
// after rendering. Slices behave as ordered sets: insertion order is kept
// so that rendering is deterministic.
type IR struct {
	MonoColor       *Color
	ColorConstraint *ColorConstraint
	ColorCount      *NumericConstraint

	Types         []string
	Subtypes      []string
	ExcludedTypes []string

	Numeric []NumericConstraint

	Tags     []string
	ArtTags  []string
	Oracle   []string
	Specials []string
	Warnings []string

	// Remaining is the unconsumed residual text.
	Remaining string

	// IdentityCue is set when the request talks about commanders, decks or
	// color identity; color conjunctions then become identity-subset tests.
	IdentityCue bool
}

// New returns an empty IR whose residual is the given normalized input.
func New(input string) *IR {
	return &IR{Remaining: input}
}

// AddType records a required card type. A type already excluded is not
// added back: exclusion wins for the same type.
func (ir *IR) AddType(t string) bool {
	if contains(ir.ExcludedTypes, t) {
		ir.Warn(fmt.Sprintf("type %q is both required and excluded; keeping the exclusion", t))
		return false
	}
	ir.Types = appendUnique(ir.Types, t)
	return true
}

// AddSubtype records a required subtype.
func (ir *IR) AddSubtype(t string) {
	ir.Subtypes = appendUnique(ir.Subtypes, t)
}

// ExcludeType records an excluded card type and drops it from the required
// types if it was there.
func (ir *IR) ExcludeType(t string) {
	if contains(ir.Types, t) {
		ir.Types = remove(ir.Types, t)
		ir.Warn(fmt.Sprintf("type %q is both required and excluded; keeping the exclusion", t))
	}
	ir.ExcludedTypes = appendUnique(ir.ExcludedTypes, t)
}

// HasType reports whether t is a required type.
func (ir *IR) HasType(t string) bool { return contains(ir.Types, t) }

// IsExcluded reports whether t is an excluded type.
func (ir *IR) IsExcluded(t string) bool { return contains(ir.ExcludedTypes, t) }

// AddNumeric records a numeric comparison, ignoring exact duplicates.
func (ir *IR) AddNumeric(n NumericConstraint) {
	for _, existing := range ir.Numeric {
		if existing == n {
			return
		}
	}
	ir.Numeric = append(ir.Numeric, n)
}

// HasNumeric reports whether any constraint targets field.
func (ir *IR) HasNumeric(field string) bool {
	for _, n := range ir.Numeric {
		if n.Field == field {
			return true
		}
	}
	return false
}

// AddTag records an oracle tag fragment such as "otag:ramp".
func (ir *IR) AddTag(tag string) { ir.Tags = appendUnique(ir.Tags, tag) }

// AddArtTag records an art tag fragment such as "atag:dragon".
func (ir *IR) AddArtTag(tag string) { ir.ArtTags = appendUnique(ir.ArtTags, tag) }

// AddOracle records a text-search fragment.
func (ir *IR) AddOracle(fragment string) { ir.Oracle = appendUnique(ir.Oracle, fragment) }

// AddSpecial records a fully formed sub-expression.
func (ir *IR) AddSpecial(expr string) { ir.Specials = appendUnique(ir.Specials, expr) }

// Warn records a human-readable warning.
func (ir *IR) Warn(msg string) { ir.Warnings = appendUnique(ir.Warnings, msg) }

// HasColor reports whether any color clause has been recorded.
func (ir *IR) HasColor() bool {
	return ir.MonoColor != nil || ir.ColorConstraint != nil || ir.ColorCount != nil
}

// Extracted reports whether anything at all was recognized.
func (ir *IR) Extracted() bool {
	return ir.HasColor() ||
		len(ir.Types) > 0 || len(ir.Subtypes) > 0 || len(ir.ExcludedTypes) > 0 ||
		len(ir.Numeric) > 0 || len(ir.Tags) > 0 || len(ir.ArtTags) > 0 ||
		len(ir.Oracle) > 0 || len(ir.Specials) > 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if v == "" || contains(list, v) {
		return list
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
