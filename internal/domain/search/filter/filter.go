// Package filter holds structured constraints a client can attach to a
// translation request. They are appended to the compiled query and never
// take part in caching.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxRarities bounds the rarity list.
const MaxRarities = 4

var (
	formats = map[string]bool{
		"standard": true, "pioneer": true, "modern": true, "legacy": true, "vintage": true,
		"commander": true, "pauper": true, "brawl": true, "historic": true, "explorer": true,
		"oathbreaker": true, "penny": true, "alchemy": true, "timeless": true,
	}
	rarities = map[string]bool{"common": true, "uncommon": true, "rare": true, "mythic": true}
)

// Filters is a validated set of request constraints.
type Filters struct {
	format    string
	identity  string
	rarities  []string
	price     *Range
	manaValue *Range
}

// New validates and creates Filters. identity is a color-letter string
// ("rg", "wubrg", "c").
func New(format, identity string, rarityList []string, price, manaValue *Range) (Filters, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && !formats[format] {
		return Filters{}, fmt.Errorf("unknown format %q", format)
	}

	identity = strings.ToLower(strings.TrimSpace(identity))
	for _, r := range identity {
		if !strings.ContainsRune("wubrgc", r) {
			return Filters{}, fmt.Errorf("invalid color identity %q", identity)
		}
	}
	if strings.Contains(identity, "c") && identity != "c" {
		return Filters{}, fmt.Errorf("colorless identity cannot be combined with colors")
	}

	if len(rarityList) > MaxRarities {
		return Filters{}, fmt.Errorf("too many rarities (max %d)", MaxRarities)
	}
	seen := make(map[string]bool, len(rarityList))
	var rs []string
	for _, r := range rarityList {
		r = strings.ToLower(strings.TrimSpace(r))
		if !rarities[r] {
			return Filters{}, fmt.Errorf("unknown rarity %q", r)
		}
		if !seen[r] {
			seen[r] = true
			rs = append(rs, r)
		}
	}

	return Filters{format: format, identity: identity, rarities: rs, price: price, manaValue: manaValue}, nil
}

// Format returns the legality filter.
func (f Filters) Format() string { return f.format }

// Identity returns the color identity ceiling.
func (f Filters) Identity() string { return f.identity }

// Rarities returns the accepted rarities.
func (f Filters) Rarities() []string { return f.rarities }

// Price returns the USD price range.
func (f Filters) Price() *Range { return f.price }

// ManaValue returns the mana value range.
func (f Filters) ManaValue() *Range { return f.manaValue }

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return f.format == "" && f.identity == "" && len(f.rarities) == 0 && f.price == nil && f.manaValue == nil
}

// Clauses renders the filters as search terms in a fixed order.
func (f Filters) Clauses() []string {
	var out []string
	if f.format != "" {
		out = append(out, "f:"+f.format)
	}
	if f.identity != "" {
		out = append(out, "id<="+f.identity)
	}
	switch len(f.rarities) {
	case 0:
	case 1:
		out = append(out, "r:"+f.rarities[0])
	default:
		parts := make([]string, len(f.rarities))
		for i, r := range f.rarities {
			parts[i] = "r:" + r
		}
		out = append(out, "("+strings.Join(parts, " or ")+")")
	}
	if f.manaValue != nil {
		out = append(out, f.manaValue.clauses("mv")...)
	}
	if f.price != nil {
		out = append(out, f.price.clauses("usd")...)
	}
	return out
}

// Apply appends the filter clauses to a compiled query.
func (f Filters) Apply(query string) string {
	clauses := f.Clauses()
	if len(clauses) == 0 {
		return query
	}
	if query == "" {
		return strings.Join(clauses, " ")
	}
	return query + " " + strings.Join(clauses, " ")
}

// Range is an inclusive numeric range.
type Range struct {
	min *float64
	max *float64
}

// NewRange validates and creates a Range. At least one bound is required
// and bounds may not be negative.
func NewRange(minVal, maxVal *float64) (Range, error) {
	if minVal == nil && maxVal == nil {
		return Range{}, fmt.Errorf("at least one range bound is required")
	}
	if (minVal != nil && *minVal < 0) || (maxVal != nil && *maxVal < 0) {
		return Range{}, fmt.Errorf("range bounds must not be negative")
	}
	if minVal != nil && maxVal != nil && *minVal > *maxVal {
		return Range{}, fmt.Errorf("range min %v is above max %v", *minVal, *maxVal)
	}
	return Range{min: minVal, max: maxVal}, nil
}

// Min returns the lower bound.
func (r Range) Min() *float64 { return r.min }

// Max returns the upper bound.
func (r Range) Max() *float64 { return r.max }

func (r Range) clauses(field string) []string {
	if r.min != nil && r.max != nil && *r.min == *r.max {
		return []string{field + "=" + formatNum(*r.min)}
	}
	var out []string
	if r.min != nil {
		out = append(out, field+">="+formatNum(*r.min))
	}
	if r.max != nil {
		out = append(out, field+"<="+formatNum(*r.max))
	}
	return out
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
