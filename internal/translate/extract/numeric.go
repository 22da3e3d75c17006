package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

// comparatorWords maps leading comparison phrases to operators.
var comparatorWords = map[string]query.Operator{
	"under":                    query.Lt,
	"below":                    query.Lt,
	"less than":                query.Lt,
	"fewer than":               query.Lt,
	"lower than":               query.Lt,
	"cheaper than":             query.Lt,
	"at most":                  query.Le,
	"max":                      query.Le,
	"maximum":                  query.Le,
	"no more than":             query.Le,
	"up to":                    query.Le,
	"over":                     query.Gt,
	"above":                    query.Gt,
	"more than":                query.Gt,
	"greater than":             query.Gt,
	"higher than":              query.Gt,
	"at least":                 query.Ge,
	"min":                      query.Ge,
	"minimum":                  query.Ge,
	"no less than":             query.Ge,
	"exactly":                  query.Eq,
	"equal to":                 query.Eq,
	"equals":                   query.Eq,
	"less than or equal to":    query.Le,
	"greater than or equal to": query.Ge,
}

var symbolOps = map[string]query.Operator{
	"=":  query.Eq,
	":":  query.Eq,
	"<":  query.Lt,
	">":  query.Gt,
	"<=": query.Le,
	">=": query.Ge,
}

const trailingAlt = `less|fewer|lower|under|below|more|greater|higher|over|above`

// trailing maps "or less" / "or more" suffixes, and a "+" suffix, to an
// inclusive operator.
func trailing(word string) (query.Operator, bool) {
	switch word {
	case "":
		return "", false
	case "less", "fewer", "lower", "under", "below":
		return query.Le, true
	default:
		return query.Ge, true
	}
}

// operatorFor picks the operator from an explicit symbol, a leading phrase
// and a trailing suffix; the trailing suffix wins, then the symbol.
func operatorFor(symbol, phrase, suffix string) query.Operator {
	if op, ok := trailing(suffix); ok {
		return op
	}
	if op, ok := symbolOps[symbol]; ok {
		return op
	}
	if op, ok := comparatorWords[phrase]; ok {
		return op
	}
	return query.Eq
}

var (
	cmpAlt = alternation(keys(comparatorWords))

	equipRegex = regexp.MustCompile(
		`\b(?:(cheap)\s+)?equip\b(?:\s+costs?)?(?:\s+(?:of|is))?` +
			`(?:\s*\{?(\d)\}?(?:\s+or\s+(less|fewer|more|greater)\b)?)?`)

	// mv 3, pow>=4, tou of at least 5, mv 2 or less, mv 5+
	fieldFirstRegex = regexp.MustCompile(
		`\b(mv|pow|tou|loyalty|loy|defense)\s*(?:(<=|>=|=|<|>|:)|\s(?:of\s+)?(` + cmpAlt + `)|\sof)?\s*` +
			`(\d+)(?:(\+)|\s+or\s+(` + trailingAlt + `))?(?:\s|$)`)

	// 3 or less mv, 4 pow
	valueFirstRegex = regexp.MustCompile(
		`\b(\d+)(?:(\+)|\s+or\s+(` + trailingAlt + `))?\s+(mv|pow|tou|loyalty)\b`)

	// 2/2, 3/3
	ptRegex = regexp.MustCompile(`\b(\d+)/(\d+)\b`)

	// 5 mana, under 3 mana, 2-drop, 5+ mana, 3 mana or less
	manaRegex = regexp.MustCompile(
		`(?:\b(` + cmpAlt + `)\s+)?\b(\d+)(\+)?(?:\s*-\s*|\s+)(?:mana|drops?)\b(?:\s+or\s+(` + trailingAlt + `)\b)?`)

	// costs 3, costing 2 or less
	costsRegex = regexp.MustCompile(
		`\b(?:costs?|costing)\s+(?:(` + cmpAlt + `)\s+)?(\d+)(?:\s+or\s+(` + trailingAlt + `)\b)?`)
)

// EquipmentCost recognizes equip costs.
func EquipmentCost(rest string, ir *query.IR) string {
	return consume(rest, equipRegex, func(m []string) bool {
		if m[2] == "" && m[1] == "" {
			// a bare "equip" is not a cost
			return false
		}
		if m[2] == "" {
			ir.AddOracle(`o:/equip \{[0-2]\}/`)
			return true
		}
		n, _ := strconv.Atoi(m[2])
		switch op, _ := trailing(m[3]); op {
		case query.Le:
			ir.AddOracle(fmt.Sprintf(`o:/equip \{[0-%d]\}/`, n))
		case query.Ge:
			ir.AddOracle(fmt.Sprintf(`o:/equip \{[%d-9]\}/`, n))
		default:
			ir.AddOracle(fmt.Sprintf(`o:"equip {%d}"`, n))
		}
		return true
	})
}

// Numeric recognizes numeric comparisons over mana value, power,
// toughness and loyalty.
func Numeric(rest string, ir *query.IR) string {
	rest = consume(rest, fieldFirstRegex, func(m []string) bool {
		suffix := m[6]
		if m[5] != "" {
			suffix = "more"
		}
		return addNumeric(ir, m[1], operatorFor(m[2], m[3], suffix), m[4])
	})
	rest = consume(rest, valueFirstRegex, func(m []string) bool {
		suffix := m[3]
		if m[2] != "" {
			suffix = "more"
		}
		return addNumeric(ir, m[4], operatorFor("", "", suffix), m[1])
	})
	rest = consume(rest, ptRegex, func(m []string) bool {
		return addNumeric(ir, "pow", query.Eq, m[1]) && addNumeric(ir, "tou", query.Eq, m[2])
	})
	rest = consume(rest, manaRegex, func(m []string) bool {
		suffix := m[4]
		if m[3] != "" {
			suffix = "more"
		}
		return addNumeric(ir, "mv", operatorFor("", m[1], suffix), m[2])
	})
	return consume(rest, costsRegex, func(m []string) bool {
		return addNumeric(ir, "mv", operatorFor("", m[1], m[3]), m[2])
	})
}

var fieldAliases = map[string]string{"loyalty": "loy"}

func addNumeric(ir *query.IR, field string, op query.Operator, value string) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	if alias, ok := fieldAliases[field]; ok {
		field = alias
	}
	ir.AddNumeric(query.NumericConstraint{Field: field, Operator: op, Value: v})
	return true
}

var (
	// under $5, $0.50, $2 or less
	dollarRegex = regexp.MustCompile(
		`(?:\b(` + cmpAlt + `)\s+)?\$(\d+(?:\.\d+)?)(?:\s+or\s+(` + trailingAlt + `)\b)?`)
	// under 5 dollars, 50 cents, 3 euros, 2 tix
	currencyRegex = regexp.MustCompile(
		`(?:\b(` + cmpAlt + `)\s+)?\b(\d+(?:\.\d+)?)\s*(dollars?|cents?|euros?|eur|tix)\b(?:\s+or\s+(` + trailingAlt + `)\b)?`)
	budgetRegex = regexp.MustCompile(`\b(?:cheap|budget|inexpensive)\b`)
)

// Price recognizes price limits. A price without a comparator is read as
// an upper bound.
func Price(rest string, ir *query.IR) string {
	rest = consume(rest, dollarRegex, func(m []string) bool {
		return addPrice(ir, "usd", m[1], m[3], m[2], 1)
	})
	rest = consume(rest, currencyRegex, func(m []string) bool {
		field, scale := "usd", 1.0
		switch {
		case strings.HasPrefix(m[3], "cent"):
			scale = 0.01
		case strings.HasPrefix(m[3], "eur"):
			field = "eur"
		case m[3] == "tix":
			field = "tix"
		}
		return addPrice(ir, field, m[1], m[4], m[2], scale)
	})
	return consume(rest, budgetRegex, func([]string) bool {
		if !ir.HasNumeric("usd") {
			ir.AddNumeric(query.NumericConstraint{Field: "usd", Operator: query.Le, Value: 1})
		}
		return true
	})
}

func addPrice(ir *query.IR, field, phrase, suffix, value string, scale float64) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	op := query.Le
	if phrase != "" || suffix != "" {
		op = operatorFor("", phrase, suffix)
	}
	ir.AddNumeric(query.NumericConstraint{Field: field, Operator: op, Value: math.Round(v*scale*100) / 100})
	return true
}

var bareNumberRegex = regexp.MustCompile(`(?:^|\s)(\d{1,2})(?:\s|$)`)

// BareManaValue reads a lone number as mana value when the request
// already names what kind of card it wants ("4 mana rock" after the tag
// consumed "mana rock"). Only the first lone number is used.
func BareManaValue(rest string, ir *query.IR) string {
	if ir.HasNumeric("mv") {
		return rest
	}
	if len(ir.Types) == 0 && len(ir.Subtypes) == 0 && len(ir.Tags) == 0 {
		return rest
	}
	done := false
	return consume(rest, bareNumberRegex, func(m []string) bool {
		if done {
			return false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n > 20 {
			return false
		}
		done = true
		ir.AddNumeric(query.NumericConstraint{Field: "mv", Operator: query.Eq, Value: float64(n)})
		return true
	})
}
