package extract

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

var keywordAbilities = []string{
	"flying", "first strike", "double strike", "deathtouch", "lifelink",
	"trample", "vigilance", "haste", "hexproof", "indestructible", "menace",
	"reach", "flash", "defender", "ward", "prowess", "cascade", "convoke",
	"cycling", "flashback", "kicker", "landfall", "storm", "infect",
	"undying", "persist", "delve", "affinity", "ninjutsu", "partner",
	"changeling", "annihilator", "exalted", "evolve", "mentor", "riot",
	"afflict", "toxic", "fear", "intimidate", "shroud", "shadow",
	"wither", "bushido", "madness", "morph", "disguise", "escape",
	"foretell", "mutate", "adventure", "emerge", "surveil", "scry",
	"proliferate", "explore", "amass", "connive", "discover",
}

var (
	keywordAlt = alternation(keywordAbilities)

	keywordRegex = regexp.MustCompile(
		`\b(?:(without|no|lacking|not)\s+|(non-?))?(` + keywordAlt + `)\b`)

	enablerRegex = regexp.MustCompile(
		`\b(?:(?:gives?|grants?|granting|giving|that give|lend|lends)\s+` +
			`(?:(?:other\s+)?creatures?\s+|it\s+|them\s+)?(` + keywordAlt + `)|` +
			`(` + keywordAlt + `)\s+(?:enablers?|granters?|givers?))\b`)

	extraEnablers = []struct {
		re       *regexp.Regexp
		fragment string
	}{
		{regexp.MustCompile(`\bextra combats?(?:\s+phases?)?\b|\badditional combats?(?:\s+phases?)?\b`), `o:"additional combat phase"`},
		{regexp.MustCompile(`\bcost reduc(?:ers?|tion)\b|\bcost reducing\b`), `o:/costs? \{\d\} less/`},
		{regexp.MustCompile(`\buntap (?:effects|enablers?)\b`), `o:"untap target"`},
		{regexp.MustCompile(`\bsac(?:rifice)? enablers?\b`), "otag:sacrifice-outlet"},
	}

	tokenRegex = regexp.MustCompile(
		`\b(?:(?:creates?|creating|makes?|making|generates?|generating|produces?|producing)\s+)?` +
			`(?:an?\s+|\d+\s+)?(\d+/\d+\s+)?([a-z]+\s+)?tokens?\b`)
)

// Tokens recognizes token-creation phrases such as "makes treasure tokens"
// or "2/2 zombie tokens".
func Tokens(rest string, ir *query.IR) string {
	return consume(rest, tokenRegex, func(m []string) bool {
		pt := strings.TrimSpace(m[1])
		kind := strings.TrimSpace(m[2])
		if fillers[kind] {
			kind = ""
		}
		parts := []string{"create"}
		if pt != "" {
			parts = append(parts, strings.ReplaceAll(pt, "/", `\/`))
		}
		if kind != "" {
			parts = append(parts, kind)
		}
		parts = append(parts, "token")
		ir.AddOracle("o:/" + strings.Join(parts, ".*") + "/")
		return true
	})
}

// Enablers recognizes cards that grant an ability to others.
func Enablers(rest string, ir *query.IR) string {
	rest = consume(rest, enablerRegex, func(m []string) bool {
		kw := m[1]
		if kw == "" {
			kw = m[2]
		}
		ir.AddOracle(`o:/(gain|gains|have|has) ` + kw + `/`)
		return true
	})
	for _, e := range extraEnablers {
		rest = consume(rest, e.re, func([]string) bool {
			emit(ir, e.fragment)
			return true
		})
	}
	return rest
}

// Keywords recognizes keyword abilities; a negation prefix excludes it.
func Keywords(rest string, ir *query.IR) string {
	return consume(rest, keywordRegex, func(m []string) bool {
		kw := m[3]
		if strings.Contains(kw, " ") {
			kw = `"` + kw + `"`
		}
		if m[1] != "" || m[2] != "" {
			ir.AddSpecial("-kw:" + kw)
			return true
		}
		ir.AddSpecial("kw:" + kw)
		return true
	})
}
