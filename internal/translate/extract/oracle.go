package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

var (
	quotedRegex = regexp.MustCompile(`"([^"]+)"`)

	// fragments the user already wrote in search syntax
	syntaxRegex = regexp.MustCompile(
		`(?:^|\s)(-?(?:t|type|o|oracle|c|color|id|identity|mv|cmc|pow|tou|otag|oracletag|atag|arttag|` +
			`kw|keyword|f|format|is|not|usd|eur|tix|r|rarity|set|s|e|produces|banned|loy|name|a|artist)` +
			`(?::|<=|>=|!=|=|<|>)[^\s"]+)`)

	numericSyntax = regexp.MustCompile(`^(mv|cmc|pow|tou|loy|usd|eur|tix)(<=|>=|=|<|>|:)(\d+(?:\.\d+)?)$`)
)

// Literals passes through quoted phrases as text searches and fragments
// already written in search syntax. It runs first so that no other
// extractor reinterprets text the user spelled out exactly.
func Literals(rest string, ir *query.IR) string {
	rest = consume(rest, quotedRegex, func(m []string) bool {
		ir.AddOracle(`o:"` + m[1] + `"`)
		return true
	})
	return consume(rest, syntaxRegex, func(m []string) bool {
		if n := numericSyntax.FindStringSubmatch(m[1]); n != nil {
			v, _ := strconv.ParseFloat(n[3], 64)
			field := n[1]
			if field == "cmc" {
				field = "mv"
			}
			ir.AddNumeric(query.NumericConstraint{Field: field, Operator: symbolOps[n[2]], Value: v})
			return true
		}
		emit(ir, canonicalKeyword(m[1]))
		return true
	})
}

// long keyword spellings that emit routes by their short form
var keywordAliases = map[string]string{
	"type:":   "t:",
	"oracle:": "o:",
}

func canonicalKeyword(fragment string) string {
	neg := strings.HasPrefix(fragment, "-")
	body := strings.TrimPrefix(fragment, "-")
	for long, short := range keywordAliases {
		if strings.HasPrefix(body, long) {
			body = short + strings.TrimPrefix(body, long)
			break
		}
	}
	if neg {
		return "-" + body
	}
	return body
}

var oracleIdioms = []struct {
	re       *regexp.Regexp
	fragment string
}{
	{regexp.MustCompile(`\b(?:when(?:ever)?\s+)?(?:it\s+|this\s+)?enters the battlefield(?:\s+(?:triggers?|abilities|effects?))?\b`), `o:"enters the battlefield"`},
	{regexp.MustCompile(`\b(?:when(?:ever)?\s+)?(?:it\s+)?leaves the battlefield\b`), `o:"leaves the battlefield"`},
	{regexp.MustCompile(`\b(?:death|dies) triggers?\b|\bwhen(?:ever)? (?:a |another )?creatures? (?:you control )?dies\b`), `o:"dies"`},
	{regexp.MustCompile(`\bdraws? (?:a |an extra |extra |additional |more )?cards?\b`), `o:"draw a card"`},
	{regexp.MustCompile(`\bsearch(?:es)? (?:your |their )?library\b`), `o:"search your library"`},
	{regexp.MustCompile(`\bcounters? target spells?\b`), `o:"counter target spell"`},
	{regexp.MustCompile(`\bdestroys? target creatures?\b`), `o:"destroy target creature"`},
	{regexp.MustCompile(`\bexiles? target\b`), `o:"exile target"`},
	{regexp.MustCompile(`\b(?:from|in|into|to) (?:your |the |a |their )?graveyards?\b`), `o:"graveyard"`},
	{regexp.MustCompile(`\bsacrifices? (?:a |another )?creatures?\b`), `o:"sacrifice a creature"`},
	{regexp.MustCompile(`\bdrains?\b|\beach opponent loses life\b`), `o:"each opponent loses"`},
	{regexp.MustCompile(`(?:^|\s)\+1/\+1 counters?\b`), `o:"+1/+1 counter"`},
	{regexp.MustCompile(`(?:^|\s)-1/-1 counters?\b`), `o:"-1/-1 counter"`},
	{regexp.MustCompile(`\buntaps? (?:target |all )?(?:lands?|permanents?)\b`), `o:/untap (target|all|up to)/`},
	{regexp.MustCompile(`\bdoubles? (?:the )?damage\b|\bdouble damage\b`), `o:"double that damage"`},
	{regexp.MustCompile(`\bcopies (?:a |target )?spells?\b|\bcopy (?:a |target )?spells?\b`), `o:"copy target"`},
	{regexp.MustCompile(`\bcan't be countered\b|\buncounterable\b`), `o:"can't be countered"`},
	{regexp.MustCompile(`\bcan't be blocked\b|\bunblockable\b`), `o:"can't be blocked"`},
	{regexp.MustCompile(`\bgain control\b|\bsteal(?:s|ing)?\b|\bthreaten\b`), `o:"gain control of"`},
}

// OracleIdioms recognizes common rules-text phrases.
func OracleIdioms(rest string, ir *query.IR) string {
	for _, idiom := range oracleIdioms {
		rest = consume(rest, idiom.re, func([]string) bool {
			ir.AddOracle(idiom.fragment)
			return true
		})
	}
	return rest
}
