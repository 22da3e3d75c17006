// Package fallback is a dependency-free translator from natural-language
// card searches to search syntax. It is much simpler than the service
// pipeline and is meant for callers that cannot reach the service.
//
// Compile never fails: when nothing is recognized it returns the trimmed
// input, which the search engine treats as a card name.
package fallback

import (
	"regexp"
	"strings"
)

type extraction struct {
	re     *regexp.Regexp
	render func(m []string) string
}

var (
	colorCodes = map[string]string{
		"white": "w", "blue": "u", "black": "b", "red": "r", "green": "g", "colorless": "c",
	}

	extractions = []extraction{
		{regexp.MustCompile(`\bmono[- ]?(white|blue|black|red|green|colorless)\b`), func(m []string) string {
			return "c=" + colorCodes[m[1]]
		}},
		{regexp.MustCompile(`\b(` + strings.Join(keysOf(guilds), "|") + `)\b`), func(m []string) string {
			return "c=" + guilds[m[1]]
		}},
		{regexp.MustCompile(`\b(white|blue|black|red|green|colorless)\b`), func(m []string) string {
			return "c:" + colorCodes[m[1]]
		}},
		{regexp.MustCompile(`\b(creature|artifact|enchantment|land|instant|planeswalker|battle|legendary)s?\b`), func(m []string) string {
			return "t:" + m[1]
		}},
		{regexp.MustCompile(`\bsorcer(?:y|ies)\b`), func([]string) string { return "t:sorcery" }},
		{regexp.MustCompile(`\b(` + strings.Join(keysOf(formats), "|") + `)\b`), func(m []string) string {
			return "f:" + formats[m[1]]
		}},
		{regexp.MustCompile(`\b(` + strings.Join(keywords, "|") + `)\b`), func(m []string) string {
			if strings.Contains(m[1], " ") {
				return `kw:"` + m[1] + `"`
			}
			return "kw:" + m[1]
		}},
		{regexp.MustCompile(`\b(\d+)\s*(?:mana|cmc|mv|drops?)\b|\b(?:cmc|mv)\s*(\d+)\b`), func(m []string) string {
			return "mv=" + m[1] + m[2]
		}},
		{regexp.MustCompile(`\b(?:under|below|less than)\s+\$?(\d+)\s*(?:dollars?|bucks)?|\$(\d+)`), func(m []string) string {
			return "usd<" + m[1] + m[2]
		}},
	}

	quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
	punct         = strings.NewReplacer(",", " ", ";", " ", "!", " ", "?", " ", `"`, " ")
)

// Compile translates input. See the package documentation.
func Compile(input string) string {
	trimmed := strings.TrimSpace(input)
	s := strings.Join(strings.Fields(strings.ToLower(quoteReplacer.Replace(trimmed))), " ")
	if s == "" {
		return ""
	}
	if q, ok := phrases[s]; ok {
		return q
	}

	fragments, rest := applySlang(strings.Fields(punct.Replace(s)))
	rest = spellNumbers(rest)
	for _, e := range extractions {
		rest = e.re.ReplaceAllStringFunc(rest, func(match string) string {
			fragments = appendUnique(fragments, e.render(e.re.FindStringSubmatch(match)))
			return " "
		})
	}

	residual := stripFillers(rest)
	if len(fragments) == 0 {
		return trimmed
	}
	if residual != "" {
		fragments = append(fragments, `o:"`+residual+`"`)
	}
	return strings.Join(fragments, " ")
}

// applySlang replaces the longest slang phrase at each position with its
// fragments and returns the fragments and the untouched words.
func applySlang(words []string) ([]string, string) {
	var fragments, kept []string
	for i := 0; i < len(words); {
		matched := false
		for n := min(slangMaxWords, len(words)-i); n >= 1; n-- {
			if f, ok := slang[strings.Join(words[i:i+n], " ")]; ok {
				for _, frag := range f {
					fragments = appendUnique(fragments, frag)
				}
				i += n
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, words[i])
			i++
		}
	}
	return fragments, strings.Join(kept, " ")
}

func spellNumbers(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if d, ok := numbers[w]; ok {
			words[i] = d
		}
	}
	return strings.Join(words, " ")
}

func stripFillers(s string) string {
	var out []string
	for _, w := range strings.Fields(s) {
		if !fillers[w] {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return list
		}
	}
	return append(list, v)
}
