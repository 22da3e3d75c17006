package normalize

import "strings"

// slang maps community shorthand to the phrases the extractors understand.
// No replacement may contain a key of its own dictionary, otherwise a second
// pass would expand it again.
var slang = map[string]string{
	"mana rocks":             "mana rock",
	"rocks":                  "mana rock",
	"mana dorks":             "mana dork",
	"dorks":                  "mana dork",
	"board wipes":            "board wipe",
	"wipes":                  "board wipe",
	"wraths":                 "board wipe",
	"sweepers":               "board wipe",
	"sweeper":                "board wipe",
	"mass removal":           "board wipe",
	"counter spells":         "counterspell",
	"counterspells":          "counterspell",
	"tutors":                 "tutor",
	"cantrips":               "cantrip",
	"ramping":                "ramp",
	"life gain":              "lifegain",
	"gain life":              "lifegain",
	"etb":                    "enters the battlefield",
	"etbs":                   "enters the battlefield",
	"ltb":                    "leaves the battlefield",
	"edh":                    "commander",
	"cmdr":                   "commander",
	"gy":                     "graveyard",
	"yard":                   "graveyard",
	"pw":                     "planeswalker",
	"pws":                    "planeswalker",
	"walkers":                "planeswalker",
	"legendaries":            "legendary",
	"fliers":                 "flying creature",
	"flyers":                 "flying creature",
	"instants and sorceries": "instant or sorcery",
	"instant and sorcery":    "instant or sorcery",
	"token makers":           "token generator",
	"token generators":       "token generator",
	"mono colored":           "monocolored",
	"mono-colored":           "monocolored",
	"multi colored":          "multicolored",
	"multi-colored":          "multicolored",
	"multicolor":             "multicolored",
	"gold cards":             "multicolored",
	"bucks":                  "dollars",
	"usd":                    "dollars",
}

// fieldSynonyms rewrites field names to the short codes of the search syntax.
var fieldSynonyms = map[string]string{
	"converted mana cost": "mv",
	"mana value":          "mv",
	"cmc":                 "mv",
	"power":               "pow",
	"toughness":           "tou",
}

// numberWords is the bounded set of spelled-out numbers converted to digits.
var numberWords = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20",
}

// dictionary performs longest-match phrase replacement over a word list.
type dictionary struct {
	phrases  map[string]string
	maxWords int
}

func newDictionary(phrases map[string]string) dictionary {
	d := dictionary{phrases: phrases}
	for k := range phrases {
		if n := len(strings.Fields(k)); n > d.maxWords {
			d.maxWords = n
		}
	}
	return d
}

// apply scans words left to right, replacing the longest phrase starting at
// each position. Replacement output is not rescanned.
func (d dictionary) apply(words []string) []string {
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for n := min(d.maxWords, len(words)-i); n >= 1; n-- {
			if rep, ok := d.phrases[strings.Join(words[i:i+n], " ")]; ok {
				out = append(out, strings.Fields(rep)...)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return out
}
