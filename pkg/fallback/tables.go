package fallback

import (
	"sort"
	"strings"
)

// phrases are whole requests with a known translation.
var phrases = map[string]string{
	"board wipes":            "otag:board-wipe",
	"mana rocks":             "otag:mana-rock",
	"mana dorks":             "otag:mana-dork",
	"card draw":              "otag:draw",
	"ramp":                   "otag:ramp",
	"removal":                "otag:removal",
	"cheap removal":          "otag:removal usd<1",
	"counterspells":          "otag:counterspell",
	"tutors":                 "otag:tutor",
	"commanders":             "is:commander",
	"best commanders":        "is:commander order:edhrec",
	"lands that fetch":       "otag:fetchland t:land",
	"fetch lands":            "otag:fetchland t:land",
	"dual lands":             "is:dual t:land",
	"instants and sorceries": "(t:instant or t:sorcery)",
}

// slang maps community phrases to search fragments.
var slang = map[string][]string{
	"mana rocks":    {"otag:mana-rock"},
	"mana rock":     {"otag:mana-rock"},
	"rocks":         {"otag:mana-rock"},
	"mana dorks":    {"otag:mana-dork"},
	"mana dork":     {"otag:mana-dork"},
	"dorks":         {"otag:mana-dork"},
	"board wipes":   {"otag:board-wipe"},
	"board wipe":    {"otag:board-wipe"},
	"wraths":        {"otag:board-wipe"},
	"sweepers":      {"otag:board-wipe"},
	"removal":       {"otag:removal"},
	"ramp":          {"otag:ramp"},
	"card draw":     {"otag:draw"},
	"tutors":        {"otag:tutor"},
	"tutor":         {"otag:tutor"},
	"counterspells": {"otag:counterspell"},
	"cantrips":      {"otag:cantrip"},
	"lifegain":      {"otag:lifegain"},
	"life gain":     {"otag:lifegain"},
	"etb":           {`o:"enters the battlefield"`},
	"fliers":        {"kw:flying", "t:creature"},
	"flyers":        {"kw:flying", "t:creature"},
	"edh":           {"f:commander"},
	"cheap":         {"usd<1"},
	"budget":        {"usd<1"},
	"spells":        {"(t:instant or t:sorcery)"},
	"tokens":        {`o:"create"`, `o:"token"`},
	"treasure":      {"t:treasure"},
	"pw":            {"t:planeswalker"},
	"walkers":       {"t:planeswalker"},
}

var slangMaxWords = func() int {
	n := 0
	for k := range slang {
		n = max(n, len(strings.Fields(k)))
	}
	return n
}()

var guilds = map[string]string{
	"azorius": "wu", "dimir": "ub", "rakdos": "br", "gruul": "rg", "selesnya": "gw",
	"orzhov":  "wb", "izzet": "ur", "golgari": "bg", "boros": "rw", "simic": "gu",
	"esper":   "wub", "grixis": "ubr", "jund": "brg", "naya": "rgw", "bant": "gwu",
	"abzan":   "wbg", "jeskai": "urw", "sultai": "bgu", "mardu": "rwb", "temur": "gur",
}

var formats = map[string]string{
	"standard":  "standard", "pioneer": "pioneer", "modern": "modern",
	"legacy":    "legacy", "vintage": "vintage", "pauper": "pauper",
	"commander": "commander", "brawl": "brawl", "historic": "historic",
}

var keywords = []string{
	"first strike", "double strike", "flying", "trample", "haste", "vigilance",
	"deathtouch", "lifelink", "hexproof", "indestructible", "menace", "reach",
	"flash", "defender", "ward", "prowess", "cascade",
}

var numbers = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
}

var fillers = map[string]bool{
	"a":     true, "an": true, "the": true, "with": true, "that": true,
	"cards": true, "card": true, "in": true, "for": true, "of": true,
	"and":   true, "or": true, "to": true, "is": true, "are": true,
	"me":    true, "my": true, "show": true, "find": true, "some": true,
	"good":  true, "best": true, "deck": true, "mana": true, "cost": true,
}

// keysOf returns map keys longest first, so regexp alternations prefer the
// longest name.
func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
