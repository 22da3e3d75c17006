package extract

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

// phraseTable maps whole-word phrases to search fragments.
type phraseTable struct {
	entries  map[string][]string
	maxWords int
}

func newPhraseTable(entries map[string][]string) phraseTable {
	t := phraseTable{entries: entries}
	for k := range entries {
		if n := len(strings.Fields(k)); n > t.maxWords {
			t.maxWords = n
		}
	}
	return t
}

// extract removes every table phrase from rest, longest match first.
func (t phraseTable) extract(rest string, ir *query.IR) string {
	words := strings.Fields(rest)
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		n, fragments := t.longest(words[i:])
		if n == 0 {
			out = append(out, words[i])
			i++
			continue
		}
		for _, f := range fragments {
			emit(ir, f)
		}
		i += n
	}
	return strings.Join(out, " ")
}

func (t phraseTable) longest(words []string) (int, []string) {
	for n := min(t.maxWords, len(words)); n >= 1; n-- {
		if f, ok := t.entries[strings.Join(words[:n], " ")]; ok {
			return n, f
		}
	}
	return 0, nil
}

// Effects named after a well-known card.
var cardFunctionTable = newPhraseTable(map[string][]string{
	"cultivate effect":             {"otag:land-ramp"},
	"cultivate effects":            {"otag:land-ramp"},
	"rampant growth effect":        {"otag:land-ramp"},
	"rampant growth effects":       {"otag:land-ramp"},
	"wrath effect":                 {"otag:board-wipe"},
	"wrath effects":                {"otag:board-wipe"},
	"wrath of god effects":         {"otag:board-wipe"},
	"swords effects":               {"otag:removal", `o:"exile target creature"`},
	"swords to plowshares effects": {"otag:removal", `o:"exile target creature"`},
	"path effects":                 {"otag:removal", `o:"exile target creature"`},
	"demonic tutor effects":        {"otag:tutor"},
	"lightning bolt effects":       {"otag:burn"},
	"bolt effects":                 {"otag:burn"},
	"llanowar elves effects":       {"otag:mana-dork"},
	"sol ring effects":             {"otag:mana-rock"},
	"rhystic study effects":        {"otag:card-advantage"},
	"doubling season effects":      {"otag:counter-doubler"},
	"panharmonicon effects":        {"otag:trigger-doubler"},
	"blood artist effects":         {"otag:death-trigger"},
	"craterhoof effects":           {"otag:overrun"},
	"overrun effects":              {"otag:overrun"},
	"wheel of fortune effects":     {"otag:wheel"},
	"wheel effects":                {"otag:wheel"},
	"fog effects":                  {"otag:fog"},
	"brainstorm effects":           {"otag:cantrip"},
	"time warp effects":            {"otag:extra-turn"},
	"reanimate effects":            {"otag:reanimation"},
	"animate dead effects":         {"otag:reanimation"},
	"counterspell effects":         {"otag:counterspell"},
	"cyclonic rift effects":        {"otag:bounce"},
	"evolving wilds effects":       {"otag:fetchland"},
	"thassa's oracle effects":      {`o:"win the game"`},
	"smothering tithe effects":     {"otag:treasure-generator"},
	"rest in peace effects":        {"otag:graveyard-hate"},
	"ghostly prison effects":       {"otag:pillowfort"},
	"propaganda effects":           {"otag:pillowfort"},
	"goblin bombardment effects":   {"otag:sacrifice-outlet"},
	"skullclamp effects":           {"otag:draw"},
	"phyrexian arena effects":      {"otag:card-advantage"},
	"mystic remora effects":        {"otag:card-advantage"},
	"anointed procession effects":  {"otag:token-doubler"},
	"parallel lives effects":       {"otag:token-doubler"},
	"impact tremors effects":       {"otag:death-trigger"},
	"purphoros effects":            {`o:"deals 2 damage to each opponent"`},
	"teferi's protection effects":  {"otag:phasing"},
	"heroic intervention effects":  {"otag:protection"},
	"lightning greaves effects":    {"otag:protection"},
	"mind stone effects":           {"otag:mana-rock"},
	"farseek effects":              {"otag:land-ramp"},
	"kodama's reach effects":       {"otag:land-ramp"},
	"signets":                      {"otag:mana-rock", "t:artifact"},
	"talismans":                    {"otag:mana-rock", "t:artifact"},
	"fetchlands":                   {"otag:fetchland", "t:land"},
	"shocklands":                   {"otag:shockland", "t:land"},
	"dual lands":                   {"is:dual", "t:land"},
	"duals":                        {"is:dual", "t:land"},
	"bouncelands":                  {"otag:bounceland", "t:land"},
	"triomes":                      {"otag:triome", "t:land"},
	"man lands":                    {"otag:manland", "t:land"},
	"manlands":                     {"otag:manland", "t:land"},
	"utility lands":                {"otag:utility-land", "t:land"},
})

// Community function names with an existing oracle tag.
var tagTable = newPhraseTable(map[string][]string{
	"mana rock":          {"otag:mana-rock"},
	"mana dork":          {"otag:mana-dork"},
	"board wipe":         {"otag:board-wipe"},
	"removal":            {"otag:removal"},
	"spot removal":       {"otag:removal"},
	"creature removal":   {"otag:creature-removal"},
	"artifact removal":   {"otag:artifact-removal"},
	"ramp":               {"otag:ramp"},
	"land ramp":          {"otag:land-ramp"},
	"card draw":          {"otag:draw"},
	"draw":               {"otag:draw"},
	"card advantage":     {"otag:card-advantage"},
	"tutor":              {"otag:tutor"},
	"counterspell":       {"otag:counterspell"},
	"cantrip":            {"otag:cantrip"},
	"lifegain":           {"otag:lifegain"},
	"sacrifice outlet":   {"otag:sacrifice-outlet"},
	"sac outlet":         {"otag:sacrifice-outlet"},
	"burn":               {"otag:burn"},
	"token generator":    {"otag:token-generator"},
	"recursion":          {"otag:recursion"},
	"mill":               {"otag:mill"},
	"discard":            {"otag:discard"},
	"hand disruption":    {"otag:discard"},
	"pump":               {"otag:pump"},
	"anthem":             {"otag:anthem"},
	"graveyard hate":     {"otag:graveyard-hate"},
	"land destruction":   {"otag:land-destruction"},
	"fog":                {"otag:fog"},
	"extra turn":         {"otag:extra-turn"},
	"extra turns":        {"otag:extra-turn"},
	"blink":              {"otag:blink"},
	"flicker":            {"otag:blink"},
	"bounce":             {"otag:bounce"},
	"removal protection": {"otag:protection"},
	"protection":         {"otag:protection"},
	"copy":               {"otag:copy"},
	"clone":              {"otag:clone"},
	"clones":             {"otag:clone"},
	"evasion":            {"otag:evasion"},
	"hate bear":          {"otag:hatebear"},
	"hatebears":          {"otag:hatebear"},
	"tapper":             {"otag:tapper"},
	"tappers":            {"otag:tapper"},
	"untapper":           {"otag:untapper"},
	"looter":             {"otag:loot"},
	"looters":            {"otag:loot"},
	"looting":            {"otag:loot"},
	"rummage":            {"otag:rummage"},
	"wincon":             {"otag:wincon"},
	"win condition":      {"otag:wincon"},
	"win conditions":     {"otag:wincon"},
	"finisher":           {"otag:finisher"},
	"finishers":          {"otag:finisher"},
})

var artTagRegex = regexp.MustCompile(`\b(?:art|artwork|illustration)\s+(?:with|of|featuring|showing)\s+(?:an?\s+|the\s+)?([a-z]+)\b`)

// CardFunctions recognizes effects named after a well-known card.
func CardFunctions(rest string, ir *query.IR) string {
	return cardFunctionTable.extract(rest, ir)
}

// Tags recognizes function names backed by the oracle tag taxonomy and
// art descriptions backed by art tags.
func Tags(rest string, ir *query.IR) string {
	rest = consume(rest, artTagRegex, func(m []string) bool {
		ir.AddArtTag("atag:" + m[1])
		return true
	})
	return tagTable.extract(rest, ir)
}

var archetypeTable = newPhraseTable(map[string][]string{
	"aristocrats":      {"otag:sacrifice-outlet"},
	"voltron":          {"(t:equipment or t:aura)"},
	"spellslinger":     {`o:"instant or sorcery spell"`},
	"spells matter":    {`o:"instant or sorcery spell"`},
	"reanimator":       {"otag:reanimation"},
	"reanimation":      {"otag:reanimation"},
	"stax":             {"otag:stax"},
	"self mill":        {"otag:self-mill"},
	"self-mill":        {"otag:self-mill"},
	"superfriends":     {"t:planeswalker"},
	"group hug":        {"otag:group-hug"},
	"pillowfort":       {"otag:pillowfort"},
	"counters matter":  {`o:"+1/+1 counter"`},
	"go wide":          {"otag:anthem"},
	"tokens matter":    {"otag:anthem"},
	"lands matter":     {"kw:landfall"},
	"artifacts matter": {`o:"artifact you control"`},
	"enchantress":      {`o:"whenever you cast an enchantment"`},
	"wheels":           {"otag:wheel"},
	"burn deck":        {"otag:burn"},
})

// Archetypes recognizes strategy names.
func Archetypes(rest string, ir *query.IR) string {
	return archetypeTable.extract(rest, ir)
}
