package extract

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/query"
)

// cardTypes holds card types and supertypes; anything else is a subtype.
var cardTypes = map[string]bool{
	"creature": true, "artifact": true, "enchantment": true, "land": true,
	"instant": true, "sorcery": true, "planeswalker": true, "battle": true,
	"kindred": true, "tribal": true, "legendary": true, "basic": true,
	"snow": true,
}

var typeForms = formsOf(keys(cardTypes), map[string]string{
	"sorceries": "sorcery",
})

var subtypeForms = formsOf([]string{
	"elf", "goblin", "zombie", "vampire", "dragon", "angel", "demon",
	"human", "wizard", "warrior", "soldier", "knight", "merfolk", "sliver",
	"dinosaur", "cat", "dog", "beast", "elemental", "spirit", "faerie",
	"ninja", "pirate", "rogue", "cleric", "shaman", "druid", "giant",
	"horror", "insect", "snake", "wolf", "bird", "hydra", "sphinx",
	"treefolk", "fungus", "squirrel", "rat", "dwarf", "elk", "ooze",
	"golem", "construct", "thopter", "servo", "myr", "phyrexian", "eldrazi",
	"kraken", "leviathan", "octopus", "serpent", "nightmare", "shapeshifter",
	"assassin", "berserker", "samurai", "monk", "advisor", "noble",
	"equipment", "aura", "vehicle", "saga", "treasure", "food", "clue",
	"curse", "shrine", "gate", "desert",
	"forest", "island", "swamp", "mountain", "plains", "ally", "werewolf",
	"minotaur", "centaur", "satyr", "god", "devil", "imp", "gnome",
}, map[string]string{
	"elves":      "elf",
	"wolves":     "wolf",
	"dwarves":    "dwarf",
	"fungi":      "fungus",
	"sphinxes":   "sphinx",
	"allies":     "ally",
	"werewolves": "werewolf",
})

// formsOf maps singular and plural forms to the singular name.
func formsOf(singulars []string, irregular map[string]string) map[string]string {
	forms := make(map[string]string, len(singulars)*2+len(irregular))
	for _, s := range singulars {
		forms[s] = s
		switch {
		case strings.HasSuffix(s, "folk"), s == "plains", s == "equipment",
			s == "myr", s == "eldrazi", s == "samurai", s == "phyrexian":
		default:
			forms[s+"s"] = s
		}
	}
	for k, v := range irregular {
		forms[k] = v
	}
	return forms
}

func mergeForms(all ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range all {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var (
	typeAlt     = alternation(keys(exclusionForms))
	typeOrRegex = regexp.MustCompile(`\b(` + typeAlt + `)((?:\s+or\s+(?:` + typeAlt + `))+)\b`)
	spellsRegex = regexp.MustCompile(`\bspells\b`)
)

// Types recognizes card types and subtypes. "X or Y" becomes a disjunctive
// group, "spells" means instant or sorcery and remaining type words are
// conjunctive, since a card can hold several types at once.
func Types(rest string, ir *query.IR) string {
	rest = consume(rest, typeOrRegex, func(m []string) bool {
		names := []string{exclusionForms[m[1]]}
		for _, w := range strings.Fields(m[2]) {
			if w == "or" {
				continue
			}
			names = append(names, exclusionForms[w])
		}
		ir.AddSpecial(orGroup("t", names))
		return true
	})
	rest = consume(rest, spellsRegex, func([]string) bool {
		ir.AddSpecial(orGroup("t", []string{"instant", "sorcery"}))
		return true
	})

	words := strings.Fields(rest)
	out := words[:0]
	for _, w := range words {
		if t, ok := typeForms[w]; ok {
			ir.AddType(t)
			continue
		}
		if t, ok := subtypeForms[w]; ok {
			ir.AddSubtype(t)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// orGroup renders a parenthesized disjunction over one field, keeping the
// first occurrence of each value.
func orGroup(field string, values []string) string {
	seen := make(map[string]bool, len(values))
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		parts = append(parts, field+":"+v)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " or ") + ")"
}
