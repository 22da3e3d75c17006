// Package normalize canonicalizes natural-language card searches before
// extraction. Normalize is idempotent.
package normalize

import (
	"regexp"
	"strings"
)

var (
	slangDict   = newDictionary(slang)
	fieldDict   = newDictionary(fieldSynonyms)
	numbersDict = newDictionary(numberWords)

	quoteReplacer = strings.NewReplacer(
		"‘", "'", "’", "'", "‚", "'", "‛", "'",
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
		"«", `"`, "»", `"`,
	)
	punctReplacer = strings.NewReplacer(",", " ", ";", " ", "!", " ", "?", " ")

	// a period ending a word, but not a decimal point
	trailingDot = regexp.MustCompile(`\.+(\s|$)`)
)

// Normalize lowercases the input, unifies quotes, drops sentence punctuation,
// expands slang, maps field names to their short codes, converts spelled-out
// numbers and collapses whitespace.
func Normalize(input string) string {
	s := strings.ToLower(input)
	s = quoteReplacer.Replace(s)
	s = punctReplacer.Replace(s)
	s = trailingDot.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	words = slangDict.apply(words)
	words = fieldDict.apply(words)
	words = numbersDict.apply(words)
	return strings.Join(words, " ")
}
