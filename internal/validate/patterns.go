package validate

import (
	"regexp"
	"strings"
	"unicode"
)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed|svg|img|style|link|meta)\b`),
	regexp.MustCompile(`(?i)\bjavascript\s*:`),
	regexp.MustCompile(`(?i)\bdata\s*:\s*text/html`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i);\s*(drop|delete|insert|update|alter|truncate)\s`),
	regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
	regexp.MustCompile(`\$\{|\{\{`),
}

// LooksInjected reports whether s carries a known injection shape or
// control characters.
func LooksInjected(s string) bool {
	for _, r := range s {
		if r == 0 || (unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r') {
			return true
		}
	}
	for _, re := range injectionPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// CountTerms counts the top-level terms of a search string. Quoted phrases,
// /regex/ fragments and parenthesized groups count as one term each; a
// backslash inside a quote or regex escapes the next rune.
func CountTerms(q string) int {
	n, depth := 0, 0
	inTerm, escaped := false, false
	var quote rune
	for _, r := range strings.TrimSpace(q) {
		switch {
		case escaped:
			escaped = false
			continue
		case quote != 0:
			switch r {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
			continue
		case r == '"' || r == '/':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case unicode.IsSpace(r) && depth == 0:
			inTerm = false
			continue
		}
		if !inTerm {
			n++
			inTerm = true
		}
	}
	return n
}

// Shapes of inbound identifiers.
var (
	SessionIDShape = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
	UUIDShape      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	JWTShape       = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
	SecretShape    = regexp.MustCompile(`^[\x21-\x7e]{16,512}$`)
)

// TokenShape accepts bearer credentials that look like a signed token or
// an opaque secret.
func TokenShape() Rule {
	return func(field, v string) *FieldError {
		if JWTShape.MatchString(v) || SecretShape.MatchString(v) {
			return nil
		}
		return &FieldError{Field: field, Kind: KindFormat, Msg: "is not a well-formed credential"}
	}
}
