// Package nlp implements the rule-based message understanding pipeline:
// text normalization, entity extraction, intent classification and locale
// detection. Everything here is pure computation over the loaded knowledge
// base; the package does no I/O.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and removes combining diacritical marks, so
// "complètes" and "completes" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes text for matching: lowercase, diacritics stripped,
// surrounding whitespace trimmed. Idempotent and side-effect free. The same
// normalization is applied to user text and to the knowledge base vocabulary,
// so matching is consistent regardless of accent usage.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the raw text.
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}
