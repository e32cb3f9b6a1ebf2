// Package kb provides the static knowledge base driving intent matching and
// response templating. The knowledge base is loaded once at startup and is
// read-only afterwards; concurrent readers need no locking.
package kb

import "regexp"

// Locale identifies a response language.
type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"
)

// FallbackIntentID is the reserved intent id returned when no rule matches.
const FallbackIntentID = "fallback_unknown"

// Fixed confidence constants. Intent matching is deterministic rule
// satisfaction: 0.9 means "a rule matched", 0.2 means "no rule matched".
// These are design constants, not calibrated probabilities.
const (
	MatchConfidence    = 0.9
	FallbackConfidence = 0.2
)

// Response holds the templated reply for an intent.
type Response struct {
	// Templates maps a locale to the reply template. Placeholders use the
	// literal {name} syntax and are resolved by the composer.
	Templates map[Locale]string
	// QuickReplies are short suggested replies surfaced with the response.
	QuickReplies []string
}

// Intent is a discrete user goal the bot can recognize.
type Intent struct {
	ID string
	// Patterns are regular expressions evaluated in declared order against
	// the normalized message text. First match wins.
	Patterns []string
	// Enrich names the variable enrichment rules the composer applies for
	// this intent (e.g. "zone_price", "city_hours").
	Enrich   []string
	Response Response

	// compiled mirrors Patterns; a nil entry marks a pattern that failed to
	// compile and is treated as non-matching.
	compiled []*regexp.Regexp
}

// EntityGroup declares the vocabulary for one entity type. Groups and values
// keep their declaration order so extraction output is reproducible.
type EntityGroup struct {
	Type   string
	Values []string
}

// Hours are the opening hours for one city.
type Hours struct {
	Weekday  string
	Saturday string
}

// DetectedEntity is a vocabulary value found in a message. Produced per
// message, never persisted.
type DetectedEntity struct {
	Type  string
	Value string
}

// ClassifiedIntent is the result of classifying one message.
type ClassifiedIntent struct {
	IntentID       string
	Confidence     float64
	Locale         Locale
	Entities       []DetectedEntity
	MatchedPattern string
}

// ResponsePlan is the displayable reply for a classified intent.
type ResponsePlan struct {
	Text         string
	QuickReplies []string
}
