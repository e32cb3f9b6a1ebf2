package nlp

import (
	"regexp"

	"github.com/smartduck/wabot/bot/kb"
)

// frHints matches French greeting, politeness and booking words. This is a
// two-way heuristic between the two supported locales, not a general language
// detector; do not expect it to be accurate for arbitrary text.
var frHints = regexp.MustCompile(`(?i)\b(bonjour|salut|merci|svp|tarif|rdv|rendez-vous)\b`)

// LocaleDetector picks the response language for a message.
type LocaleDetector struct {
	defaultLocale kb.Locale
}

// NewLocaleDetector creates a detector that falls back to defaultLocale for
// empty input.
func NewLocaleDetector(defaultLocale kb.Locale) *LocaleDetector {
	if defaultLocale == "" {
		defaultLocale = kb.LocaleFR
	}
	return &LocaleDetector{defaultLocale: defaultLocale}
}

// Detect returns fr when a French hint word is present, en otherwise, and the
// configured default for empty text.
func (d *LocaleDetector) Detect(text string) kb.Locale {
	if text == "" {
		return d.defaultLocale
	}
	if frHints.MatchString(text) {
		return kb.LocaleFR
	}
	return kb.LocaleEN
}
