package nlp

import (
	"strings"

	"github.com/smartduck/wabot/bot/kb"
)

// Extractor scans message text for known vocabulary terms (zones, cities)
// declared in the knowledge base.
type Extractor struct {
	kb *kb.KB
}

// NewExtractor creates an extractor bound to a knowledge base.
func NewExtractor(k *kb.KB) *Extractor {
	return &Extractor{kb: k}
}

// Extract returns every vocabulary value contained in the text. Matching is
// case- and diacritic-insensitive but the emitted value is the verbatim one
// declared in the knowledge base. Output order follows the knowledge base
// declaration order (entity types first, then values), so two runs over the
// same input always yield the same sequence. A value appearing under several
// entity types is emitted once per type.
func (e *Extractor) Extract(rawText string) []kb.DetectedEntity {
	normalized := Normalize(rawText)
	var found []kb.DetectedEntity
	for _, group := range e.kb.Entities {
		for _, value := range group.Values {
			if strings.Contains(normalized, Normalize(value)) {
				found = append(found, kb.DetectedEntity{Type: group.Type, Value: value})
			}
		}
	}
	return found
}
