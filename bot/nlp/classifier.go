package nlp

import (
	"log/slog"

	"github.com/smartduck/wabot/bot/kb"
)

// Classifier applies the knowledge base's ordered pattern rules to message
// text. First match wins; the routing order in the knowledge base decides
// priority when several intents could match.
type Classifier struct {
	kb        *kb.KB
	extractor *Extractor
}

// NewClassifier creates a classifier bound to a knowledge base.
func NewClassifier(k *kb.KB) *Classifier {
	return &Classifier{kb: k, extractor: NewExtractor(k)}
}

// Classify determines the intent of a message. It never fails: a message no
// rule matches yields the reserved fallback intent with low confidence, and
// patterns that failed to compile at load time are treated as non-matching.
func (c *Classifier) Classify(rawText string, locale kb.Locale) kb.ClassifiedIntent {
	normalized := Normalize(rawText)
	entities := c.extractor.Extract(rawText)

	for _, id := range c.kb.RoutingOrder {
		intent := c.kb.IntentByID(id)
		if intent == nil {
			// Routing entries without a matching intent are skipped, not errors.
			continue
		}
		if pattern, ok := intent.FirstMatch(normalized); ok {
			return kb.ClassifiedIntent{
				IntentID:       intent.ID,
				Confidence:     kb.MatchConfidence,
				Locale:         locale,
				Entities:       entities,
				MatchedPattern: pattern,
			}
		}
	}

	slog.Debug("no intent rule matched", "locale", locale)
	return kb.ClassifiedIntent{
		IntentID:   kb.FallbackIntentID,
		Confidence: kb.FallbackConfidence,
		Locale:     locale,
		Entities:   entities,
	}
}
