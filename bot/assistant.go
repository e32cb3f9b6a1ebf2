// Package bot wires the message understanding pipeline: locale detection,
// intent classification and response composition over a shared knowledge
// base. The pipeline is pure in-memory computation; concurrent calls are safe
// because the knowledge base is read-only after load.
package bot

import (
	"context"
	"log/slog"

	"github.com/smartduck/wabot/bot/kb"
	"github.com/smartduck/wabot/bot/nlp"
	"github.com/smartduck/wabot/bot/respond"
	"github.com/smartduck/wabot/metrics"
)

// Assistant answers one message at a time. No state is kept between messages.
type Assistant struct {
	kb         *kb.KB
	detector   *nlp.LocaleDetector
	classifier *nlp.Classifier
	composer   *respond.Composer
}

// New creates an assistant over a loaded knowledge base.
func New(k *kb.KB, defaultLocale kb.Locale) *Assistant {
	return &Assistant{
		kb:         k,
		detector:   nlp.NewLocaleDetector(defaultLocale),
		classifier: nlp.NewClassifier(k),
		composer:   respond.NewComposer(k),
	}
}

// Reply runs the full pipeline for a message text and returns the response
// plan along with the classification it was built from. It never fails;
// unmatched messages get the fallback intent's apology.
func (a *Assistant) Reply(ctx context.Context, text string) (kb.ResponsePlan, kb.ClassifiedIntent) {
	locale := a.detector.Detect(text)
	ci := a.classifier.Classify(text, locale)
	plan := a.composer.Compose(ci)

	metrics.IntentsClassified.WithLabelValues(ci.IntentID).Inc()
	slog.Debug("message classified",
		"intent", ci.IntentID,
		"confidence", ci.Confidence,
		"locale", ci.Locale,
		"entities", len(ci.Entities),
		"matched_pattern", ci.MatchedPattern)
	return plan, ci
}

// Compose builds a response plan for an already classified intent. Used by
// boundary capabilities (image zone inference) that produce entities without
// going through text classification.
func (a *Assistant) Compose(ci kb.ClassifiedIntent) kb.ResponsePlan {
	metrics.IntentsClassified.WithLabelValues(ci.IntentID).Inc()
	return a.composer.Compose(ci)
}

// DefaultLocale returns the locale used when detection has nothing to go on.
func (a *Assistant) DefaultLocale() kb.Locale {
	return a.detector.Detect("")
}
