// Package respond turns a classified intent into a displayable reply by
// filling the intent's response template with data-driven variables.
package respond

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/smartduck/wabot/bot/kb"
)

// enrichFunc adds intent-specific variables to the table. Registered per
// enrichment rule name so new rules plug in without touching Compose.
type enrichFunc func(c *Composer, ci kb.ClassifiedIntent, vars map[string]string)

// Composer maps classified intents to response plans.
type Composer struct {
	kb        *kb.KB
	enrichers map[string]enrichFunc
}

// NewComposer creates a composer bound to a knowledge base.
func NewComposer(k *kb.KB) *Composer {
	return &Composer{
		kb: k,
		enrichers: map[string]enrichFunc{
			"zone_price": enrichZonePrice,
			"city_hours": enrichCityHours,
		},
	}
}

// Hardcoded last-resort plan for intent ids absent from the knowledge base.
var apologyTemplates = map[kb.Locale]string{
	kb.LocaleFR: "Je n'ai pas compris votre demande. Pouvez-vous reformuler ?",
	kb.LocaleEN: "Sorry, I did not understand your request. Could you rephrase?",
}

var apologyQuickReplies = []string{"Tarifs", "Prestations", "RDV"}

// Compose builds the reply for a classified intent. It always returns a
// displayable plan: unknown intent ids degrade to an apology, missing lookups
// degrade to defaults, and unmatched template placeholders are left as-is.
func (c *Composer) Compose(ci kb.ClassifiedIntent) kb.ResponsePlan {
	intent := c.kb.IntentByID(ci.IntentID)
	if intent == nil {
		slog.Warn("intent id not in knowledge base, using apology plan", "intent", ci.IntentID)
		return kb.ResponsePlan{
			Text:         apologyText(ci.Locale),
			QuickReplies: apologyQuickReplies,
		}
	}

	vars := make(map[string]string, len(c.kb.VariableDefaults)+4)
	for name, value := range c.kb.VariableDefaults {
		vars[name] = value
	}
	for _, rule := range intent.Enrich {
		enrich, ok := c.enrichers[rule]
		if !ok {
			slog.Warn("unknown enrichment rule", "intent", intent.ID, "rule", rule)
			continue
		}
		enrich(c, ci, vars)
	}

	return kb.ResponsePlan{
		Text:         substitute(templateFor(intent, ci.Locale), vars),
		QuickReplies: intent.Response.QuickReplies,
	}
}

func apologyText(locale kb.Locale) string {
	if text, ok := apologyTemplates[locale]; ok {
		return text
	}
	return apologyTemplates[kb.LocaleFR]
}

// templateFor picks the locale's template, falling back to French and then to
// any declared template.
func templateFor(intent *kb.Intent, locale kb.Locale) string {
	if tpl, ok := intent.Response.Templates[locale]; ok {
		return tpl
	}
	if tpl, ok := intent.Response.Templates[kb.LocaleFR]; ok {
		return tpl
	}
	for _, tpl := range intent.Response.Templates {
		return tpl
	}
	return ""
}

// substitute replaces every {name} placeholder with the variable's value.
// Placeholders without a variable stay untouched.
func substitute(template string, vars map[string]string) string {
	out := template
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}

// enrichZonePrice resolves the first detected zone entity into the zone name
// and its price. No zone mentioned means no substitution.
func enrichZonePrice(c *Composer, ci kb.ClassifiedIntent, vars map[string]string) {
	for _, e := range ci.Entities {
		if e.Type != "zone" {
			continue
		}
		vars["zone"] = e.Value
		vars["prix_zone"] = strconv.FormatFloat(c.kb.PriceForZone(e.Value), 'f', -1, 64)
		return
	}
}

// Generic fallbacks when no city is mentioned.
var (
	allCenters = map[kb.Locale]string{
		kb.LocaleFR: "tous nos centres",
		kb.LocaleEN: "all our centers",
	}
	genericHours = map[kb.Locale]string{
		kb.LocaleFR: "Lun-Ven: 9:30-19:30, Sam: 10:00-18:00 (horaires généraux)",
		kb.LocaleEN: "Mon-Fri: 9:30-19:30, Sat: 10:00-18:00 (general hours)",
	}
	hoursFormat = map[kb.Locale]string{
		kb.LocaleFR: "Lun-Ven: %s, Sam: %s",
		kb.LocaleEN: "Mon-Fri: %s, Sat: %s",
	}
)

// enrichCityHours resolves the first detected city entity into that city's
// opening hours, or generic hours covering every center when no city is
// mentioned or the city is unknown.
func enrichCityHours(c *Composer, ci kb.ClassifiedIntent, vars map[string]string) {
	locale := ci.Locale
	if _, ok := hoursFormat[locale]; !ok {
		locale = kb.LocaleFR
	}
	for _, e := range ci.Entities {
		if e.Type != "ville" {
			continue
		}
		if hours, ok := c.kb.HoursFor(e.Value); ok {
			vars["ville_ou_global"] = e.Value
			vars["horaires_ville"] = fmt.Sprintf(hoursFormat[locale], hours.Weekday, hours.Saturday)
			return
		}
	}
	vars["ville_ou_global"] = allCenters[locale]
	vars["horaires_ville"] = genericHours[locale]
}
