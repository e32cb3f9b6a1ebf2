package kb

import (
	"strings"

	"github.com/pkg/errors"
)

// KB is the immutable knowledge base. Construct it with Load; do not mutate
// after that.
type KB struct {
	Intents          []Intent
	RoutingOrder     []string
	Entities         []EntityGroup
	VariableDefaults map[string]string

	pricing     map[string]float64 // zone (lowercased) -> price
	hoursByCity map[string]Hours
	intentByID  map[string]*Intent
}

// IntentByID returns the intent with the given id, or nil if unknown.
func (k *KB) IntentByID(id string) *Intent {
	return k.intentByID[id]
}

// Variable returns a default template variable, or "" when unset.
func (k *KB) Variable(name string) string {
	return k.VariableDefaults[name]
}

// PriceForZone returns the price for a treatment zone. The lookup is
// case-insensitive; unknown zones price at 0.
func (k *KB) PriceForZone(zone string) float64 {
	return k.pricing[strings.ToLower(zone)]
}

// HoursFor returns the opening hours for a city.
func (k *KB) HoursFor(city string) (Hours, bool) {
	h, ok := k.hoursByCity[city]
	return h, ok
}

// FirstMatch tests the intent's patterns in declared order against the
// normalized text and returns the first matching pattern. Patterns that
// failed to compile at load time are skipped.
func (it *Intent) FirstMatch(normalized string) (string, bool) {
	for i, re := range it.compiled {
		if re != nil && re.MatchString(normalized) {
			return it.Patterns[i], true
		}
	}
	return "", false
}

// Validate reports every pattern that failed to compile at load time.
// Loading is tolerant (bad patterns are skipped at match time); deployments
// that want to fail fast call Validate after Load.
func (k *KB) Validate() error {
	var bad []string
	for i := range k.Intents {
		it := &k.Intents[i]
		for j, p := range it.Patterns {
			if j < len(it.compiled) && it.compiled[j] == nil {
				bad = append(bad, it.ID+": "+p)
			}
		}
	}
	if len(bad) > 0 {
		return errors.Errorf("invalid patterns: %s", strings.Join(bad, "; "))
	}
	return nil
}
