package kb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKB = `{
  "intents": [
    {
      "id": "pricing",
      "patterns": ["\\b(tarif|prix)\\b"],
      "enrich": ["zone_price"],
      "response": {
        "templates": {"fr": "Le tarif pour {zone} est {prix_zone}€."},
        "quick_replies": ["RDV"]
      }
    },
    {
      "id": "greeting",
      "patterns": ["\\bbonjour\\b"],
      "response": {
        "templates": {"fr": "Hello {marque} !", "en": "Hi from {marque}!"},
        "quick_replies": ["Tarifs", "RDV"]
      }
    }
  ],
  "routing": {"order": ["pricing", "greeting", "ghost_intent"]},
  "entities": [
    {"type": "zone", "values": ["visage", "jambes complètes"]},
    {"type": "ville", "values": ["Paris"]}
  ],
  "variables_defaults": {"marque": "SmartDuck"},
  "tarifs": {"monozone": [{"zone": "Visage", "prix": 49}]},
  "horaires": {"Paris": {"lun_ven": "9:30-19:30", "sam": "10:00-18:00"}}
}`

func TestLoad(t *testing.T) {
	k, err := Load(strings.NewReader(testKB))
	require.NoError(t, err)

	require.Len(t, k.Intents, 2)
	assert.Equal(t, "pricing", k.Intents[0].ID)
	assert.Equal(t, []string{"pricing", "greeting", "ghost_intent"}, k.RoutingOrder)
	require.Len(t, k.Entities, 2)
	assert.Equal(t, "zone", k.Entities[0].Type)
	assert.Equal(t, []string{"visage", "jambes complètes"}, k.Entities[0].Values)
	assert.NoError(t, k.Validate())
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", `{"intents": [`},
		{"not json", `hello`},
		{"no intents", `{"routing": {"order": []}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoad)
		})
	}
}

func TestLoadToleratesBadPattern(t *testing.T) {
	const badPattern = `{
	  "intents": [
	    {
	      "id": "broken",
	      "patterns": ["[unclosed", "\\bok\\b"],
	      "response": {"templates": {"fr": "ok"}, "quick_replies": []}
	    }
	  ],
	  "routing": {"order": ["broken"]}
	}`
	k, err := Load(strings.NewReader(badPattern))
	require.NoError(t, err, "a bad pattern must not fail the load")

	// The invalid pattern is non-matching, the valid one still works.
	intent := k.IntentByID("broken")
	require.NotNil(t, intent)
	pattern, ok := intent.FirstMatch("everything ok here")
	assert.True(t, ok)
	assert.Equal(t, `\bok\b`, pattern)

	// Validate reports it for deployments that want to fail fast.
	err = k.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[unclosed")
}

func TestPriceForZone(t *testing.T) {
	k, err := Load(strings.NewReader(testKB))
	require.NoError(t, err)

	// Case-insensitive on the zone key (declared as "Visage").
	assert.Equal(t, 49.0, k.PriceForZone("visage"))
	assert.Equal(t, 49.0, k.PriceForZone("VISAGE"))
	assert.Equal(t, 0.0, k.PriceForZone("inexistante"))
}

func TestVariable(t *testing.T) {
	k, err := Load(strings.NewReader(testKB))
	require.NoError(t, err)

	assert.Equal(t, "SmartDuck", k.Variable("marque"))
	assert.Equal(t, "", k.Variable("unset_variable"))
}

func TestHoursFor(t *testing.T) {
	k, err := Load(strings.NewReader(testKB))
	require.NoError(t, err)

	hours, ok := k.HoursFor("Paris")
	require.True(t, ok)
	assert.Equal(t, "9:30-19:30", hours.Weekday)
	assert.Equal(t, "10:00-18:00", hours.Saturday)

	_, ok = k.HoursFor("Tokyo")
	assert.False(t, ok)
}

func TestLoadDefault(t *testing.T) {
	k, err := LoadDefault()
	require.NoError(t, err)
	require.NotEmpty(t, k.Intents)
	assert.NoError(t, k.Validate(), "embedded dataset must have only valid patterns")
	assert.NotNil(t, k.IntentByID(FallbackIntentID))
	assert.Equal(t, 49.0, k.PriceForZone("visage"))
}
