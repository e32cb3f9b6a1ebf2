package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartduck/wabot/bot/kb"
)

func TestDetectLocale(t *testing.T) {
	d := NewLocaleDetector(kb.LocaleFR)

	tests := []struct {
		input    string
		expected kb.Locale
	}{
		{"", kb.LocaleFR}, // empty falls back to the default
		{"Bonjour, je voudrais un RDV", kb.LocaleFR},
		{"merci beaucoup", kb.LocaleFR},
		{"tarif visage svp", kb.LocaleFR},
		{"hello, how much is it?", kb.LocaleEN},
		{"I want to book an appointment", kb.LocaleEN},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.Detect(tt.input))
		})
	}
}

func TestDetectLocaleDefault(t *testing.T) {
	d := NewLocaleDetector(kb.LocaleEN)
	assert.Equal(t, kb.LocaleEN, d.Detect(""))

	// Zero value falls back to French.
	d = NewLocaleDetector("")
	assert.Equal(t, kb.LocaleFR, d.Detect(""))
}
