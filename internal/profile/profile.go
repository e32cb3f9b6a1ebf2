// Package profile holds the runtime configuration of the bot server.
package profile

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the bot server.
type Profile struct {
	// Server
	Mode    string // "prod", "dev" or "demo"
	Addr    string
	Port    int
	Version string

	// Knowledge base. Empty KBPath means the embedded default dataset.
	KBPath        string
	DefaultLocale string

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string // empty disables webhook signature checks
	WhatsAppAPIBase       string

	// Speech-to-text
	STTProvider string // "none" or "whisper"
	STTAPIKey   string
	STTBaseURL  string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	if p.Port == 0 {
		p.Port = getEnvOrDefaultInt("PORT", 3000)
	}
	p.KBPath = getEnvOrDefault("WABOT_KB_PATH", p.KBPath)
	p.DefaultLocale = getEnvOrDefault("DEFAULT_LOCALE", "fr")

	p.WhatsAppToken = getEnvOrDefault("WHATSAPP_TOKEN", "")
	p.WhatsAppPhoneNumberID = getEnvOrDefault("WHATSAPP_PHONE_NUMBER_ID", "")
	p.WhatsAppVerifyToken = getEnvOrDefault("WHATSAPP_VERIFY_TOKEN", "")
	p.WhatsAppAppSecret = getEnvOrDefault("WHATSAPP_APP_SECRET", "")
	p.WhatsAppAPIBase = getEnvOrDefault("WHATSAPP_API_BASE", "https://graph.facebook.com/v21.0")

	p.STTProvider = getEnvOrDefault("STT_PROVIDER", "none")
	p.STTAPIKey = getEnvOrDefault("STT_API_KEY", "")
	p.STTBaseURL = getEnvOrDefault("STT_BASE_URL", "")
}

// Validate normalizes the mode and enforces required settings. WhatsApp
// credentials are mandatory in prod; dev and demo run without them (the
// webhook still parses, sends are refused by the API).
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Mode == "prod" {
		var missing []string
		if p.WhatsAppToken == "" {
			missing = append(missing, "WHATSAPP_TOKEN")
		}
		if p.WhatsAppPhoneNumberID == "" {
			missing = append(missing, "WHATSAPP_PHONE_NUMBER_ID")
		}
		if p.WhatsAppVerifyToken == "" {
			missing = append(missing, "WHATSAPP_VERIFY_TOKEN")
		}
		if len(missing) > 0 {
			return errors.Errorf("missing required configuration: %v", missing)
		}
	} else if p.WhatsAppToken == "" || p.WhatsAppPhoneNumberID == "" {
		slog.Warn("WhatsApp credentials not configured; outbound sends will fail",
			"mode", p.Mode)
	}
	if p.STTProvider != "none" && p.STTProvider != "whisper" && p.STTProvider != "" {
		slog.Warn("unknown STT provider, transcription will return a placeholder",
			"provider", p.STTProvider)
	}
	return nil
}
