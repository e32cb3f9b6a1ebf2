// Package media handles multimedia boundary work: voice note transcription
// and image preparation for the optional zone inference capability.
package media

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smartduck/wabot/bot/kb"
)

// Diagnostic placeholders returned instead of errors when transcription is
// unavailable. The pipeline classifies them like any other text, so a
// misconfigured deployment answers with the fallback intent instead of
// going silent.
const (
	placeholderDisabled   = "[Transcription désactivée : configure STT_PROVIDER et STT_API_KEY]"
	placeholderMissingKey = "[Impossible de transcrire : clé API manquante]"
	placeholderFailed     = "[Erreur transcription]"
	placeholderUnknown    = "[STT provider inconnu]"
)

// Transcriber converts voice notes to text.
type Transcriber interface {
	// Transcribe returns the transcript of an audio payload. Implementations
	// may return a diagnostic placeholder instead of failing; callers must
	// accept any returned string, including empty or marker text.
	Transcribe(ctx context.Context, audio []byte, mimeType string, locale kb.Locale) (string, error)
}

// NewTranscriber builds the transcriber for the configured STT provider.
// Unknown providers get a static placeholder implementation rather than an
// error: a typo in config must not keep the bot from answering.
func NewTranscriber(provider, apiKey, baseURL string) Transcriber {
	switch provider {
	case "", "none":
		return placeholderTranscriber{text: placeholderDisabled}
	case "whisper":
		if apiKey == "" {
			slog.Warn("whisper selected but STT API key missing")
			return placeholderTranscriber{text: placeholderMissingKey}
		}
		return NewWhisperTranscriber(apiKey, baseURL)
	default:
		slog.Warn("unknown STT provider", "provider", provider)
		return placeholderTranscriber{text: placeholderUnknown}
	}
}

// placeholderTranscriber always returns the same diagnostic string.
type placeholderTranscriber struct {
	text string
}

func (t placeholderTranscriber) Transcribe(context.Context, []byte, string, kb.Locale) (string, error) {
	return t.text, nil
}

// WhisperTranscriber transcribes audio through the OpenAI Whisper API.
type WhisperTranscriber struct {
	client *openai.Client
}

// NewWhisperTranscriber creates a Whisper transcriber. baseURL overrides the
// OpenAI endpoint for compatible providers; empty keeps the default.
func NewWhisperTranscriber(apiKey, baseURL string) *WhisperTranscriber {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &WhisperTranscriber{client: openai.NewClientWithConfig(cfg)}
}

// Transcribe sends the audio to Whisper. API failures degrade to a
// diagnostic placeholder; the error return is reserved for context
// cancellation.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string, locale kb.Locale) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "audio" + extensionFor(mimeType),
		Language: languageFor(locale),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Error("whisper transcription failed", "error", err)
		return placeholderFailed, nil
	}
	return resp.Text, nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/ogg"):
		return ".ogg"
	case strings.HasPrefix(mimeType, "audio/wav"):
		return ".wav"
	case strings.HasPrefix(mimeType, "audio/mp3"), strings.HasPrefix(mimeType, "audio/mpeg"):
		return ".mp3"
	default:
		return ".m4a"
	}
}

func languageFor(locale kb.Locale) string {
	if strings.HasPrefix(string(locale), "fr") {
		return "fr"
	}
	return "en"
}
