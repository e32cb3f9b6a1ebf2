package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/smartduck/wabot/channel"
)

// Webhook payload structures for the Cloud API
// (entry -> changes -> value -> messages).
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *webhookMedia `json:"audio"`
	Voice *webhookMedia `json:"voice"`
	Image *struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
		Caption  string `json:"caption"`
	} `json:"image"`
}

type webhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

// ParsePayload converts a webhook delivery into normalized inbound messages.
// A delivery can carry several messages; status-only deliveries yield an
// empty slice, which is not an error.
func ParsePayload(body []byte) ([]channel.IncomingMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, channel.ErrInvalidPayload.WithCause(err)
	}

	var messages []channel.IncomingMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				messages = append(messages, convertMessage(m))
			}
		}
	}
	return messages, nil
}

func convertMessage(m webhookMessage) channel.IncomingMessage {
	msg := channel.IncomingMessage{
		From:      m.From,
		MessageID: m.ID,
		Timestamp: parseTimestamp(m.Timestamp),
	}
	switch m.Type {
	case "text":
		msg.Type = channel.MessageTypeText
		if m.Text != nil {
			msg.Text = m.Text.Body
		}
	case "audio", "voice":
		msg.Type = channel.MessageTypeAudio
		media := m.Audio
		if media == nil {
			media = m.Voice
		}
		if media != nil {
			msg.MediaID = media.ID
			msg.MimeType = media.MimeType
		}
	case "image":
		msg.Type = channel.MessageTypeImage
		if m.Image != nil {
			msg.MediaID = m.Image.ID
			msg.MimeType = m.Image.MimeType
			msg.Caption = m.Image.Caption
		}
	default:
		msg.Type = channel.MessageTypeOther
	}
	return msg
}

func parseTimestamp(s string) time.Time {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0)
	}
	return time.Time{}
}

// VerifySignature checks the X-Hub-Signature-256 header against the raw body.
// Meta signs each delivery with HMAC-SHA256 over the payload using the app
// secret. An empty appSecret disables the check (local development).
func VerifySignature(appSecret string, body []byte, signatureHeader string) bool {
	if appSecret == "" {
		return true
	}
	const prefix = "sha256="
	if !strings.HasPrefix(signatureHeader, prefix) {
		return false
	}
	expected, err := hex.DecodeString(strings.TrimPrefix(signatureHeader, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}
