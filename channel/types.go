// Package channel defines the boundary types between the bot pipeline and a
// chat platform: inbound messages, the outbound sender contract and the
// channel error taxonomy.
package channel

import (
	"context"
	"time"
)

// MessageType represents the type of an inbound message.
type MessageType int

const (
	MessageTypeText MessageType = iota
	MessageTypeAudio
	MessageTypeImage
	MessageTypeOther
)

// String returns the string representation of MessageType.
func (m MessageType) String() string {
	switch m {
	case MessageTypeText:
		return "text"
	case MessageTypeAudio:
		return "audio"
	case MessageTypeImage:
		return "image"
	default:
		return "other"
	}
}

// IncomingMessage is a platform message normalized for the pipeline.
type IncomingMessage struct {
	From      string // platform-specific sender id (phone number for WhatsApp)
	MessageID string
	Type      MessageType
	Text      string // text body, empty for media messages
	MediaID   string // platform media id for audio/image
	Caption   string // media caption, if any
	MimeType  string
	Timestamp time.Time
}

// Sender delivers replies to the chat platform. Implementations own any
// retry or backoff policy; the pipeline never retries.
type Sender interface {
	// SendText sends a plain text reply.
	SendText(ctx context.Context, to, body string) error
	// SendQuickReplies sends a text reply with suggested quick replies where
	// the platform supports them, degrading to plain text otherwise.
	SendQuickReplies(ctx context.Context, to, body string, replies []string) error
}
