// Package whatsapp implements the WhatsApp Cloud API (Meta Graph) channel:
// outbound messaging, media retrieval and webhook payload handling.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/smartduck/wabot/channel"
)

// DefaultAPIBase is the Graph API endpoint used when none is configured.
const DefaultAPIBase = "https://graph.facebook.com/v21.0"

// Client talks to the WhatsApp Cloud API for one phone number.
type Client struct {
	apiBase       string
	phoneNumberID string
	token         string
	httpClient    *http.Client
	// Outbound sends are rate limited; the Cloud API throttles per number.
	limiter *rate.Limiter
}

// NewClient creates a Cloud API client.
func NewClient(apiBase, phoneNumberID, token string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{
		apiBase:       apiBase,
		phoneNumberID: phoneNumberID,
		token:         token,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(20), 40),
	}
}

type textPayload struct {
	Body string `json:"body"`
}

type sendTextRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

// SendText sends a plain text message. Transport failures and non-2xx
// responses surface as SEND_FAILED; the caller decides whether to retry (the
// bot does not).
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.postMessage(ctx, sendTextRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	})
}

type interactiveButton struct {
	Type  string `json:"type"`
	Reply struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"reply"`
}

type sendInteractiveRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Interactive      struct {
		Type string `json:"type"`
		Body struct {
			Text string `json:"text"`
		} `json:"body"`
		Action struct {
			Buttons []interactiveButton `json:"buttons"`
		} `json:"action"`
	} `json:"interactive"`
}

// SendQuickReplies sends a text with reply buttons. The Cloud API caps
// interactive messages at 3 buttons of 20 characters; surplus replies are
// dropped and long titles truncated. Without replies this degrades to a
// plain text message.
func (c *Client) SendQuickReplies(ctx context.Context, to, body string, replies []string) error {
	if len(replies) == 0 {
		return c.SendText(ctx, to, body)
	}
	if len(replies) > 3 {
		replies = replies[:3]
	}

	req := sendInteractiveRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
	}
	req.Interactive.Type = "button"
	req.Interactive.Body.Text = body
	for i, title := range replies {
		runes := []rune(title)
		if len(runes) > 20 {
			title = string(runes[:20])
		}
		var btn interactiveButton
		btn.Type = "reply"
		btn.Reply.ID = fmt.Sprintf("qr_%d", i)
		btn.Reply.Title = title
		req.Interactive.Action.Buttons = append(req.Interactive.Action.Buttons, btn)
	}
	return c.postMessage(ctx, req)
}

type markReadRequest struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// MarkRead marks an inbound message as read. Failures are logged, not
// escalated: read receipts are cosmetic.
func (c *Client) MarkRead(ctx context.Context, messageID string) {
	err := c.postMessage(ctx, markReadRequest{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
	if err != nil {
		slog.Warn("mark read failed", "message_id", messageID, "error", err)
	}
}

func (c *Client) postMessage(ctx context.Context, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return channel.ErrSendFailed.WithCause(err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return channel.ErrSendFailed.WithCause(err)
	}
	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return channel.ErrSendFailed.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return channel.ErrSendFailed.WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return channel.ErrSendFailed.WithCause(
			errors.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}

type mediaURLResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// GetMediaURL resolves a media id into a short-lived download URL.
func (c *Client) GetMediaURL(ctx context.Context, mediaID string) (string, string, error) {
	url := fmt.Sprintf("%s/%s", c.apiBase, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", channel.ErrMediaDownloadFailed.WithCause(
			errors.Errorf("status %d", resp.StatusCode))
	}
	var mu mediaURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&mu); err != nil {
		return "", "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	if mu.URL == "" {
		return "", "", channel.ErrMediaDownloadFailed.WithCause(errors.New("no media url returned"))
	}
	return mu.URL, mu.MimeType, nil
}

// DownloadMedia fetches media bytes from a URL returned by GetMediaURL.
// Returns the data and the Content-Type reported by the CDN.
func (c *Client) DownloadMedia(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", channel.ErrMediaDownloadFailed.WithCause(
			errors.Errorf("status %d", resp.StatusCode))
	}
	const maxMediaSize = 25 * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, "", channel.ErrMediaDownloadFailed.WithCause(err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
