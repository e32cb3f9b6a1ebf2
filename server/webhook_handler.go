package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartduck/wabot/bot/kb"
	"github.com/smartduck/wabot/channel"
	"github.com/smartduck/wabot/channel/whatsapp"
	"github.com/smartduck/wabot/media"
	"github.com/smartduck/wabot/metrics"
)

// Boundary texts not driven by the knowledge base. They cover message kinds
// the pipeline does not classify (raw media acknowledgments) and hard
// processing failures.
var (
	imageAckText = map[kb.Locale]string{
		kb.LocaleFR: "Image bien reçue 👍 (pas d'analyse automatique).",
		kb.LocaleEN: "Image received 👍 (no automatic analysis).",
	}
	otherAckText = map[kb.Locale]string{
		kb.LocaleFR: "Message reçu. Pour l'instant, je gère surtout texte, images et audio.",
		kb.LocaleEN: "Message received. For now I mostly handle text, images and audio.",
	}
	errorText = map[kb.Locale]string{
		kb.LocaleFR: "Oups, une erreur est survenue. Réessaie plus tard 🛠️",
		kb.LocaleEN: "Oops, something went wrong. Please try again later 🛠️",
	}
)

// handleWebhookVerify answers the Meta subscription handshake: echo
// hub.challenge back when the verify token matches.
func (s *Server) handleWebhookVerify(c echo.Context) error {
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")
	if token == s.profile.WhatsAppVerifyToken && challenge != "" {
		return c.String(http.StatusOK, challenge)
	}
	metrics.WebhookRejected.Inc()
	return c.NoContent(http.StatusForbidden)
}

// handleWebhook ingests message deliveries. After the signature check it
// always answers 200: Meta retries non-2xx aggressively and a retry storm on
// a poison payload helps nobody. Failures are logged and counted instead.
func (s *Server) handleWebhook(c echo.Context) error {
	metrics.WebhooksReceived.Inc()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		metrics.WebhookParseErrors.Inc()
		return c.NoContent(http.StatusOK)
	}
	if !whatsapp.VerifySignature(s.profile.WhatsAppAppSecret, body, c.Request().Header.Get("X-Hub-Signature-256")) {
		metrics.WebhookRejected.Inc()
		slog.Warn("webhook signature rejected", "remote_addr", c.Request().RemoteAddr)
		return c.NoContent(http.StatusForbidden)
	}

	messages, err := whatsapp.ParsePayload(body)
	if err != nil {
		metrics.WebhookParseErrors.Inc()
		slog.Error("webhook payload parse failed", "error", err)
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	for _, msg := range messages {
		s.processMessage(ctx, msg)
	}
	return c.NoContent(http.StatusOK)
}

// processMessage handles one inbound message end to end. Errors never
// propagate: the sender gets a short apology and the failure is logged under
// the message's processing id.
func (s *Server) processMessage(ctx context.Context, msg channel.IncomingMessage) {
	start := time.Now()
	defer func() {
		metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.MessagesProcessed.WithLabelValues(msg.Type.String()).Inc()

	log := slog.With("process_id", uuid.NewString(), "from", msg.From, "type", msg.Type.String())
	s.messenger.MarkRead(ctx, msg.MessageID)

	var err error
	switch msg.Type {
	case channel.MessageTypeText:
		err = s.replyTo(ctx, msg.From, msg.Text)
	case channel.MessageTypeAudio:
		err = s.handleAudio(ctx, msg)
	case channel.MessageTypeImage:
		err = s.handleImage(ctx, msg)
	default:
		err = s.send(ctx, msg.From, otherAckText[s.defaultLocale()], nil)
	}
	if err != nil {
		log.Error("failed handling message", "error", err)
		if sendErr := s.send(ctx, msg.From, errorText[s.defaultLocale()], nil); sendErr != nil {
			log.Error("failed sending error reply", "error", sendErr)
		}
	}
}

// replyTo runs the pipeline over text and delivers the plan.
func (s *Server) replyTo(ctx context.Context, to, text string) error {
	plan, _ := s.assistant.Reply(ctx, text)
	return s.send(ctx, to, plan.Text, plan.QuickReplies)
}

// handleAudio downloads the voice note, transcribes it and classifies the
// transcript like any other text. Placeholder transcripts from a disabled
// transcriber flow through the same path and land on the fallback intent.
func (s *Server) handleAudio(ctx context.Context, msg channel.IncomingMessage) error {
	if msg.MediaID == "" {
		return s.send(ctx, msg.From, errorText[s.defaultLocale()], nil)
	}
	url, mimeType, err := s.messenger.GetMediaURL(ctx, msg.MediaID)
	if err != nil {
		return err
	}
	data, contentType, err := s.messenger.DownloadMedia(ctx, url)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = contentType
	}

	locale := s.defaultLocale()
	transcript, err := s.transcriber.Transcribe(ctx, data, mimeType, locale)
	if err != nil {
		return err
	}
	return s.replyTo(ctx, msg.From, transcript)
}

// handleImage acknowledges the photo, or runs zone inference when the
// capability is wired and answers with the zone's pricing.
func (s *Server) handleImage(ctx context.Context, msg channel.IncomingMessage) error {
	// A caption is just text; classify it.
	if msg.Caption != "" {
		return s.replyTo(ctx, msg.From, msg.Caption)
	}
	if s.zones == nil || msg.MediaID == "" {
		return s.send(ctx, msg.From, imageAckText[s.defaultLocale()], nil)
	}

	url, _, err := s.messenger.GetMediaURL(ctx, msg.MediaID)
	if err != nil {
		return err
	}
	data, _, err := s.messenger.DownloadMedia(ctx, url)
	if err != nil {
		return err
	}
	prepared, err := media.PrepareImage(data, 1024)
	if err != nil {
		return err
	}
	entities, err := s.zones.InferZones(ctx, prepared)
	if err != nil || len(entities) == 0 {
		if err != nil {
			slog.Warn("zone inference failed", "error", err)
		}
		return s.send(ctx, msg.From, imageAckText[s.defaultLocale()], nil)
	}

	// Inferred zones feed the same composer enrichment as text entities.
	plan := s.assistant.Compose(kb.ClassifiedIntent{
		IntentID:   "pricing_zone",
		Confidence: kb.MatchConfidence,
		Locale:     s.defaultLocale(),
		Entities:   entities,
	})
	return s.send(ctx, msg.From, plan.Text, plan.QuickReplies)
}

func (s *Server) send(ctx context.Context, to, body string, quickReplies []string) error {
	var err error
	if len(quickReplies) > 0 {
		err = s.messenger.SendQuickReplies(ctx, to, body, quickReplies)
	} else {
		err = s.messenger.SendText(ctx, to, body)
	}
	if err != nil {
		metrics.SendErrors.Inc()
		return err
	}
	metrics.RepliesSent.Inc()
	return nil
}

func (s *Server) defaultLocale() kb.Locale {
	loc := s.assistant.DefaultLocale()
	if _, ok := errorText[loc]; !ok {
		return kb.LocaleFR
	}
	return loc
}
