package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartduck/wabot/bot"
	"github.com/smartduck/wabot/bot/kb"
	"github.com/smartduck/wabot/internal/profile"
	"github.com/smartduck/wabot/media"
)

// fakeMessenger records outbound traffic instead of calling the Cloud API.
type fakeMessenger struct {
	texts        []string
	quickReplies [][]string
	recipients   []string
	marked       []string
	mediaData    []byte
	mediaMime    string
	sendErr      error
}

func (m *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.recipients = append(m.recipients, to)
	m.texts = append(m.texts, body)
	m.quickReplies = append(m.quickReplies, nil)
	return nil
}

func (m *fakeMessenger) SendQuickReplies(ctx context.Context, to, body string, replies []string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.recipients = append(m.recipients, to)
	m.texts = append(m.texts, body)
	m.quickReplies = append(m.quickReplies, replies)
	return nil
}

func (m *fakeMessenger) MarkRead(ctx context.Context, messageID string) {
	m.marked = append(m.marked, messageID)
}

func (m *fakeMessenger) GetMediaURL(ctx context.Context, mediaID string) (string, string, error) {
	return "https://cdn.example.test/" + mediaID, m.mediaMime, nil
}

func (m *fakeMessenger) DownloadMedia(ctx context.Context, url string) ([]byte, string, error) {
	return m.mediaData, m.mediaMime, nil
}

// fixedTranscriber returns a canned transcript.
type fixedTranscriber struct {
	text string
}

func (t fixedTranscriber) Transcribe(context.Context, []byte, string, kb.Locale) (string, error) {
	return t.text, nil
}

// fixedZones returns canned zone entities.
type fixedZones struct {
	entities []kb.DetectedEntity
}

func (z fixedZones) InferZones(context.Context, []byte) ([]kb.DetectedEntity, error) {
	return z.entities, nil
}

func newTestServer(t *testing.T, m Messenger, transcriber media.Transcriber, zones media.ZoneInferrer) *Server {
	t.Helper()
	k, err := kb.LoadDefault()
	require.NoError(t, err)
	p := &profile.Profile{
		Mode:                "dev",
		Version:             "test",
		WhatsAppVerifyToken: "verify-me",
	}
	if transcriber == nil {
		transcriber = fixedTranscriber{text: ""}
	}
	return NewServer(p, bot.New(k, kb.LocaleFR), m, transcriber, zones)
}

func webhookBody(msgType, extra string) string {
	return fmt.Sprintf(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
      "messaging_product":"whatsapp",
      "messages":[{"from":"33612345678","id":"wamid.in1","timestamp":"1756300000","type":"%s"%s}]
    }}]}]}`, msgType, extra)
}

func postWebhook(s *Server, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestWebhookVerify(t *testing.T) {
	s := newTestServer(t, &fakeMessenger{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestWebhookVerifyRejected(t *testing.T) {
	s := newTestServer(t, &fakeMessenger{}, nil, nil)

	for _, target := range []string{
		"/webhook?hub.verify_token=wrong&hub.challenge=12345",
		"/webhook?hub.verify_token=verify-me", // no challenge
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
	}
}

func TestWebhookTextMessage(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	rec := postWebhook(s, webhookBody("text", `,"text":{"body":"Bonjour !"}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"wamid.in1"}, m.marked)
	require.Len(t, m.texts, 1)
	assert.Equal(t, "33612345678", m.recipients[0])
	assert.Contains(t, m.texts[0], "SmartDuck")
	assert.Equal(t, []string{"Tarifs", "Prestations", "RDV"}, m.quickReplies[0])
}

func TestWebhookPricingQuestion(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	postWebhook(s, webhookBody("text", `,"text":{"body":"Le tarif pour le visage ?"}`), nil)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "visage")
	assert.Contains(t, m.texts[0], "49")
}

func TestWebhookSignatureRejected(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)
	s.profile.WhatsAppAppSecret = "app-secret"

	body := webhookBody("text", `,"text":{"body":"Bonjour"}`)
	rec := postWebhook(s, body, http.Header{"X-Hub-Signature-256": []string{"sha256=deadbeef"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, m.texts)
}

func TestWebhookSignatureAccepted(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)
	s.profile.WhatsAppAppSecret = "app-secret"

	body := webhookBody("text", `,"text":{"body":"Bonjour"}`)
	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(body))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	rec := postWebhook(s, body, http.Header{"X-Hub-Signature-256": []string{sig}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, m.texts, 1)
}

func TestWebhookMalformedPayloadStill200(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	rec := postWebhook(s, "this is not json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, m.texts)
}

func TestWebhookAudioMessage(t *testing.T) {
	m := &fakeMessenger{mediaData: []byte("ogg"), mediaMime: "audio/ogg"}
	s := newTestServer(t, m, fixedTranscriber{text: "quel est le tarif du maillot"}, nil)

	rec := postWebhook(s, webhookBody("audio", `,"audio":{"id":"media-1","mime_type":"audio/ogg"}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "maillot")
	assert.Contains(t, m.texts[0], "59")
}

func TestWebhookAudioPlaceholderFallsBack(t *testing.T) {
	// A disabled transcriber yields a diagnostic marker; the pipeline answers
	// with the fallback intent instead of going silent.
	m := &fakeMessenger{mediaData: []byte("ogg"), mediaMime: "audio/ogg"}
	s := newTestServer(t, m, media.NewTranscriber("none", "", ""), nil)

	postWebhook(s, webhookBody("audio", `,"audio":{"id":"media-1","mime_type":"audio/ogg"}`), nil)
	require.Len(t, m.texts, 1)
	// The marker carries no French hint words, so the reply uses the English
	// fallback template.
	assert.Contains(t, m.texts[0], "Sorry")
}

func TestWebhookImageWithCaption(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	postWebhook(s, webhookBody("image", `,"image":{"id":"media-2","mime_type":"image/jpeg","caption":"tarif aisselles ?"}`), nil)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "aisselles")
	assert.Contains(t, m.texts[0], "39")
}

func TestWebhookImageWithoutInference(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	postWebhook(s, webhookBody("image", `,"image":{"id":"media-2","mime_type":"image/jpeg"}`), nil)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "Image bien reçue")
}

func TestWebhookImageZoneInference(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	m := &fakeMessenger{mediaData: buf.Bytes(), mediaMime: "image/png"}
	zones := fixedZones{entities: []kb.DetectedEntity{{Type: "zone", Value: "dos"}}}
	s := newTestServer(t, m, nil, zones)

	postWebhook(s, webhookBody("image", `,"image":{"id":"media-3","mime_type":"image/png"}`), nil)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "dos")
	assert.Contains(t, m.texts[0], "99")
}

func TestWebhookUnsupportedType(t *testing.T) {
	m := &fakeMessenger{}
	s := newTestServer(t, m, nil, nil)

	postWebhook(s, webhookBody("sticker", ""), nil)
	require.Len(t, m.texts, 1)
	assert.Contains(t, m.texts[0], "Message reçu")
}

func TestWebhookSendFailureStill200(t *testing.T) {
	m := &fakeMessenger{sendErr: fmt.Errorf("network down")}
	s := newTestServer(t, m, nil, nil)

	rec := postWebhook(s, webhookBody("text", `,"text":{"body":"Bonjour"}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, m.texts)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeMessenger{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}
