// Package server exposes the webhook HTTP surface: Meta verification
// handshake, message intake, health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartduck/wabot/bot"
	"github.com/smartduck/wabot/channel"
	"github.com/smartduck/wabot/internal/profile"
	"github.com/smartduck/wabot/media"
)

// Messenger is what the webhook handler needs from the WhatsApp client.
type Messenger interface {
	channel.Sender
	MarkRead(ctx context.Context, messageID string)
	GetMediaURL(ctx context.Context, mediaID string) (string, string, error)
	DownloadMedia(ctx context.Context, url string) ([]byte, string, error)
}

// Server is the bot HTTP server.
type Server struct {
	e           *echo.Echo
	profile     *profile.Profile
	assistant   *bot.Assistant
	messenger   Messenger
	transcriber media.Transcriber
	// zones is the optional image zone inference capability; nil disables
	// it and image messages get a plain acknowledgment.
	zones media.ZoneInferrer
}

// NewServer assembles the HTTP server. zones may be nil.
func NewServer(p *profile.Profile, assistant *bot.Assistant, messenger Messenger, transcriber media.Transcriber, zones media.ZoneInferrer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("10M"))

	s := &Server{
		e:           e,
		profile:     p,
		assistant:   assistant,
		messenger:   messenger,
		transcriber: transcriber,
		zones:       zones,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/webhook", s.handleWebhookVerify)
	e.POST("/webhook", s.handleWebhook)
	return s
}

// Echo returns the underlying echo instance, used by handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"ok":      true,
		"version": s.profile.Version,
	})
}

// Start serves until the context is canceled or the listener fails. It
// returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	return s.e.Start(addr)
}

// Shutdown drains in-flight requests with a deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}
