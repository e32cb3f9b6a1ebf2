// Package metrics exposes webhook and pipeline health counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhooksReceived counts webhook POSTs accepted by the server.
	WebhooksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "webhooks_received_total",
		Help:      "Webhook deliveries received.",
	})

	// WebhookParseErrors counts payloads that could not be parsed.
	WebhookParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "webhook_parse_errors_total",
		Help:      "Webhook payloads that failed to parse.",
	})

	// WebhookRejected counts deliveries failing signature or token checks.
	WebhookRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "webhook_rejected_total",
		Help:      "Webhook deliveries rejected at verification.",
	})

	// MessagesProcessed counts inbound messages by type (text, audio, image...).
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "messages_processed_total",
		Help:      "Inbound messages processed, by message type.",
	}, []string{"type"})

	// IntentsClassified counts classification results by intent id.
	IntentsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "intents_classified_total",
		Help:      "Classified intents, by intent id.",
	}, []string{"intent"})

	// RepliesSent counts outbound replies delivered to the messaging API.
	RepliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "replies_sent_total",
		Help:      "Replies sent to the messaging API.",
	})

	// SendErrors counts outbound replies the messaging API refused.
	SendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wabot",
		Name:      "send_errors_total",
		Help:      "Replies that failed to send.",
	})

	// ProcessDuration tracks end-to-end per-message processing time.
	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wabot",
		Name:      "message_process_duration_seconds",
		Help:      "Per-message processing duration.",
		Buckets:   prometheus.DefBuckets,
	})
)
