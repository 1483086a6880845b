package events

import (
	"context"
	"log/slog"
	"medharvest-backend/lib/telemetry"
	"time"

	"github.com/go-resty/resty/v2"
)

type WebhookConfig struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// WebhookSink POSTs each event as json to a configured endpoint. Delivery
// happens on a background goroutine; events published while the queue is
// full are dropped so a slow endpoint never stalls the publisher.
type WebhookSink struct {
	url    string
	client *resty.Client
	queue  chan Event
	done   chan struct{}
}

func NewWebhookSink(config WebhookConfig) *WebhookSink {
	client := resty.New()
	client.SetTimeout(time.Second * 10)
	client.SetHeaders(config.Headers)
	telemetry.InstrumentResty(client, "lib/events:webhook")

	sink := &WebhookSink{
		url:    config.Url,
		client: client,
		queue:  make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go sink.deliver()
	return sink
}

func (s *WebhookSink) Publish(ctx context.Context, event Event) {
	select {
	case s.queue <- event:
	default:
		slog.WarnContext(ctx, "webhook event queue full, dropping event",
			"job_id", event.JobID, "kind", event.Kind)
	}
}

func (s *WebhookSink) deliver() {
	defer close(s.done)
	for event := range s.queue {
		res, err := s.client.R().
			SetHeader("content-type", "application/json").
			SetBody(event).
			Post(s.url)
		if err != nil {
			slog.Warn("failed to deliver event webhook", "err", err)
			continue
		}
		if res.IsError() {
			slog.Warn(
				"event webhook rejected",
				"status", res.StatusCode(),
				"body", res.String(),
			)
		}
	}
}

// Close drains queued events and stops the delivery goroutine.
func (s *WebhookSink) Close() error {
	close(s.queue)
	<-s.done
	return nil
}
