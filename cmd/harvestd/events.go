package main

import (
	"net/http"

	"medharvest-backend/lib/events"
)

type EventsConfig struct {
	Kafka   *events.KafkaConfig   `json:"kafka"`
	Webhook *events.WebhookConfig `json:"webhook"`
}

// InitEvents assembles the event pipeline: job events always go to the log
// and to websocket subscribers on /events, plus kafka and/or a webhook when
// configured.
func InitEvents(mux *http.ServeMux, cfg EventsConfig) events.Sink {
	hub := events.NewHub()
	mux.Handle("GET /events", hub)

	sinks := events.Fanout{events.SlogSink{}, hub}
	if cfg.Kafka != nil {
		sinks = append(sinks, events.NewKafkaSink(*cfg.Kafka))
	}
	if cfg.Webhook != nil {
		sinks = append(sinks, events.NewWebhookSink(*cfg.Webhook))
	}
	return sinks
}
