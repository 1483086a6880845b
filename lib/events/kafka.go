package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// KafkaSink publishes events to a kafka topic keyed by job id, so all events
// of one job land on the same partition in order.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(config KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        config.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireNone,
			Async:        true,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				slog.Warn("kafka event delivery failed", "msg", msg, "args", args)
			}),
		},
	}
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		slog.WarnContext(ctx, "failed to marshal event", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.JobID),
		Value: body,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish event to kafka", "err", err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
