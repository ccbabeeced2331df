package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes events as JSON to one topic, keyed by entity id so
// every event about the same record lands on the same partition.
type KafkaPublisher struct {
	w   *kafkaGo.Writer
	log *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log}
	p.w = &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkaGo.LeastBytes{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafkaGo.Message, err error) {
			if err != nil {
				p.log.Error("kafka delivery failed", "topic", topic, "messages", len(messages), "err", err)
			}
		},
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(e.EntityID),
		Value: payload,
	})
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// Consume reads events from topic as member of groupID and hands each one to
// next. It blocks until ctx is cancelled. Malformed messages are logged and
// skipped.
func Consume(ctx context.Context, brokers []string, topic, groupID string, next Publisher, log *slog.Logger) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("consumer shutting down", "topic", topic)
				return
			}
			log.Error("error reading message", "topic", topic, "err", err)
			continue
		}

		e, err := Decode(msg.Value)
		if err != nil {
			log.Warn("skipping malformed event", "topic", topic, "offset", msg.Offset, "err", err)
			continue
		}
		if err := next.Publish(ctx, e); err != nil {
			log.Error("error handling event", "topic", topic, "type", e.Type, "err", err)
		}
	}
}

// Decode parses one JSON-encoded event. Data comes back as generic JSON.
func Decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, err
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	return e, nil
}
