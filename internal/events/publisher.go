// Package events publishes breakdown events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventType represents the type of breakdown event.
type EventType string

const (
	// EventTypeBreakdownSaved is published when a breakdown is stored on a record.
	EventTypeBreakdownSaved EventType = "breakdown.saved"
)

// Event represents a breakdown-related event.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	RecordID  string        `json:"recordId"`
	Mode      string        `json:"mode"`
	Breakdown tax.Breakdown `json:"breakdown"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(eventType EventType, recordID, mode string, b tax.Breakdown) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RecordID:  recordID,
		Mode:      mode,
		Breakdown: b,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher sends events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes breakdown events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(logger *zap.Logger, brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(logger, writer, topic)
}

func newKafkaPublisher(logger *zap.Logger, writer messageWriter, topic string) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Publish writes the event keyed by record ID.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.RecordID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("op", "events.Publish"),
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("record_id", event.RecordID),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("event published",
		zap.String("op", "events.Publish"),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("topic", p.topic),
	)
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("closing kafka publisher", zap.String("op", "events.Close"))
	return p.writer.Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish stores the event.
func (r *RecordingPublisher) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Close does nothing.
func (r *RecordingPublisher) Close() error { return nil }

// Events returns a copy of the published events.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
