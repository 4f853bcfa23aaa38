package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/take-home-pay/internal/tax"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewEvent(t *testing.T) {
	b := tax.Breakdown{Salary: 100000, TakeHomeYearly: 78089.5}
	event := NewEvent(EventTypeBreakdownSaved, "rec-1", "local", b)

	if _, err := uuid.Parse(event.ID); err != nil {
		t.Errorf("event ID %q is not a UUID: %v", event.ID, err)
	}
	if event.Type != EventTypeBreakdownSaved || event.RecordID != "rec-1" || event.Breakdown != b {
		t.Errorf("NewEvent() = %+v", event)
	}
	if event.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if NewEvent(EventTypeBreakdownSaved, "rec-1", "local", b).ID == event.ID {
		t.Error("expected unique event IDs")
	}
}

func TestKafkaPublisherPublish(t *testing.T) {
	writer := &fakeWriter{}
	p := newKafkaPublisher(zap.NewNop(), writer, "salary-breakdowns")

	event := NewEvent(EventTypeBreakdownSaved, "rec-7", "delegated", tax.Breakdown{Salary: 50000})
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "rec-7" {
		t.Errorf("message key = %q", msg.Key)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("message value is not an event: %v", err)
	}
	if decoded.ID != event.ID || decoded.Breakdown.Salary != 50000 {
		t.Errorf("decoded event = %+v", decoded)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_type"] != string(EventTypeBreakdownSaved) || headers["event_id"] != event.ID {
		t.Errorf("headers = %v", headers)
	}

	if err := p.Close(); err != nil || !writer.closed {
		t.Errorf("Close() = %v, closed %t", err, writer.closed)
	}
}

func TestKafkaPublisherWriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	p := newKafkaPublisher(nil, writer, "salary-breakdowns")

	err := p.Publish(context.Background(), NewEvent(EventTypeBreakdownSaved, "rec", "local", tax.Breakdown{}))
	if err == nil {
		t.Fatal("expected publish error")
	}
}

func TestRecordingPublisher(t *testing.T) {
	var p RecordingPublisher
	_ = p.Publish(context.Background(), Event{ID: "1"})
	_ = p.Publish(context.Background(), Event{ID: "2"})

	got := p.Events()
	if len(got) != 2 || got[1].ID != "2" {
		t.Errorf("Events() = %+v", got)
	}

	var nop Publisher = NopPublisher{}
	if err := nop.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("NopPublisher.Publish() error = %v", err)
	}
}
