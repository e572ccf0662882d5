package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func TestNoopPublisher_Publish(t *testing.T) {
	pub := &NoopPublisher{}
	err := pub.Publish(context.Background(), TopicRecordSaved, RecordSaved{})
	if err != nil {
		t.Fatalf("NoopPublisher.Publish returned unexpected error: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("NoopPublisher.Close returned unexpected error: %v", err)
	}
}

func TestPublishersImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Publisher = (*Recorder)(nil)
}

func TestRecorder_CapturesEvents(t *testing.T) {
	rec := &Recorder{}
	event := RecordSaved{Table: "Data", Row: 2, Tab: "Finance", Values: map[string]any{"Revenue": 1.0}}
	if err := rec.Publish(context.Background(), TopicRecordSaved, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := rec.Events()
	if len(got) != 1 || got[0].Topic != TopicRecordSaved {
		t.Fatalf("unexpected events %+v", got)
	}
	if saved, ok := got[0].Event.(RecordSaved); !ok || saved.Row != 2 {
		t.Fatalf("unexpected payload %+v", got[0].Event)
	}
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "", nats.Timeout(200*time.Millisecond), nats.MaxReconnects(0))
	if err == nil {
		t.Fatalf("expected connection error")
	}
}
