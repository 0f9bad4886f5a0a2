package events

import (
	"context"
	"testing"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	_ = r.Publish(ctx, New(ClaimCreated, "c1", "r1", map[string]any{"quantity": 2}))
	_ = r.Publish(ctx, New(ClaimCompleted, "c1", "r1", nil))

	types := r.Types()
	if len(types) != 2 || types[0] != ClaimCreated || types[1] != ClaimCompleted {
		t.Fatalf("types = %v", types)
	}

	evs := r.Events()
	evs[0].Type = "mutated"
	if r.Events()[0].Type != ClaimCreated {
		t.Fatal("Events must return a copy")
	}
	if evs[1].OccurredAt.IsZero() || evs[1].OccurredAt.Location().String() != "UTC" {
		t.Fatalf("occurred_at = %v", evs[1].OccurredAt)
	}
}

func TestLogPublisher(t *testing.T) {
	if err := (LogPublisher{}).Publish(context.Background(), New(DonationPublished, "d1", "p1", nil)); err != nil {
		t.Fatal(err)
	}
}

func TestKafkaPublisherWriterConfig(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "food-rescue-events")
	defer p.Close()

	if p.writer.Topic != "food-rescue-events" {
		t.Fatalf("topic = %s", p.writer.Topic)
	}
	if p.writer.Addr.String() != "localhost:9092" {
		t.Fatalf("addr = %s", p.writer.Addr.String())
	}
}
