package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	if err := q.Publish(ctx, Message{Type: TypeMatchRun, Body: []byte("run-1")}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.Type != TypeMatchRun || string(msg.Body) != "run-1" {
			t.Errorf("got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublish_CancelledContext(t *testing.T) {
	q := NewInMemory(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Publish(ctx, Message{Type: TypeMatchRun}); err == nil {
		t.Error("expected context error on full queue")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeMatchRun, Body: []byte("run|with|pipes")}
	got, err := deserialize(serialize(msg))
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Type != msg.Type || string(got.Body) != string(msg.Body) {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDeserialize_NoSeparator(t *testing.T) {
	got, err := deserialize("plainbody")
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Type != "" || string(got.Body) != "plainbody" {
		t.Errorf("got %+v", got)
	}
}
