package queue

import (
	"context"
	"testing"
	"time"
)

func TestAbsenceMessageRoundTrip(t *testing.T) {
	evt := AbsenceEvent{
		SessionID:   "sess-1",
		StudentID:   "S100",
		SubjectID:   "S1",
		SubjectName: "Mathematics",
		Date:        "2024-03-01",
		Time:        "09:00",
	}
	msg, err := NewAbsenceMessage(evt)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeAbsence {
		t.Errorf("type = %s", msg.Type)
	}
	got, err := DecodeAbsence(msg)
	if err != nil {
		t.Fatal(err)
	}
	if got != evt {
		t.Errorf("decoded %+v, want %+v", got, evt)
	}
}

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg, _ := NewAbsenceMessage(AbsenceEvent{StudentID: "S100", Date: "2024-03-01"})
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatal(err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-messages:
		evt, err := DecodeAbsence(got)
		if err != nil {
			t.Fatal(err)
		}
		if evt.StudentID != "S100" {
			t.Errorf("student = %s", evt.StudentID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishRespectsCancelledContext(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	msg, _ := NewAbsenceMessage(AbsenceEvent{StudentID: "S100"})
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatal(err)
	}
	cancel()
	// Queue is full and the context is done; publish must not block.
	if err := q.Publish(ctx, msg); err == nil {
		t.Error("expected error publishing to full queue with cancelled context")
	}
}
