package events

import (
	"encoding/json"
	"errors"
	"testing"

	"futurefind-speech-service/internal/models"
)

func TestDecode(t *testing.T) {
	value, err := json.Marshal(models.TranscriptFinal{
		EventType: models.EventTranscriptFinal,
		SessionID: "s-1",
		SegmentID: "s-1-seg-2",
		Text:      "I use SQL",
	})
	if err != nil {
		t.Fatal(err)
	}

	env, err := Decode(value)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if env.EventType != models.EventTranscriptFinal || env.SessionID != "s-1" || env.SegmentID != "s-1-seg-2" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	if string(env.Payload) != string(value) {
		t.Errorf("payload not kept verbatim: %s", env.Payload)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Decode([]byte(`{"eventType":"interview.answer.feedback"}`)); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestNewConsumer_SkipsEmptyTopics(t *testing.T) {
	c := NewConsumer(ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topics:  []string{"interview.transcript.final", ""},
	})
	defer c.Close()

	if len(c.readers) != 1 {
		t.Errorf("expected 1 reader, got %d", len(c.readers))
	}
}
