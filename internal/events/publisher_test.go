package events

import (
	"context"
	"testing"
)

func TestNewPublisher_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNewPublisher_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicPartial: "call.transcript.partial",
		TopicFinal:   "call.transcript.final",
		Principal:    "svc-transcribe-bridge",
	}

	p := NewPublisher(cfg)

	if p.principal != "svc-transcribe-bridge" {
		t.Errorf("unexpected principal %s", p.principal)
	}
	if p.topicPartial != "call.transcript.partial" {
		t.Errorf("unexpected partial topic %s", p.topicPartial)
	}
	if p.topicFinal != "call.transcript.final" {
		t.Errorf("unexpected final topic %s", p.topicFinal)
	}
}

func TestPublisher_PublishTranscript_Disabled(t *testing.T) {
	p := NewPublisher(&Config{Enabled: false})

	partial := NewTranscript("hello wor", false, "caller", "inbound", "seg-1")
	if err := p.PublishTranscript(context.Background(), "agent_42", partial); err != nil {
		t.Errorf("partial publish in disabled mode: %v", err)
	}

	final := NewTranscript("hello world", true, "caller", "inbound", "seg-1")
	if err := p.PublishTranscript(context.Background(), "agent_42", final); err != nil {
		t.Errorf("final publish in disabled mode: %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := NewPublisher(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("closing disabled publisher: %v", err)
	}

	p = &Publisher{}
	if err := p.Close(); err != nil {
		t.Errorf("closing zero-value publisher: %v", err)
	}
}
