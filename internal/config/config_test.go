package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_NAME", "HTTP_ADDR", "METRICS_ADDR", "ENV", "LOG_LEVEL",
		"AUTH_SECRET", "AUTH_BYPASS", "ADMIN_API_KEY",
		"STT_PROVIDER", "STT_LANGUAGE_CODE", "STT_SAMPLE_RATE_HZ", "STT_INTERIM_RESULTS",
		"ACCEPTED_TRACKS",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_PARTIAL", "KAFKA_TOPIC_FINAL", "KAFKA_PRINCIPAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Name != "transcribe-bridge" {
		t.Errorf("expected default service name 'transcribe-bridge', got %s", cfg.Service.Name)
	}
	if cfg.Service.HTTPAddr != ":8080" {
		t.Errorf("expected default HTTP addr ':8080', got %s", cfg.Service.HTTPAddr)
	}
	if cfg.Service.MetricsAddr != ":9091" {
		t.Errorf("expected default metrics addr ':9091', got %s", cfg.Service.MetricsAddr)
	}

	if cfg.Auth.Bypass {
		t.Error("expected auth bypass disabled by default")
	}

	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.STT.LanguageCode)
	}
	if cfg.STT.SampleRateHz != 8000 {
		t.Errorf("expected default sample rate 8000, got %d", cfg.STT.SampleRateHz)
	}
	if !cfg.STT.InterimResults {
		t.Error("expected interim results enabled by default")
	}

	if cfg.Tracks != "both" {
		t.Errorf("expected default track policy 'both', got %s", cfg.Tracks)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicPartial != "call.transcript.partial" {
		t.Errorf("unexpected partial topic %s", cfg.Kafka.TopicPartial)
	}
	if cfg.Kafka.TopicFinal != "call.transcript.final" {
		t.Errorf("unexpected final topic %s", cfg.Kafka.TopicFinal)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("AUTH_SECRET", "sekret")
	t.Setenv("AUTH_BYPASS", "true")
	t.Setenv("STT_PROVIDER", "google")
	t.Setenv("STT_SAMPLE_RATE_HZ", "16000")
	t.Setenv("STT_INTERIM_RESULTS", "false")
	t.Setenv("ACCEPTED_TRACKS", "inbound")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg := Load()

	if cfg.Service.HTTPAddr != ":9999" {
		t.Errorf("HTTP addr override not applied: %s", cfg.Service.HTTPAddr)
	}
	if cfg.Auth.Secret != "sekret" {
		t.Errorf("secret override not applied")
	}
	if !cfg.Auth.Bypass {
		t.Error("bypass override not applied")
	}
	if cfg.STT.Provider != "google" {
		t.Errorf("provider override not applied: %s", cfg.STT.Provider)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("sample rate override not applied: %d", cfg.STT.SampleRateHz)
	}
	if cfg.STT.InterimResults {
		t.Error("interim results override not applied")
	}
	if cfg.Tracks != "inbound" {
		t.Errorf("track policy override not applied: %s", cfg.Tracks)
	}
	if !cfg.Kafka.Enabled {
		t.Error("Kafka enable override not applied")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("broker list not parsed: %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("STT_SAMPLE_RATE_HZ", "not-a-number")
	t.Setenv("AUTH_BYPASS", "definitely")

	cfg := Load()

	if cfg.STT.SampleRateHz != 8000 {
		t.Errorf("malformed int should fall back to default, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.Auth.Bypass {
		t.Error("malformed bool should fall back to default")
	}
}
