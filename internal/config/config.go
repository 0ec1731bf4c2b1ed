// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

type ServiceConfig struct {
	Name        string
	HTTPAddr    string
	MetricsAddr string
	Env         string
	LogLevel    string
}

type AuthConfig struct {
	// Secret signs capability tokens. Required unless Bypass is set.
	Secret string
	// Bypass admits all connections without a token. Development only.
	Bypass bool
	// AdminAPIKey guards the token issuance endpoint.
	AdminAPIKey string
}

type STTConfig struct {
	Provider       string // mock, google
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

type Config struct {
	Service ServiceConfig
	Auth    AuthConfig
	STT     STTConfig
	// Tracks is the accepted-track policy: both, inbound, or outbound.
	Tracks string
	Kafka  KafkaConfig
}

func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        envOrDefault("SERVICE_NAME", "transcribe-bridge"),
			HTTPAddr:    envOrDefault("HTTP_ADDR", ":8080"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9091"),
			Env:         envOrDefault("ENV", "prod"),
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Secret:      os.Getenv("AUTH_SECRET"),
			Bypass:      envBool("AUTH_BYPASS", false),
			AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envInt("STT_SAMPLE_RATE_HZ", 8000),
			InterimResults: envBool("STT_INTERIM_RESULTS", true),
		},
		Tracks: envOrDefault("ACCEPTED_TRACKS", "both"),
		Kafka: KafkaConfig{
			Enabled:      envBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS"),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "call.transcript.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "call.transcript.final"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", "svc-transcribe-bridge"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
