package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/api"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/auth"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/bridge"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/config"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/events"
	httpapi "github.com/WaffleHouseIndex/BilbyAI-sub000/internal/http"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/room"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt/google"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt/mock"
)

func main() {
	// Best-effort .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{
		Level:      cfg.Service.LogLevel,
		Format:     "json",
		TimeFormat: time.RFC3339,
	})

	if cfg.Auth.Secret == "" && !cfg.Auth.Bypass {
		log.Fatal().Msg("AUTH_SECRET is required unless AUTH_BYPASS is set")
	}
	if cfg.Auth.Bypass {
		log.Warn().Msg("Auth bypass enabled, all connections admitted without tokens")
	}

	publisher := events.NewPublisher(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	provider := newProvider(cfg)
	registry := room.NewRegistry()
	authority := auth.New(cfg.Auth.Secret)

	bridgeServer := bridge.NewServer(bridge.Config{
		Provider:  provider,
		Registry:  registry,
		Publisher: publisher,
		Authority: authority,
		STT: stt.Config{
			LanguageCode:   cfg.STT.LanguageCode,
			SampleRateHz:   cfg.STT.SampleRateHz,
			InterimResults: cfg.STT.InterimResults,
		},
		Tracks:     bridge.ParseTrackPolicy(cfg.Tracks),
		AuthBypass: cfg.Auth.Bypass,
	})

	tokens := api.NewTokenHandler(authority, cfg.Auth.AdminAPIKey)
	router := httpapi.NewRouter(bridgeServer, tokens)

	obsServer := observability.NewServer(cfg.Service.MetricsAddr)
	obsServer.Start()

	server := &http.Server{
		Addr:        cfg.Service.HTTPAddr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Service.HTTPAddr).
			Str("sttProvider", provider.Name()).
			Str("tracks", cfg.Tracks).
			Msg("Transcribe bridge started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Observability shutdown error")
	}
	registry.Close()
}

// newProvider selects the recognition backend. Anything unrecognized falls
// back to the mock, which needs no credentials.
func newProvider(cfg *config.Config) stt.Provider {
	switch cfg.STT.Provider {
	case "google":
		p, err := google.New(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Google STT provider")
		}
		return p
	case "mock":
		return mock.New()
	default:
		log.Warn().Str("provider", cfg.STT.Provider).Msg("Unknown STT provider, using mock")
		return mock.New()
	}
}
