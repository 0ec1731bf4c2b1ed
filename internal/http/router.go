// Package http assembles the service's public HTTP surface: the streaming
// endpoint, the token issuance API, and liveness probes.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/api"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/bridge"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(b *bridge.Server, tokens *api.TokenHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/liveness", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
		})
		r.Get("/stream", b.HandleStream)
		r.Post("/token", tokens.Issue)
	})

	return r
}
