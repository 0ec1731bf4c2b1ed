// Package api holds the JSON control-plane handlers.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/auth"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/metrics"
)

// TokenHandler issues room-scoped capability tokens. The endpoint is guarded
// by a static admin API key carried in the X-API-Key header.
type TokenHandler struct {
	authority *auth.Authority
	apiKey    string
	metrics   *metrics.Metrics
}

func NewTokenHandler(authority *auth.Authority, apiKey string) *TokenHandler {
	return &TokenHandler{
		authority: authority,
		apiKey:    apiKey,
		metrics:   metrics.DefaultMetrics,
	}
}

type tokenRequest struct {
	Room       string `json:"room"`
	TTLSeconds int    `json:"ttlSeconds,omitempty"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	Room      string `json:"room"`
	ExpiresAt string `json:"expiresAt"`
}

// Issue handles POST /v1/token.
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	log := logging.WithComponent("token-api")

	if h.apiKey == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-API-Key")), []byte(h.apiKey)) != 1 {
		log.Warn().Str("remote", r.RemoteAddr).Msg("rejected token request")
		writeJSONError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Room == "" {
		writeJSONError(w, http.StatusBadRequest, "room is required")
		return
	}

	token, expiresAt := h.authority.Issue(req.Room, time.Duration(req.TTLSeconds)*time.Second)
	h.metrics.RecordTokenIssued()
	log.Info().Str("room", req.Room).Time("expires_at", expiresAt).Msg("token issued")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tokenResponse{
		Token:     token,
		Room:      req.Room,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
