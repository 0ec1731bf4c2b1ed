// Package bridge terminates the inbound media-stream protocol: producer
// connections carrying live call audio and observer connections watching a
// room's transcript events.
package bridge

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/auth"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/events"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/metrics"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/room"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/stt"
)

// Config wires the server's collaborators. All fields except Publisher are
// required.
type Config struct {
	Provider  stt.Provider
	Registry  *room.Registry
	Publisher *events.Publisher
	Authority *auth.Authority
	STT       stt.Config
	Tracks    TrackPolicy

	// AuthBypass admits every connection without a token check. Development
	// only.
	AuthBypass bool
}

// Server accepts WebSocket connections and dispatches them to the producer or
// observer handler based on the connection's role.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewServer creates a bridge server.
func NewServer(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The telephony bridge is not a browser; origin checks happen at
			// the token layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     logging.WithComponent("bridge"),
		metrics: metrics.DefaultMetrics,
	}
}

// Routes returns the router for the streaming endpoint.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stream", s.HandleStream)
	return r
}

// HandleStream upgrades the connection and serves it until it closes.
// Observer role is selected with observer=1 or role=observer query params;
// everything else is a producer.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	q := r.URL.Query()
	conn := newWSConn(ws)

	if q.Get("observer") == "1" || q.Get("role") == "observer" {
		s.serveObserver(conn, q.Get("room"), q.Get("token"))
		return
	}
	s.serveProducer(r, conn, q.Get("room"), q.Get("token"))
}

// authorize runs the capability-token check shared by both connection roles.
func (s *Server) authorize(token, roomID string) bool {
	if s.cfg.AuthBypass {
		return true
	}
	if token == "" || roomID == "" {
		return false
	}
	return s.cfg.Authority.Verify(token, roomID)
}
