package bridge

import (
	"github.com/gorilla/websocket"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/events"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
)

// serveObserver admits a read-only subscriber to a room and holds the
// connection open until the peer goes away. Anything the observer sends is
// drained and ignored.
func (s *Server) serveObserver(conn *wsConn, roomID, token string) {
	s.metrics.RecordConnectionOpen("observer")
	defer s.metrics.RecordConnectionClose("observer")

	log := logging.WithConnection(conn.ID(), "observer")

	if roomID == "" {
		_ = conn.SendEvent(events.NewError(events.CodeUnauthorized, "observer requires a room", "", ""))
		conn.closeWith(websocket.ClosePolicyViolation, "missing room")
		return
	}
	if !s.authorize(token, roomID) {
		s.metrics.RecordAuthFailure()
		log.Warn().Str("room", roomID).Msg("unauthorized observer")
		_ = conn.SendEvent(events.NewError(events.CodeUnauthorized, "missing, invalid, or expired token", "", ""))
		conn.closeWith(websocket.ClosePolicyViolation, "unauthorized")
		return
	}

	s.cfg.Registry.AddObserver(roomID, conn)
	defer s.cfg.Registry.RemoveObserver(conn)

	log.Info().Str("room", roomID).Msg("observer subscribed")
	_ = conn.SendEvent(events.NewHello(s.cfg.Provider.Name(), string(s.cfg.Tracks)))

	for {
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			log.Debug().Err(err).Msg("observer read loop ended")
			_ = conn.ws.Close()
			return
		}
	}
}
