package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/audio"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/events"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/observability/logging"
	"github.com/WaffleHouseIndex/BilbyAI-sub000/internal/session"
)

// producer handles one inbound media-stream connection: a telephony bridge
// leg delivering live call audio. It owns one transcription session per
// active track.
type producer struct {
	srv  *Server
	conn *wsConn
	ctx  context.Context

	// room and token come from the URL query or from the first start
	// message's custom parameters; both paths converge on the same check.
	room       string
	token      string
	authorized bool

	mu       sync.Mutex
	sessions map[string]*session.Session

	log zerolog.Logger
}

func (s *Server) serveProducer(r *http.Request, conn *wsConn, roomID, token string) {
	p := &producer{
		srv:      s,
		conn:     conn,
		ctx:      r.Context(),
		room:     roomID,
		token:    token,
		sessions: make(map[string]*session.Session),
		log:      logging.WithConnection(conn.ID(), "producer"),
	}
	p.run()
}

func (p *producer) run() {
	p.srv.metrics.RecordConnectionOpen("producer")
	defer p.srv.metrics.RecordConnectionClose("producer")
	defer p.teardown()

	p.log.Info().Msg("producer connected")
	_ = p.conn.SendEvent(events.NewHello(p.srv.cfg.Provider.Name(), string(p.srv.cfg.Tracks)))

	for {
		mt, data, err := p.conn.ws.ReadMessage()
		if err != nil {
			p.log.Debug().Err(err).Msg("producer read loop ended")
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed body: report and keep the connection open.
			_ = p.conn.SendEvent(events.NewError(events.CodeBadFraming, "malformed message", "", ""))
			continue
		}

		switch msg.Event {
		case eventStart:
			if !p.handleStart(msg.Start) {
				return
			}
		case eventMedia:
			if !p.handleMedia(msg.Media) {
				return
			}
		case eventStop:
			p.handleStop()
			return
		default:
			// Unknown message kinds are ignored.
		}
	}
}

// handleStart authorizes the connection. Credentials offered in the start
// message's custom parameters take precedence over query parameters. Returns
// false when the connection must close.
func (p *producer) handleStart(start *startPayload) bool {
	if p.authorized {
		// Repeated start messages are ignored; the room is pinned.
		return true
	}

	roomID, token := p.room, p.token
	if start != nil {
		if v := start.CustomParameters["room"]; v != "" {
			roomID = v
		}
		if v := start.CustomParameters["token"]; v != "" {
			token = v
		}
	}

	if !p.srv.authorize(token, roomID) {
		p.srv.metrics.RecordAuthFailure()
		p.log.Warn().Str("room", roomID).Msg("unauthorized start")
		_ = p.conn.SendEvent(events.NewError(events.CodeUnauthorized, "missing, invalid, or expired token", "", ""))
		p.conn.closeWith(websocket.ClosePolicyViolation, "unauthorized")
		return false
	}

	p.authorized = true
	p.room = roomID
	p.log = logging.WithRoom(p.conn.ID(), roomID)
	p.log.Info().Msg("producer authorized")

	p.send(events.NewReady("stream ready", "", ""))
	return true
}

// handleMedia decodes one audio frame and forwards it to the track's
// session, creating the session lazily on first audio for the track.
func (p *producer) handleMedia(media *mediaPayload) bool {
	if !p.authorized {
		p.srv.metrics.RecordAuthFailure()
		_ = p.conn.SendEvent(events.NewError(events.CodeUnauthorized, "media before start", "", ""))
		p.conn.closeWith(websocket.ClosePolicyViolation, "unauthorized")
		return false
	}
	if media == nil {
		_ = p.conn.SendEvent(events.NewError(events.CodeBadFraming, "media message without body", "", ""))
		return true
	}
	if !p.srv.cfg.Tracks.Allows(media.Track) {
		// Excluded by policy: silently dropped, not an error.
		p.srv.metrics.RecordFrameDropped("track_policy")
		return true
	}

	raw, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil || len(raw) == 0 {
		// Per-frame decode failures are swallowed.
		p.srv.metrics.RecordFrameDropped("decode_failure")
		p.log.Debug().Str("track", media.Track).Msg("undecodable media frame dropped")
		return true
	}
	p.srv.metrics.RecordAudioReceived(len(raw))

	sess := p.sessionFor(media.Track)
	if sess == nil {
		// Upstream open failed; the error event is already out. More audio
		// for this track will retry lazily.
		return true
	}
	sess.Write(audio.DecodeMuLawBytes(raw))
	return true
}

// sessionFor returns the live session for track, creating one if the track
// is new or its previous session ended.
func (p *producer) sessionFor(track string) *session.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess, ok := p.sessions[track]; ok {
		switch sess.State() {
		case session.StateStarting, session.StateStreaming:
			return sess
		}
		// errored or stopped: drop it and recreate below
		delete(p.sessions, track)
	}

	channel := channelFor(track)
	slog := logging.WithStream(p.conn.ID(), p.room, track, p.srv.cfg.Provider.Name())
	sess := session.New(p.ctx, p.srv.cfg.Provider, p.srv.cfg.STT, track, channel, p.send, slog)
	if err := sess.Start(); err != nil {
		return nil
	}
	p.sessions[track] = sess
	p.send(events.NewReady("transcription started", track, channel))
	return sess
}

func (p *producer) handleStop() {
	p.log.Info().Msg("stop received")
	p.stopSessions()
	p.conn.closeWith(websocket.CloseNormalClosure, "stream stopped")
}

// send delivers an event to the producer itself, broadcasts it into the room
// (to every room when the producer has none), and fans transcripts out to
// Kafka. Called from the read loop and from session goroutines.
func (p *producer) send(v any) {
	_ = p.conn.SendEvent(v)
	if p.room != "" {
		p.srv.cfg.Registry.Broadcast(p.room, v)
	} else {
		p.srv.cfg.Registry.BroadcastAll(v)
	}
	if tr, ok := v.(events.Transcript); ok && p.srv.cfg.Publisher != nil {
		_ = p.srv.cfg.Publisher.PublishTranscript(context.Background(), p.room, tr)
	}
}

func (p *producer) stopSessions() {
	p.mu.Lock()
	sessions := make([]*session.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[string]*session.Session)
	p.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

// teardown runs when the read loop exits for any reason: stop every owned
// session, drop any room membership, close the socket.
func (p *producer) teardown() {
	p.stopSessions()
	p.srv.cfg.Registry.RemoveObserver(p.conn)
	_ = p.conn.ws.Close()
	p.log.Info().Msg("producer closed")
}
