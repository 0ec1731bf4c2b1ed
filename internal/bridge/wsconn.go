package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	closeTimeout = time.Second
)

// wsConn wraps a websocket connection with a write lock so events can be sent
// from the read loop, session goroutines, and room broadcasts concurrently.
// It implements room.Subscriber.
type wsConn struct {
	id string
	ws *websocket.Conn
	mu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.NewString(), ws: ws}
}

func (c *wsConn) ID() string { return c.id }

// SendEvent marshals v to JSON and writes it as one text frame.
func (c *wsConn) SendEvent(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// closeWith sends a close frame with the given status code, then closes the
// underlying connection.
func (c *wsConn) closeWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
	_ = c.ws.Close()
}
