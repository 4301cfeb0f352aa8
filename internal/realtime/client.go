package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before declaring the
	// connection dead.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxInboundBytes caps a single client frame.
	maxInboundBytes = 4 << 10
	// sendBuffer is the per-connection outbound queue. A full queue means
	// the event is dropped for that connection (logged by the hub).
	sendBuffer = 64
)

// Client is one live websocket connection bound to a verified identity.
//
// The rooms set is guarded by the hub's mutex; the read pump is the only
// other writer and always goes through hub methods.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	rooms  map[string]struct{}
	log    zerolog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, log zerolog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[string]struct{}),
		log:    log.With().Str("user_id", userID).Logger(),
	}
}

// trySend queues an encoded frame without blocking. Returns false when the
// connection's queue is saturated.
func (c *Client) trySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// sendEvent encodes and queues one event for this connection only.
func (c *Client) sendEvent(eventType string, payload any) {
	data, err := encode(eventType, payload)
	if err != nil {
		c.log.Error().Err(err).Str("event", eventType).Msg("encode event")
		return
	}
	c.trySend(data)
}

// sendError reports a per-event failure back to this connection.
func (c *Client) sendError(code, message string) {
	c.sendEvent(EvtError, errorPayload{Code: code, Message: message})
}

// readPump reads client frames, dispatches them through the router, and
// tears the session down on any read error. Events from one connection are
// processed serially, which preserves per-sender send order end to end.
func (c *Client) readPump(router *Router) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
		router.disconnected(c)
	}()

	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.sendError("bad_request", "malformed event")
			continue
		}
		router.handle(c, evt)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings. It exits when the hub closes the queue or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
