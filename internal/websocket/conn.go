package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitaboost/storefront/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// clients only send resync requests and control frames
	maxMessageSize = 4 * 1024

	// SendBufferSize is the per-client queue of undelivered events.
	SendBufferSize = 64
)

// MessageResync is the only message clients send: a request for the current
// checkout state after a reconnect or a hidden tab becoming visible.
const MessageResync = "resync"

type Conn struct {
	*websocket.Conn
}

type clientMessage struct {
	Type string `json:"type"`
}

// NewClient wraps an upgraded connection for sessionID. snapshot may be nil.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, snapshot func() []byte) *Client {
	return &Client{
		Hub:       hub,
		Conn:      &Conn{Conn: conn},
		SessionID: sessionID,
		Send:      make(chan []byte, SendBufferSize),
		Snapshot:  snapshot,
	}
}

// Serve queues the initial snapshot, registers the client and pumps until
// the peer disconnects. It blocks.
func (c *Client) Serve() {
	if c.Snapshot != nil {
		if data := c.Snapshot(); data != nil {
			c.Send <- data
		}
	}
	c.Hub.Register(c)

	go c.WritePump()
	c.ReadPump()
}

// ReadPump handles resync requests and control frames, and unregisters the
// client when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Checkout event stream closed unexpectedly", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageResync {
			logger.Debug("Ignoring client message", map[string]interface{}{
				"session_id": c.SessionID,
			})
			continue
		}
		c.Hub.Resync(c)
	}
}

// WritePump delivers queued events and pings; it exits when Send is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write checkout event", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
