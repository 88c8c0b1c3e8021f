package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 32 * 1024

	// Per-client outbound buffer.
	sendBufferSize = 256
)

// Client is one authenticated websocket connection and its transient state.
//
// A connection arrives already authenticated (the gateway attaches the
// verified identity before the pumps start) and moves through the states
// Authenticated -> InRoom -> Disconnected. roomID is the state marker: zero
// means Authenticated, non-zero means InRoom. A session belongs to at most
// one room at a time.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	sessionID   string
	userID      uint
	displayName string
	send        chan []byte

	mu     sync.Mutex
	roomID uint
	closed bool
}

// NewClient wraps an upgraded connection with its verified identity.
func NewClient(h *Hub, conn *websocket.Conn, userID uint, displayName string) *Client {
	return &Client{
		hub:         h,
		conn:        conn,
		sessionID:   uuid.NewString(),
		userID:      userID,
		displayName: displayName,
		send:        make(chan []byte, sendBufferSize),
	}
}

func (c *Client) SessionID() string { return c.sessionID }
func (c *Client) UserID() uint      { return c.userID }

// Room returns the session's current room, zero when not in one.
func (c *Client) Room() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID uint) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// trySend queues a payload unless the session is closed or the buffer is
// full. The closed check and the send happen under the same mutex that
// markClosed takes, so a send can never race the channel close.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// markClosed flags the session so no further trySend can touch the channel.
// Returns false when the session was already closed. Only after a true return
// may the caller close the send channel.
func (c *Client) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// CloseConn force-closes the underlying connection.
func (c *Client) CloseConn() { c.conn.Close() }

// readPump reads frames from the connection and hands them to the hub.
// Frames from one session are processed in order on this goroutine; a stall
// handling one session never affects another.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID}).Debug("readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.hub.HandleFrame(c, message)
	}
}

// writePump pumps messages from the send channel to the connection and keeps
// the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel on unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"session_id": c.sessionID, "user_id": c.userID}).
					WithError(err).Warn("Failed to write message to websocket")
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
