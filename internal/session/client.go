package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second

	// Commands are small; bounds reports for large maps dominate.
	maxMsgSize = 256 * 1024

	sendBuffer = 256
)

// Client is one websocket connection joined to a map's room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// sendMu orders Send against closeSend: room broadcasts run on
	// other clients' reader goroutines and may race the hub removing
	// this client, so the channel is only written or closed under the
	// mutex.
	sendMu     sync.Mutex
	send       chan []byte
	sendClosed bool

	UserID      string
	DisplayName string
	MapID       string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, mapID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		UserID:      userID,
		DisplayName: displayName,
		MapID:       mapID,
		ClientID:    clientID,
	}
}

// ReadPump decodes inbound frames and hands them to the hub. It owns
// unregistration: when the read side ends for any reason the client
// leaves its room.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "user", c.UserID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			c.SendError("malformed message")
			continue
		}

		// Identity fields come from the authenticated connection, never
		// from the wire.
		msg.UserID = c.UserID
		msg.ClientID = c.ClientID
		msg.MapID = c.MapID

		c.hub.handleMessage(ctx, c, &msg)
	}
}

// WritePump drains the send buffer onto the wire and keeps the
// connection alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues a message for delivery. Slow consumers drop messages
// rather than stall the room; clients resync from the next full-state
// notification. Sends racing the client's removal are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, dropping message", "user", c.UserID, "type", msg.Type)
	}
}

// closeSend shuts the delivery channel so WritePump drains and exits.
// Safe to call concurrently with Send and idempotent.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

func (c *Client) SendError(text string) {
	payload, _ := json.Marshal(ErrorPayload{Message: text})
	c.Send(&Message{Type: TypeError, Payload: payload})
}
