package chathub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The storefront is served from a different origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection and its room subscriptions.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Envelope

	// rooms and closed are guarded by hub.mu.
	rooms  map[string]struct{}
	closed bool
}

// ServeWS upgrades the request and runs the connection until it drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan Envelope, sendBuffer),
		rooms: make(map[string]struct{}),
	}
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.dispatch(raw)
	}
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *Client) dispatch(raw []byte) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.hub.sendTo(c, Envelope{Event: "error", Data: "malformed event"})
		return
	}

	switch in.Event {
	case "join":
		var userID uint
		if err := json.Unmarshal(in.Data, &userID); err != nil {
			c.hub.sendTo(c, Envelope{Event: "error", Data: "join expects a user id"})
			return
		}
		c.hub.HandleJoin(c, userID)
	case "joinOrder":
		var orderID uint
		if err := json.Unmarshal(in.Data, &orderID); err != nil {
			c.hub.sendTo(c, Envelope{Event: "error", Data: "joinOrder expects an order id"})
			return
		}
		c.hub.HandleJoinOrder(c, orderID)
	case "sendMessage":
		var p SendMessagePayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			c.hub.sendTo(c, Envelope{Event: "error", Data: "malformed sendMessage payload"})
			return
		}
		c.hub.HandleSendMessage(context.Background(), c, p)
	case "typing":
		var p TypingPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			c.hub.sendTo(c, Envelope{Event: "error", Data: "malformed typing payload"})
			return
		}
		c.hub.HandleTyping(p)
	default:
		c.hub.sendTo(c, Envelope{Event: "error", Data: "unknown event " + in.Event})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
