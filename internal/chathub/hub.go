// Package chathub relays order chat over websockets. Connections subscribe
// to named rooms: `user:{id}` for cross-order notifications and
// `order:{id}` for the chat of one listing. Messages are persisted before
// any broadcast; a persistence failure surfaces only to the sender.
package chathub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gamemarket/rmt-marketplace/internal/models"
	"go.uber.org/zap"
)

// MessageStore persists chat messages ahead of broadcast.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.ChatMessage) error
}

// Envelope is the wire format in both directions: an event name plus its
// payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SendMessagePayload is the client sendMessage event body.
type SendMessagePayload struct {
	OrderID     uint   `json:"orderId"`
	SenderID    uint   `json:"senderId"`
	RecipientID uint   `json:"recipientId"`
	Message     string `json:"message"`
}

// TypingPayload is the client typing event body.
type TypingPayload struct {
	OrderID  uint `json:"orderId"`
	UserID   uint `json:"userId"`
	IsTyping bool `json:"isTyping"`
}

type Hub struct {
	store MessageStore
	log   *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub(store MessageStore, log *zap.Logger) *Hub {
	return &Hub{
		store: store,
		log:   log,
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func userRoom(userID uint) string   { return fmt.Sprintf("user:%d", userID) }
func orderRoom(orderID uint) string { return fmt.Sprintf("order:%d", orderID) }

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// remove drops the client from every room and closes its send channel.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if c.closed {
		return
	}
	for room := range c.rooms {
		members := h.rooms[room]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	c.closed = true
	close(c.send)
}

// broadcast fans an event out to every connection in the room. A client
// whose send buffer is full is dropped rather than blocking the room.
func (h *Hub) broadcast(room string, env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- env:
		default:
			h.log.Warn("dropping slow chat connection", zap.String("room", room))
			h.removeLocked(c)
		}
	}
}

// sendTo delivers an event to a single connection.
func (h *Hub) sendTo(c *Client, env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- env:
	default:
		h.removeLocked(c)
	}
}

// HandleJoin subscribes the connection to the user's private channel.
func (h *Hub) HandleJoin(c *Client, userID uint) {
	h.join(c, userRoom(userID))
	h.log.Info("connection joined user channel", zap.Uint("userID", userID))
}

// HandleJoinOrder subscribes the connection to an order's shared channel.
func (h *Hub) HandleJoinOrder(c *Client, orderID uint) {
	h.join(c, orderRoom(orderID))
	h.log.Info("connection joined order channel", zap.Uint("orderID", orderID))
}

// HandleSendMessage persists the message, then broadcasts it to the order
// room and a notification to the recipient's private channel. When
// persistence fails, nothing is broadcast and only the sender sees an
// error event.
func (h *Hub) HandleSendMessage(ctx context.Context, c *Client, p SendMessagePayload) {
	msg := &models.ChatMessage{
		OrderID:     p.OrderID,
		SenderID:    p.SenderID,
		RecipientID: p.RecipientID,
		Message:     p.Message,
	}
	if err := h.store.SaveMessage(ctx, msg); err != nil {
		h.log.Error("failed to persist chat message",
			zap.Uint("orderID", p.OrderID),
			zap.Uint("senderID", p.SenderID),
			zap.Error(err))
		h.sendTo(c, Envelope{Event: "error", Data: "Failed to send message"})
		return
	}

	h.broadcast(orderRoom(p.OrderID), Envelope{
		Event: "newMessage",
		Data: map[string]any{
			"orderId":     p.OrderID,
			"senderId":    p.SenderID,
			"recipientId": p.RecipientID,
			"message":     p.Message,
			"timestamp":   time.Now().UTC(),
		},
	})
	h.broadcast(userRoom(p.RecipientID), Envelope{
		Event: "notification",
		Data: map[string]any{
			"type":     "new_message",
			"orderId":  p.OrderID,
			"senderId": p.SenderID,
			"message":  fmt.Sprintf("You received a message about order #%d", p.OrderID),
		},
	})
}

// HandleTyping broadcasts an ephemeral typing indicator to the order room.
// Typing events are never persisted.
func (h *Hub) HandleTyping(p TypingPayload) {
	h.broadcast(orderRoom(p.OrderID), Envelope{
		Event: "userTyping",
		Data: map[string]any{
			"orderId":  p.OrderID,
			"userId":   p.UserID,
			"isTyping": p.IsTyping,
		},
	})
}
