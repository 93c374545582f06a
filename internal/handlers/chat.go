package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/middleware"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/go-chi/chi/v5"
)

type SendMessageRequest struct {
	OrderID     uint   `json:"orderId"`
	RecipientID uint   `json:"recipientId"`
	Message     string `json:"message"`
}

// SendMessage persists a chat message without broadcasting; connected
// peers receive live copies through the websocket hub instead.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == 0 || req.RecipientID == 0 || req.Message == "" {
		httputil.WriteError(w, http.StatusBadRequest, "orderId, recipientId and message are required")
		return
	}

	msg := &models.ChatMessage{
		OrderID:     req.OrderID,
		SenderID:    userID,
		RecipientID: req.RecipientID,
		Message:     req.Message,
	}
	if err := h.Chat.SaveMessage(r.Context(), msg); err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// GetOrderMessages pages an order's chat history.
func (h *Handler) GetOrderMessages(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	messages, err := h.Chat.ListOrderMessages(r.Context(), uint(orderID))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messages)
}
