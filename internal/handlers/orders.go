package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/market"
	"github.com/gamemarket/rmt-marketplace/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// GetOrders returns active listings, optionally narrowed by the
// server/itemType/orderType query parameters.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	filter := market.Filter{
		Server:    r.URL.Query().Get("server"),
		ItemType:  r.URL.Query().Get("itemType"),
		OrderType: r.URL.Query().Get("orderType"),
	}
	orders, err := h.Market.List(r.Context(), filter)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var spec market.OrderSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.Market.Create(r.Context(), userID, spec)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.Market.Get(r.Context(), uint(id))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orders, err := h.Market.ListByUser(r.Context(), userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orders)
}
