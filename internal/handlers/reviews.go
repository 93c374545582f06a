package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/middleware"
	"github.com/go-chi/chi/v5"
)

type CreateReviewRequest struct {
	OrderID    uint   `json:"orderId"`
	RevieweeID uint   `json:"revieweeId"`
	Rating     string `json:"rating"`
	Comment    string `json:"comment,omitempty"`
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.Reputation.CreateReview(r.Context(), userID, req.OrderID, req.RevieweeID, req.Rating, req.Comment)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	reviews, err := h.Reputation.ListUserReviews(r.Context(), uint(userID))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}
