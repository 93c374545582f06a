package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/middleware"
)

type UpdateProfileRequest struct {
	Country  *string `json:"country,omitempty"`
	Nickname *string `json:"nickname,omitempty"`
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Auth.GetUser(r.Context(), userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Auth.UpdateProfile(r.Context(), userID, req.Country, req.Nickname)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
