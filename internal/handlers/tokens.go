package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/middleware"
)

// tokensPerUSD is the fixed exchange rate: 1000 tokens == $1.00.
const tokensPerUSD = 1000

type BuyTokensRequest struct {
	// Amount is the purchase size in USD.
	Amount int `json:"amount"`
}

type CheckoutRequest struct {
	Tokens int `json:"tokens"`
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

// BuyTokens credits the ledger directly at the fixed exchange rate.
func (h *Handler) BuyTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BuyTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "amount must be a positive dollar value")
		return
	}

	tokens := req.Amount * tokensPerUSD
	if err := h.Ledger.Credit(r.Context(), userID, tokens, ledger.ReasonPurchase); err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"tokensAdded": tokens,
	})
}

// CreateCheckout opens a hosted gateway checkout for a token purchase and
// returns the redirect URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Tokens < 100 {
		httputil.WriteError(w, http.StatusBadRequest, "minimum purchase is 100 tokens")
		return
	}

	amountUsd := float64(req.Tokens) / tokensPerUSD
	url, err := h.Payments.CreateCheckoutSession(r.Context(), userID, req.Tokens, amountUsd,
		fmt.Sprintf("%s/buy-tokens?success=true", h.FrontendURL),
		fmt.Sprintf("%s/buy-tokens?canceled=true", h.FrontendURL))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     url,
	})
}
