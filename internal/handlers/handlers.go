// Package handlers exposes the marketplace RPC surface over HTTP.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/auth"
	"github.com/gamemarket/rmt-marketplace/internal/chat"
	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/market"
	"github.com/gamemarket/rmt-marketplace/internal/payment"
	"github.com/gamemarket/rmt-marketplace/internal/reputation"
	"go.uber.org/zap"
)

type Handler struct {
	Auth       *auth.Service
	Ledger     *ledger.Ledger
	Market     *market.Service
	Reputation *reputation.Service
	Chat       *chat.Service
	Payments   *payment.Client
	Processor  *payment.Processor
	Logger     *zap.Logger

	FrontendURL string
}

// serviceError maps the sentinel taxonomy onto HTTP status codes.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrInsufficientTokens) || errors.Is(err, apperr.ErrInsufficientBalance):
		httputil.WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		httputil.WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
