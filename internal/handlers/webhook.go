package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/httputil"
	"github.com/gamemarket/rmt-marketplace/internal/payment"
	"go.uber.org/zap"
)

// signatureHeader carries the gateway's webhook signature.
const signatureHeader = "Stripe-Signature"

// StripeWebhook verifies and processes inbound payment events. The raw
// body must be read before any decoding because the signature covers the
// exact bytes on the wire.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.Payments.VerifySignature(body, r.Header.Get(signatureHeader)); err != nil {
		h.Logger.Warn("webhook signature verification failed", zap.Error(err))
		httputil.WriteError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	ev, err := payment.ParseEvent(body)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "undecodable event")
		return
	}

	if err := h.Processor.HandleEvent(r.Context(), ev); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("webhook processing failed", zap.String("eventID", ev.ID), zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
