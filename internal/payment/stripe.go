// Package payment adapts the Stripe-style payment gateway: it creates
// hosted checkout sessions for token purchases and verifies/processes the
// inbound webhook that confirms them.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.stripe.com"

// EventCheckoutCompleted is the gateway event confirming a paid checkout.
const EventCheckoutCompleted = "checkout.session.completed"

type Client struct {
	http          *resty.Client
	webhookSecret string
	log           *zap.Logger
}

func NewClient(secretKey, webhookSecret string, log *zap.Logger) *Client {
	return &Client{
		http:          resty.New().SetBaseURL(defaultBaseURL).SetBasicAuth(secretKey, ""),
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// SetBaseURL points the client at a different gateway endpoint. Used by
// tests and staging environments.
func (c *Client) SetBaseURL(url string) {
	c.http.SetBaseURL(url)
}

// CheckoutSession is the subset of the gateway session object we read back.
type CheckoutSession struct {
	ID          string            `json:"id"`
	URL         string            `json:"url"`
	AmountTotal int64             `json:"amount_total"` // cents
	Metadata    map[string]string `json:"metadata"`
}

// Event is an inbound webhook event envelope.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// CreateCheckoutSession creates a hosted checkout page for a token purchase
// and returns its redirect URL. The user id and token count ride along as
// opaque metadata and come back on the webhook.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID uint, tokens int, amountUsd float64, successURL, cancelURL string) (string, error) {
	var session CheckoutSession
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"mode":                                "payment",
			"payment_method_types[0]":             "card",
			"line_items[0][price_data][currency]": "usd",
			"line_items[0][price_data][product_data][name]":        fmt.Sprintf("%d Game Tokens", tokens),
			"line_items[0][price_data][product_data][description]": fmt.Sprintf("Purchase %d tokens for your marketplace account", tokens),
			"line_items[0][price_data][unit_amount]":               strconv.FormatInt(int64(amountUsd*100+0.5), 10),
			"line_items[0][quantity]":                              "1",
			"success_url":                                          successURL,
			"cancel_url":                                           cancelURL,
			"metadata[userId]":                                     strconv.FormatUint(uint64(userID), 10),
			"metadata[tokens]":                                     strconv.Itoa(tokens),
		}).
		SetResult(&session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create checkout session: gateway returned %s", resp.Status())
	}
	c.log.Info("checkout session created",
		zap.String("sessionID", session.ID),
		zap.Uint("userID", userID),
		zap.Int("tokens", tokens))
	return session.URL, nil
}

// VerifySignature checks the gateway signature header against the raw
// webhook body. The header carries `t=<unix>,v1=<hex hmac>` pairs; the
// signed payload is `<t>.<body>` under HMAC-SHA256 with the webhook secret.
// Verification fails closed when the secret is unconfigured.
func (c *Client) VerifySignature(payload []byte, header string) error {
	if c.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", apperr.ErrInvalidSignature)
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed signature header", apperr.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return apperr.ErrInvalidSignature
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: undecodable event payload", apperr.ErrValidation)
	}
	if ev.ID == "" || ev.Type == "" {
		return Event{}, fmt.Errorf("%w: event id and type are required", apperr.ErrValidation)
	}
	return ev, nil
}
