// Package apperr defines the sentinel errors shared by all services.
// Handlers match them with errors.Is and map them to HTTP status codes.
package apperr

import "errors"

var (
	// ErrInsufficientTokens blocks order creation when the owner cannot
	// afford the 1-token listing charge.
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// ErrInsufficientBalance is returned by the ledger when a debit would
	// take a balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrValidation covers missing or invalid request fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for unknown user or order references.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSignature is returned when a payment webhook fails
	// authenticity verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
