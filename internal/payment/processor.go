package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Processor credits token purchases confirmed by the gateway. Every event
// id is recorded so a redelivered webhook cannot credit twice.
type Processor struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	log    *zap.Logger
}

func NewProcessor(db *gorm.DB, l *ledger.Ledger, log *zap.Logger) *Processor {
	return &Processor{db: db, ledger: l, log: log}
}

// HandleEvent dispatches a verified webhook event. Unhandled event types
// are acknowledged and logged.
func (p *Processor) HandleEvent(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return p.handleCheckoutCompleted(ctx, ev)
	default:
		p.log.Info("unhandled gateway event", zap.String("type", ev.Type), zap.String("eventID", ev.ID))
		return nil
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, ev Event) error {
	session := ev.Data.Object
	userID, tokens, err := parseMetadata(session.Metadata)
	if err != nil {
		return err
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.PaymentEvent{}).Where("event_id = ?", ev.ID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			p.log.Info("gateway event already processed, skipping", zap.String("eventID", ev.ID))
			return nil
		}
		if err := tx.Create(&models.PaymentEvent{
			EventID: ev.ID,
			UserID:  userID,
			Tokens:  tokens,
		}).Error; err != nil {
			return err
		}
		reason := fmt.Sprintf("Stripe payment: %d tokens for $%.2f", tokens, float64(session.AmountTotal)/100)
		return p.ledger.WithTx(tx).Credit(ctx, userID, tokens, reason)
	})
	if err != nil {
		return err
	}

	p.log.Info("payment processed",
		zap.String("eventID", ev.ID),
		zap.Uint("userID", userID),
		zap.Int("tokens", tokens))
	return nil
}

func parseMetadata(metadata map[string]string) (uint, int, error) {
	rawUser, okUser := metadata["userId"]
	rawTokens, okTokens := metadata["tokens"]
	if !okUser || !okTokens {
		return 0, 0, fmt.Errorf("%w: session metadata missing userId or tokens", apperr.ErrValidation)
	}
	userID, err := strconv.ParseUint(rawUser, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid userId metadata %q", apperr.ErrValidation, rawUser)
	}
	tokens, err := strconv.Atoi(rawTokens)
	if err != nil || tokens <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid tokens metadata %q", apperr.ErrValidation, rawTokens)
	}
	return uint(userID), tokens, nil
}
