// Package ledger owns token balance mutation and the append-only
// transaction log. Every balance change goes through Debit, Credit or
// DebitFloored so the balance update and the ledger append always commit
// together.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"gorm.io/gorm"
)

const (
	ReasonCreateOrder      = "create_order"
	ReasonDailyMaintenance = "daily_maintenance"
	ReasonPurchase         = "purchase"
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to an existing transaction so callers can
// couple a debit with their own writes in one commit.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Debit removes amount tokens from the user and appends a negative ledger
// row. It fails with apperr.ErrInsufficientBalance when the balance cannot
// cover the amount and never lets the balance go below zero.
func (l *Ledger) Debit(ctx context.Context, userID uint, amount int, reason string, orderID *uint) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be a positive integer", apperr.ErrValidation)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND tokens >= ?", userID, amount).
			UpdateColumn("tokens", gorm.Expr("tokens - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := userExists(tx, userID); err != nil {
				return err
			}
			return apperr.ErrInsufficientBalance
		}
		return tx.Create(&models.TokenTransaction{
			UserID:  userID,
			Amount:  -amount,
			Reason:  reason,
			OrderID: orderID,
		}).Error
	})
}

// Credit adds amount tokens to the user and appends a positive ledger row.
func (l *Ledger) Credit(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be a positive integer", apperr.ErrValidation)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("tokens", gorm.Expr("tokens + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return tx.Create(&models.TokenTransaction{
			UserID: userID,
			Amount: amount,
			Reason: reason,
		}).Error
	})
}

// DebitFloored charges one token but floors the balance at zero instead of
// failing: a user already at zero is charged nothing and no ledger row is
// written. Used by the daily maintenance charge.
func (l *Ledger) DebitFloored(ctx context.Context, userID uint, reason string, orderID *uint) (remaining int, charged bool, err error) {
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND tokens >= 1", userID).
			UpdateColumn("tokens", gorm.Expr("tokens - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			charged = true
			if err := tx.Create(&models.TokenTransaction{
				UserID:  userID,
				Amount:  -1,
				Reason:  reason,
				OrderID: orderID,
			}).Error; err != nil {
				return err
			}
		} else if err := userExists(tx, userID); err != nil {
			return err
		}

		var user models.User
		if err := tx.Select("tokens").First(&user, userID).Error; err != nil {
			return err
		}
		remaining = user.Tokens
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return remaining, charged, nil
}

// Balance returns the user's current token balance.
func (l *Ledger) Balance(ctx context.Context, userID uint) (int, error) {
	var user models.User
	err := l.db.WithContext(ctx).Select("tokens").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.Tokens, nil
}

// Transactions returns the user's ledger rows, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID uint) ([]models.TokenTransaction, error) {
	txs := make([]models.TokenTransaction, 0)
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&txs).Error
	return txs, err
}

func userExists(tx *gorm.DB, userID uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
