// Package market implements marketplace order creation and listing.
// Creating a listing costs 1 token, charged through the ledger in the same
// transaction that inserts the order row.
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const createOrderCost = 1

type Service struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func New(db *gorm.DB, l *ledger.Ledger) *Service {
	return &Service{db: db, ledger: l}
}

// OrderSpec carries the caller-supplied fields of a new listing.
type OrderSpec struct {
	OrderType          string          `json:"orderType"`
	ItemType           string          `json:"itemType"`
	Server             string          `json:"server"`
	AdenaQuantity      *int            `json:"adenaQuantity,omitempty"`
	ItemName           string          `json:"itemName,omitempty"`
	ItemDescription    string          `json:"itemDescription,omitempty"`
	AccountDescription string          `json:"accountDescription,omitempty"`
	Price              decimal.Decimal `json:"price"`
}

// Filter narrows List results; empty fields are ignored and the populated
// ones are combined conjunctively.
type Filter struct {
	Server    string
	ItemType  string
	OrderType string
}

// Create validates the spec, inserts the order with status active and debits
// the 1-token listing charge, all in one transaction. A user who cannot
// afford the charge gets apperr.ErrInsufficientTokens and neither an order
// row nor a ledger row is written.
func (s *Service) Create(ctx context.Context, userID uint, spec OrderSpec) (*models.Order, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:             userID,
		OrderType:          spec.OrderType,
		ItemType:           spec.ItemType,
		Server:             spec.Server,
		AdenaQuantity:      spec.AdenaQuantity,
		ItemName:           spec.ItemName,
		ItemDescription:    spec.ItemDescription,
		AccountDescription: spec.AccountDescription,
		Price:              spec.Price,
		Status:             models.OrderStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		balance, err := s.ledger.WithTx(tx).Balance(ctx, userID)
		if err != nil {
			return err
		}
		if balance < createOrderCost {
			return apperr.ErrInsufficientTokens
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		err = s.ledger.WithTx(tx).Debit(ctx, userID, createOrderCost, ledger.ReasonCreateOrder, &order.ID)
		if errors.Is(err, apperr.ErrInsufficientBalance) {
			// Lost a race between the balance check and the debit.
			return apperr.ErrInsufficientTokens
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns active orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	q := s.db.WithContext(ctx).Where("status = ?", models.OrderStatusActive)
	if filter.Server != "" {
		q = q.Where("server = ?", filter.Server)
	}
	if filter.ItemType != "" {
		q = q.Where("item_type = ?", filter.ItemType)
	}
	if filter.OrderType != "" {
		q = q.Where("order_type = ?", filter.OrderType)
	}
	err := q.Order("created_at desc").Find(&orders).Error
	return orders, err
}

// ListByUser returns every order owned by the user, any status.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// Get returns a single order by id.
func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func validateSpec(spec OrderSpec) error {
	if spec.OrderType != models.OrderTypeBuy && spec.OrderType != models.OrderTypeSell {
		return fmt.Errorf("%w: orderType must be buy or sell", apperr.ErrValidation)
	}
	if spec.Server == "" {
		return fmt.Errorf("%w: server is required", apperr.ErrValidation)
	}
	if !spec.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", apperr.ErrValidation)
	}

	hasAdena := spec.AdenaQuantity != nil
	hasItem := spec.ItemName != "" || spec.ItemDescription != ""
	hasAccount := spec.AccountDescription != ""

	switch spec.ItemType {
	case models.ItemTypeAdena:
		if !hasAdena || *spec.AdenaQuantity <= 0 {
			return fmt.Errorf("%w: adena orders require a positive adenaQuantity", apperr.ErrValidation)
		}
		if hasItem || hasAccount {
			return fmt.Errorf("%w: adena orders must not carry item or account fields", apperr.ErrValidation)
		}
	case models.ItemTypeItem:
		if spec.ItemName == "" {
			return fmt.Errorf("%w: item orders require an itemName", apperr.ErrValidation)
		}
		if hasAdena || hasAccount {
			return fmt.Errorf("%w: item orders must not carry adena or account fields", apperr.ErrValidation)
		}
	case models.ItemTypeAccount:
		if !hasAccount {
			return fmt.Errorf("%w: account orders require an accountDescription", apperr.ErrValidation)
		}
		if hasAdena || hasItem {
			return fmt.Errorf("%w: account orders must not carry adena or item fields", apperr.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: itemType must be adena, item or account", apperr.ErrValidation)
	}
	return nil
}
