package market_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/market"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/gamemarket/rmt-marketplace/internal/store/storetest"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *ledger.Ledger, *market.Service) {
	t.Helper()
	db := storetest.Open(t)
	l := ledger.New(db)
	return db, l, market.New(db, l)
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, tokens int) models.User {
	t.Helper()
	userSeq++
	user := models.User{
		Email:      fmt.Sprintf("%s-%d@test.com", t.Name(), userSeq),
		PublicID:   fmt.Sprintf("1%05d", userSeq),
		Role:       models.RoleUser,
		Tokens:     tokens,
		TrustIndex: decimal.NewFromInt(100),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func adenaSpec(qty int) market.OrderSpec {
	return market.OrderSpec{
		OrderType:     models.OrderTypeSell,
		ItemType:      models.ItemTypeAdena,
		Server:        "Teon",
		AdenaQuantity: &qty,
		Price:         decimal.RequireFromString("12.50"),
	}
}

func TestCreateChargesOneToken(t *testing.T) {
	db, l, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 10)

	order, err := svc.Create(ctx, user.ID, adenaSpec(100))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != models.OrderStatusActive {
		t.Errorf("expected status active, got %s", order.Status)
	}

	balance, _ := l.Balance(ctx, user.ID)
	if balance != 9 {
		t.Errorf("expected balance 9, got %d", balance)
	}

	txs, _ := l.Transactions(ctx, user.ID)
	if len(txs) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(txs))
	}
	if txs[0].Amount != -1 || txs[0].Reason != ledger.ReasonCreateOrder {
		t.Errorf("unexpected ledger row: %+v", txs[0])
	}
	if txs[0].OrderID == nil || *txs[0].OrderID != order.ID {
		t.Errorf("ledger row should reference order %d, got %v", order.ID, txs[0].OrderID)
	}
}

func TestCreateWithZeroBalance(t *testing.T) {
	db, l, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 0)

	_, err := svc.Create(ctx, user.ID, adenaSpec(50))
	if !errors.Is(err, apperr.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	// Neither an order row nor a ledger row may survive the failure.
	var orderCount int64
	db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orderCount)
	if orderCount != 0 {
		t.Errorf("expected no order rows, got %d", orderCount)
	}
	txs, _ := l.Transactions(ctx, user.ID)
	if len(txs) != 0 {
		t.Errorf("expected no ledger rows, got %d", len(txs))
	}
}

func TestCreateSequentialOrders(t *testing.T) {
	db, l, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 10)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, user.ID, adenaSpec(10*(i+1))); err != nil {
			t.Fatalf("order %d: %v", i+1, err)
		}
	}

	balance, _ := l.Balance(ctx, user.ID)
	if balance != 7 {
		t.Errorf("expected balance 7, got %d", balance)
	}
	txs, _ := l.Transactions(ctx, user.ID)
	if len(txs) != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.Amount != -1 || tx.Reason != ledger.ReasonCreateOrder {
			t.Errorf("unexpected ledger row: %+v", tx)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 10)
	qty := 100

	cases := []struct {
		name string
		spec market.OrderSpec
	}{
		{"zero price", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeAdena,
			Server: "Teon", AdenaQuantity: &qty, Price: decimal.Zero,
		}},
		{"negative price", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeAdena,
			Server: "Teon", AdenaQuantity: &qty, Price: decimal.RequireFromString("-1"),
		}},
		{"adena without quantity", market.OrderSpec{
			OrderType: models.OrderTypeBuy, ItemType: models.ItemTypeAdena,
			Server: "Teon", Price: decimal.NewFromInt(5),
		}},
		{"item without name", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeItem,
			Server: "Teon", Price: decimal.NewFromInt(5),
		}},
		{"account without description", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeAccount,
			Server: "Teon", Price: decimal.NewFromInt(5),
		}},
		{"mismatched payload", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeItem,
			Server: "Teon", ItemName: "Sword", AdenaQuantity: &qty,
			Price: decimal.NewFromInt(5),
		}},
		{"unknown item type", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: "mount",
			Server: "Teon", Price: decimal.NewFromInt(5),
		}},
		{"missing server", market.OrderSpec{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeAdena,
			AdenaQuantity: &qty, Price: decimal.NewFromInt(5),
		}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, user.ID, tc.spec); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}
}

func TestListFilters(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 10)

	specs := []market.OrderSpec{
		adenaSpec(100),
		{
			OrderType: models.OrderTypeBuy, ItemType: models.ItemTypeItem,
			Server: "Teon", ItemName: "Draconic Bow", Price: decimal.NewFromInt(30),
		},
		{
			OrderType: models.OrderTypeSell, ItemType: models.ItemTypeAccount,
			Server: "Franz", AccountDescription: "78 necro", Price: decimal.NewFromInt(200),
		},
	}
	for i, spec := range specs {
		if _, err := svc.Create(ctx, user.ID, spec); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	// Cancelled orders are excluded from the public listing.
	cancelled, err := svc.Create(ctx, user.ID, adenaSpec(5))
	if err != nil {
		t.Fatalf("create cancelled: %v", err)
	}
	db.Model(&models.Order{}).Where("id = ?", cancelled.ID).
		Update("status", models.OrderStatusCancelled)

	all, err := svc.List(ctx, market.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 active orders, got %d", len(all))
	}

	teonSells, err := svc.List(ctx, market.Filter{Server: "Teon", OrderType: models.OrderTypeSell})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(teonSells) != 1 || teonSells[0].ItemType != models.ItemTypeAdena {
		t.Errorf("expected the Teon adena sell order, got %+v", teonSells)
	}

	accounts, err := svc.List(ctx, market.Filter{ItemType: models.ItemTypeAccount})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Server != "Franz" {
		t.Errorf("expected the Franz account order, got %+v", accounts)
	}
}

func TestListByUserIncludesAllStatuses(t *testing.T) {
	db, _, svc := setup(t)
	ctx := context.Background()
	user := createUser(t, db, 10)
	other := createUser(t, db, 10)

	mine, err := svc.Create(ctx, user.ID, adenaSpec(10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Model(&models.Order{}).Where("id = ?", mine.ID).
		Update("status", models.OrderStatusCompleted)
	if _, err := svc.Create(ctx, other.ID, adenaSpec(20)); err != nil {
		t.Fatalf("create other: %v", err)
	}

	orders, err := svc.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != models.OrderStatusCompleted {
		t.Errorf("expected the completed order only, got %+v", orders)
	}
}

func TestGetNotFound(t *testing.T) {
	_, _, svc := setup(t)

	_, err := svc.Get(context.Background(), 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
