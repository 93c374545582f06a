package seed

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/logger"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/gamemarket/rmt-marketplace/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const seedPassword = "password123"

var testUsers = []struct {
	Name     string
	Email    string
	PublicID string
}{
	{"Test Trader 1", "trader1@test.com", "100001"},
	{"Test Trader 2", "trader2@test.com", "100002"},
	{"Test Trader 3", "trader3@test.com", "100003"},
}

// Run creates three test traders, each holding one active listing paid
// for out of the 10-token signup balance so the ledger stays consistent.
func Run() {
	db := store.DB
	var count int64
	if err := db.Model(&models.User{}).Where("email IN ?", []string{"trader1@test.com", "trader2@test.com", "trader3@test.com"}).Count(&count).Error; err != nil {
		logger.Log.Fatal("seed check failed", zap.Error(err))
	}
	if count >= 3 {
		logger.Log.Info("seed already applied, skipping")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatal("failed to hash seed password", zap.Error(err))
	}
	hashed := string(hash)

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, u := range testUsers {
			adena := 100 * (i + 1)
			user := models.User{
				Name:       u.Name,
				Email:      u.Email,
				Password:   hashed,
				Role:       models.RoleUser,
				PublicID:   u.PublicID,
				Tokens:     9, // 10 signup tokens minus the listing charge below
				TrustIndex: decimal.NewFromInt(100),
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}

			order := models.Order{
				UserID:        user.ID,
				OrderType:     models.OrderTypeSell,
				ItemType:      models.ItemTypeAdena,
				Server:        "Teon",
				AdenaQuantity: &adena,
				Price:         decimal.RequireFromString(fmt.Sprintf("%d.00", 5*(i+1))),
				Status:        models.OrderStatusActive,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}

			entry := models.TokenTransaction{
				UserID:  user.ID,
				Amount:  -1,
				Reason:  ledger.ReasonCreateOrder,
				OrderID: &order.ID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Log.Fatal("seed failed", zap.Error(err))
	}
	logger.Log.Info("seeded 3 test traders", zap.String("password", seedPassword))
}
