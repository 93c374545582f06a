package store

import (
	"github.com/gamemarket/rmt-marketplace/configs"
	"github.com/gamemarket/rmt-marketplace/internal/logger"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func NewDB() {
	dsn := configs.AppConfig.DB.DSN
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: false,
	}), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	DB = db
	logger.Log.Info("connected to the database")
}

func DBMigrate() {
	DB.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.TokenTransaction{},
		&models.ChatMessage{},
		&models.Review{},
		&models.PaymentEvent{},
	)
	logger.Log.Info("migrations loaded")
}
