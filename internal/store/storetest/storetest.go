// Package storetest opens throwaway in-memory databases for package tests.
package storetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gamemarket/rmt-marketplace/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory sqlite database unique to the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// Shared-cache in-memory sqlite misbehaves with concurrent connections.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.TokenTransaction{},
		&models.ChatMessage{},
		&models.Review{},
		&models.PaymentEvent{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
