// Package chat persists and queries order chat messages. The websocket hub
// writes through this service before broadcasting anything.
package chat

import (
	"context"

	"github.com/gamemarket/rmt-marketplace/internal/models"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SaveMessage stores a chat message. The read flag always starts false.
func (s *Service) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.IsRead = false
	return s.db.WithContext(ctx).Create(msg).Error
}

// ListOrderMessages returns an order's messages oldest first. Clients page
// history through this path; the hub never replays a backlog.
func (s *Service) ListOrderMessages(ctx context.Context, orderID uint) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&messages).Error
	return messages, err
}
