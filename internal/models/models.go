package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	OrderTypeBuy  = "buy"
	OrderTypeSell = "sell"
)

const (
	ItemTypeAdena   = "adena"
	ItemTypeItem    = "item"
	ItemTypeAccount = "account"
)

const (
	OrderStatusActive    = "active"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

const (
	RatingPositive = "positive"
	RatingNegative = "negative"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;size:320;not null"`
	Password string `gorm:"size:255" json:"-"`
	Name     string `gorm:"size:100"`
	Role     string `gorm:"size:10;not null"`
	// PublicID is the 6-digit marketplace identity shown to other traders.
	PublicID string `gorm:"uniqueIndex;size:6"`
	Country  string `gorm:"size:100"`
	Nickname string `gorm:"size:100"`

	// Tokens is the metered listing currency; new accounts start with 10.
	Tokens          int             `gorm:"not null"`
	TotalTrades     int             `gorm:"not null;default:0"`
	PositiveReviews int             `gorm:"not null;default:0"`
	NegativeReviews int             `gorm:"not null;default:0"`
	TrustIndex      decimal.Decimal `gorm:"type:decimal(5,2)"`
}

type Order struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	OrderType string `gorm:"size:4;not null"`  // buy | sell
	ItemType  string `gorm:"size:10;not null"` // adena | item | account
	Server    string `gorm:"size:100;not null"`

	// Exactly one of the groups below is populated, selected by ItemType.
	AdenaQuantity      *int   // quantity in millions (kk)
	ItemName           string `gorm:"size:255"`
	ItemDescription    string `gorm:"type:text"`
	AccountDescription string `gorm:"type:text"`

	Price  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status string          `gorm:"size:10;index;not null"` // active | completed | cancelled
}

// TokenTransaction is the append-only token ledger. Rows are never updated
// or deleted; the sum of a user's amounts tracks the current balance.
type TokenTransaction struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Amount  int    `gorm:"not null"` // positive = credit, negative = debit
	Reason  string `gorm:"size:255;not null"`
	OrderID *uint  `gorm:"index"`
}

type ChatMessage struct {
	gorm.Model
	OrderID     uint   `gorm:"index;not null"`
	SenderID    uint   `gorm:"index;not null"`
	RecipientID uint   `gorm:"index;not null"`
	Message     string `gorm:"type:text;not null"`
	IsRead      bool   `gorm:"not null;default:false"`
}

type Review struct {
	gorm.Model
	OrderID    uint   `gorm:"index;not null"`
	ReviewerID uint   `gorm:"index;not null"`
	RevieweeID uint   `gorm:"index;not null"`
	Rating     string `gorm:"size:8;not null"` // positive | negative
	Comment    string `gorm:"type:text"`
}

// PaymentEvent records processed payment-gateway webhook events so a
// redelivered event cannot credit tokens twice.
type PaymentEvent struct {
	gorm.Model
	EventID string `gorm:"uniqueIndex;size:255;not null"`
	UserID  uint   `gorm:"index;not null"`
	Tokens  int    `gorm:"not null"`
}
