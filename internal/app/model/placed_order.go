package model

import (
	"time"
)

// PlacedOrder records a successful order so the same payment cannot be
// turned into a second order.
type PlacedOrder struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	SessionID       string    `gorm:"type:varchar(64);index" json:"session_id"`
	RemoteOrderID   int64     `gorm:"not null" json:"remote_order_id"`
	PaymentIntentID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"payment_intent_id"`
	TotalCents      int64     `gorm:"not null" json:"total_cents"`
	Currency        string    `gorm:"type:varchar(3);not null" json:"currency"`
	CustomerEmail   string    `gorm:"type:varchar(255)" json:"customer_email"`
	CreatedAt       time.Time `json:"created_at"`
}

func (PlacedOrder) TableName() string {
	return "placed_orders"
}
