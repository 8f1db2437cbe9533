package model

import (
	"time"

	"gorm.io/gorm"
)

type ReconciliationStatus string

const (
	ReconciliationPending  ReconciliationStatus = "pending"
	ReconciliationResolved ReconciliationStatus = "resolved"
)

// ReconciliationRecord is a captured payment whose order could not be
// created. It stays pending until an operator settles it by hand.
type ReconciliationRecord struct {
	ID              uint                 `gorm:"primarykey" json:"id"`
	SessionID       string               `gorm:"type:varchar(64);index" json:"session_id"`
	PaymentIntentID string               `gorm:"type:varchar(255);uniqueIndex;not null" json:"payment_intent_id"`
	AmountCents     int64                `gorm:"not null" json:"amount_cents"`
	Currency        string               `gorm:"type:varchar(3);not null" json:"currency"`
	CustomerEmail   string               `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerName    string               `gorm:"type:varchar(255)" json:"customer_name"`
	LineItems       string               `gorm:"type:text" json:"line_items"`
	FailureReason   string               `gorm:"type:text" json:"failure_reason"`
	Attempts        int                  `gorm:"not null;default:1" json:"attempts"`
	Status          ReconciliationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolutionNote  string               `gorm:"type:text" json:"resolution_note,omitempty"`
	ResolvedAt      *time.Time           `json:"resolved_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	DeletedAt       gorm.DeletedAt       `gorm:"index" json:"-"`
}

func (ReconciliationRecord) TableName() string {
	return "reconciliation_records"
}
