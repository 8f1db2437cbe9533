package repository

import (
	"errors"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/pkg/logger"
	"gorm.io/gorm"
)

type PlacedOrderRepository interface {
	Create(order *model.PlacedOrder) error
	// FindByPaymentIntentID returns nil, nil when no order used the intent.
	FindByPaymentIntentID(paymentIntentID string) (*model.PlacedOrder, error)
	List(limit int) ([]model.PlacedOrder, error)
}

type placedOrderRepository struct {
	db *gorm.DB
}

func NewPlacedOrderRepository(db *gorm.DB) PlacedOrderRepository {
	return &placedOrderRepository{db: db}
}

func (r *placedOrderRepository) Create(order *model.PlacedOrder) error {
	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create placed order in database", err, map[string]interface{}{
			"payment_intent_id": order.PaymentIntentID,
			"remote_order_id":   order.RemoteOrderID,
		})
		return err
	}

	logger.Debug("Placed order created in database", map[string]interface{}{
		"id":              order.ID,
		"remote_order_id": order.RemoteOrderID,
	})
	return nil
}

func (r *placedOrderRepository) FindByPaymentIntentID(paymentIntentID string) (*model.PlacedOrder, error) {
	var order model.PlacedOrder
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to find placed order in database", err, map[string]interface{}{
			"payment_intent_id": paymentIntentID,
		})
		return nil, err
	}
	return &order, nil
}

func (r *placedOrderRepository) List(limit int) ([]model.PlacedOrder, error) {
	query := r.db.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []model.PlacedOrder
	if err := query.Find(&orders).Error; err != nil {
		logger.Error("Failed to list placed orders from database", err)
		return nil, err
	}
	return orders, nil
}
