package repository

import (
	"errors"
	"time"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReconciliationRepository interface {
	// Record inserts a pending record, or bumps the attempt count and reason
	// when the payment intent is already queued.
	Record(record *model.ReconciliationRecord) error
	FindByID(id uint) (*model.ReconciliationRecord, error)
	FindByPaymentIntentID(paymentIntentID string) (*model.ReconciliationRecord, error)
	List(status model.ReconciliationStatus) ([]model.ReconciliationRecord, error)
	CountByStatus(status model.ReconciliationStatus) (int64, error)
	Resolve(id uint, note string, at time.Time) (*model.ReconciliationRecord, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Record(record *model.ReconciliationRecord) error {
	logger.Debug("Recording reconciliation entry in database", map[string]interface{}{
		"payment_intent_id": record.PaymentIntentID,
		"amount_cents":      record.AmountCents,
	})

	if record.Status == "" {
		record.Status = model.ReconciliationPending
	}
	if record.Attempts == 0 {
		record.Attempts = 1
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "payment_intent_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"failure_reason": record.FailureReason,
			"attempts":       gorm.Expr("reconciliation_records.attempts + 1"),
			"status":         model.ReconciliationPending,
			"updated_at":     time.Now(),
		}),
	}).Create(record).Error
	if err != nil {
		logger.Error("Failed to record reconciliation entry in database", err, map[string]interface{}{
			"payment_intent_id": record.PaymentIntentID,
		})
		return err
	}

	logger.Warn("Payment captured without an order, queued for reconciliation", map[string]interface{}{
		"payment_intent_id": record.PaymentIntentID,
		"amount_cents":      record.AmountCents,
		"currency":          record.Currency,
	})
	return nil
}

func (r *reconciliationRepository) FindByID(id uint) (*model.ReconciliationRecord, error) {
	var record model.ReconciliationRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find reconciliation entry by ID in database", err, map[string]interface{}{
				"id": id,
			})
		}
		return nil, err
	}
	return &record, nil
}

func (r *reconciliationRepository) FindByPaymentIntentID(paymentIntentID string) (*model.ReconciliationRecord, error) {
	var record model.ReconciliationRecord
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records newest first; an empty status returns all.
func (r *reconciliationRepository) List(status model.ReconciliationStatus) ([]model.ReconciliationRecord, error) {
	logger.Debug("Listing reconciliation entries from database", map[string]interface{}{
		"status": status,
	})

	query := r.db.Order("created_at DESC").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var records []model.ReconciliationRecord
	if err := query.Find(&records).Error; err != nil {
		logger.Error("Failed to list reconciliation entries from database", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}
	return records, nil
}

func (r *reconciliationRepository) CountByStatus(status model.ReconciliationStatus) (int64, error) {
	var count int64
	err := r.db.Model(&model.ReconciliationRecord{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *reconciliationRepository) Resolve(id uint, note string, at time.Time) (*model.ReconciliationRecord, error) {
	record, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}

	record.Status = model.ReconciliationResolved
	record.ResolutionNote = note
	record.ResolvedAt = &at
	if err := r.db.Save(record).Error; err != nil {
		logger.Error("Failed to resolve reconciliation entry in database", err, map[string]interface{}{
			"id": id,
		})
		return nil, err
	}

	logger.Info("Reconciliation entry resolved", map[string]interface{}{
		"id":                id,
		"payment_intent_id": record.PaymentIntentID,
	})
	return record, nil
}
