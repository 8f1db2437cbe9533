package db

import (
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table the service owns.
func Models() []interface{} {
	return []interface{}{
		&model.ReconciliationRecord{},
		&model.PlacedOrder{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs migrations against db
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"tables": len(models),
	})
	return nil
}
