package db

import (
	"fmt"

	"github.com/vitaboost/storefront/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with every table
// migrated. Pair it with CleanupTestDB.
func SetupTestDB() (*gorm.DB, error) {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open test database: %w", err)
	}

	// each pooled connection would get its own empty :memory: database
	sqlDB, err := testDB.DB()
	if err != nil {
		return nil, fmt.Errorf("test database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := testDB.AutoMigrate(Models()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate test database: %w", err)
	}
	return testDB, nil
}

func CleanupTestDB(testDB *gorm.DB) {
	sqlDB, err := testDB.DB()
	if err != nil {
		logger.Warn("Test database already unusable", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	sqlDB.Close()
}

// TruncateAllTables empties every migrated table, in migration order.
func TruncateAllTables(testDB *gorm.DB) error {
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: testDB}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("resolve table for %T: %w", m, err)
		}
		if err := testDB.Exec("DELETE FROM " + stmt.Schema.Table).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", stmt.Schema.Table, err)
		}
	}
	return nil
}
