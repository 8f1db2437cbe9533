package db

import (
	"fmt"
	"time"

	"github.com/vitaboost/storefront/config"
	appLogger "github.com/vitaboost/storefront/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration past which a query is logged at warn.
const SlowQueryThreshold = 500 * time.Millisecond

var DB *gorm.DB

// queryLogWriter routes gorm's slow query and error reports into the
// application logger.
type queryLogWriter struct{}

func (queryLogWriter) Printf(format string, args ...interface{}) {
	appLogger.Warn("Database query report", map[string]interface{}{
		"component": "gorm",
		"detail":    fmt.Sprintf(format, args...),
	})
}

func newQueryLogger() logger.Interface {
	return logger.New(queryLogWriter{}, logger.Config{
		SlowThreshold:             SlowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open connects to Postgres when DB_HOST is set, otherwise to the local
// SQLite file. The pool is sized for the chosen backend.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		maxOpen   = 100
	)
	if cfg.UsePostgres() {
		appLogger.Info("Connecting to database", map[string]interface{}{
			"host":     cfg.Host,
			"port":     cfg.Port,
			"database": cfg.DBName,
			"user":     cfg.User,
		})
		dialector = postgres.Open(cfg.DSN())
	} else {
		appLogger.Info("DB_HOST not set, using SQLite database", map[string]interface{}{
			"path": cfg.SQLitePath,
		})
		dialector = sqlite.Open(cfg.SQLitePath)
		// single writer
		maxOpen = 1
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: newQueryLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(min(10, maxOpen))
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"driver":         dialector.Name(),
		"max_open_conns": maxOpen,
	})
	return conn, nil
}

// Initialize opens the process-wide connection used by Migrate and GetDB.
func Initialize(cfg *config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}
