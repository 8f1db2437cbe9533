package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/config"
)

func TestOpen_SQLiteWhenNoHost(t *testing.T) {
	cfg := &config.DatabaseConfig{SQLitePath: filepath.Join(t.TempDir(), "storefront.db")}

	conn, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(conn) })

	assert.Equal(t, "sqlite", conn.Dialector.Name())
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, MigrateDB(conn))
	assert.FileExists(t, cfg.SQLitePath)
}

func TestClose_WithoutInitialize(t *testing.T) {
	saved := DB
	DB = nil
	t.Cleanup(func() { DB = saved })

	assert.NoError(t, Close())
}
