package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
)

func TestMigrateDB_IsRepeatable(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	require.NoError(t, MigrateDB(testDB))

	for _, m := range Models() {
		assert.True(t, testDB.Migrator().HasTable(m), "%T", m)
	}
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { CleanupTestDB(testDB) })

	require.NoError(t, testDB.Create(&model.PlacedOrder{
		RemoteOrderID: 123, PaymentIntentID: "pi_1", TotalCents: 4999, Currency: "usd",
	}).Error)
	require.NoError(t, testDB.Create(&model.ReconciliationRecord{
		PaymentIntentID: "pi_2", AmountCents: 4999, Currency: "usd", Status: model.ReconciliationPending,
	}).Error)

	require.NoError(t, TruncateAllTables(testDB))

	var orders, records int64
	require.NoError(t, testDB.Model(&model.PlacedOrder{}).Count(&orders).Error)
	require.NoError(t, testDB.Unscoped().Model(&model.ReconciliationRecord{}).Count(&records).Error)
	assert.Zero(t, orders)
	assert.Zero(t, records)
}
