package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/db"
	"gorm.io/gorm"
)

func setupReconciliationTest(t *testing.T) (*gorm.DB, ReconciliationRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return testDB, NewReconciliationRepository(testDB)
}

func TestReconciliationRepository_Record(t *testing.T) {
	_, repo := setupReconciliationTest(t)

	record := &model.ReconciliationRecord{
		SessionID:       "s1",
		PaymentIntentID: "pi_123",
		AmountCents:     12958,
		Currency:        "usd",
		CustomerEmail:   "ada@example.com",
		FailureReason:   "Sorry, you are not allowed to create resources.",
	}
	require.NoError(t, repo.Record(record))
	assert.NotZero(t, record.ID)

	found, err := repo.FindByPaymentIntentID("pi_123")
	require.NoError(t, err)
	assert.Equal(t, model.ReconciliationPending, found.Status)
	assert.Equal(t, 1, found.Attempts)
	assert.Equal(t, int64(12958), found.AmountCents)
}

func TestReconciliationRepository_RecordTwiceBumpsAttempts(t *testing.T) {
	_, repo := setupReconciliationTest(t)

	require.NoError(t, repo.Record(&model.ReconciliationRecord{PaymentIntentID: "pi_123", AmountCents: 100, Currency: "usd", FailureReason: "first"}))
	require.NoError(t, repo.Record(&model.ReconciliationRecord{PaymentIntentID: "pi_123", AmountCents: 100, Currency: "usd", FailureReason: "second"}))

	records, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Attempts)
	assert.Equal(t, "second", records[0].FailureReason)
}

func TestReconciliationRepository_ListAndResolve(t *testing.T) {
	_, repo := setupReconciliationTest(t)

	first := &model.ReconciliationRecord{PaymentIntentID: "pi_1", AmountCents: 100, Currency: "usd"}
	second := &model.ReconciliationRecord{PaymentIntentID: "pi_2", AmountCents: 200, Currency: "usd"}
	require.NoError(t, repo.Record(first))
	require.NoError(t, repo.Record(second))

	resolvedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resolved, err := repo.Resolve(first.ID, "Order #991 created manually", resolvedAt)
	require.NoError(t, err)
	assert.Equal(t, model.ReconciliationResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolved.ResolvedAt.Equal(resolvedAt))

	pending, err := repo.List(model.ReconciliationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pi_2", pending[0].PaymentIntentID)

	count, err := repo.CountByStatus(model.ReconciliationResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReconciliationRepository_ResolveMissing(t *testing.T) {
	_, repo := setupReconciliationTest(t)

	_, err := repo.Resolve(999, "note", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPlacedOrderRepository(t *testing.T) {
	testDB, _ := setupReconciliationTest(t)
	repo := NewPlacedOrderRepository(testDB)

	found, err := repo.FindByPaymentIntentID("pi_1")
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, repo.Create(&model.PlacedOrder{SessionID: "s1", RemoteOrderID: 1234, PaymentIntentID: "pi_1", TotalCents: 12958, Currency: "usd"}))

	found, err = repo.FindByPaymentIntentID("pi_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1234), found.RemoteOrderID)

	err = repo.Create(&model.PlacedOrder{RemoteOrderID: 1235, PaymentIntentID: "pi_1", Currency: "usd"})
	assert.Error(t, err)

	orders, err := repo.List(10)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
