package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/internal/db"
	"github.com/xuri/excelize/v2"
)

func setupReconciliationServiceTest(t *testing.T) ReconciliationService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewReconciliationService(repository.NewReconciliationRepository(testDB))
}

func recordPending(t *testing.T, svc ReconciliationService, paymentIntentID string) *model.ReconciliationRecord {
	record := &model.ReconciliationRecord{
		SessionID:       "s1",
		PaymentIntentID: paymentIntentID,
		AmountCents:     12958,
		Currency:        "usd",
		CustomerEmail:   "ada@example.com",
		CustomerName:    "Ada Lovelace",
		LineItems:       `[{"product_id":7,"quantity":2}]`,
		FailureReason:   "WooCommerce API error: 401 Unauthorized",
	}
	require.NoError(t, svc.Record(context.Background(), record))
	return record
}

func TestReconciliationService_Resolve(t *testing.T) {
	svc := setupReconciliationServiceTest(t)
	ctx := context.Background()
	record := recordPending(t, svc, "pi_1")

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.Resolve(ctx, record.ID, "  ")
	assert.ErrorIs(t, err, ErrResolutionNoteRequired)

	resolved, err := svc.Resolve(ctx, record.ID, "Order #991 created by hand")
	require.NoError(t, err)
	assert.Equal(t, model.ReconciliationResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = svc.Resolve(ctx, record.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	_, err = svc.Resolve(ctx, 9999, "missing")
	assert.ErrorIs(t, err, ErrReconciliationNotFound)

	count, err = svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReconciliationService_ResolveByPaymentIntent(t *testing.T) {
	svc := setupReconciliationServiceTest(t)
	ctx := context.Background()
	recordPending(t, svc, "pi_1")

	// unknown intents are ignored
	require.NoError(t, svc.ResolveByPaymentIntent(ctx, "pi_unknown", "note"))
	require.NoError(t, svc.ResolveByPaymentIntent(ctx, "pi_1", "Order #5 created on retry"))

	resolved, err := svc.List(ctx, model.ReconciliationResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Order #5 created on retry", resolved[0].ResolutionNote)
}

func TestReconciliationService_ExportWorkbook(t *testing.T) {
	svc := setupReconciliationServiceTest(t)
	ctx := context.Background()
	recordPending(t, svc, "pi_1")
	recordPending(t, svc, "pi_2")

	data, rows, err := svc.ExportWorkbook(ctx, model.ReconciliationPending)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet, err := f.GetRows("Reconciliations")
	require.NoError(t, err)
	require.Len(t, sheet, 3)
	assert.Equal(t, "payment_intent_id", sheet[0][1])
	assert.Equal(t, "129.58", sheet[1][3])
	assert.Equal(t, "Ada Lovelace", sheet[1][5])
}

func TestReconciliationService_ImportResolutions(t *testing.T) {
	svc := setupReconciliationServiceTest(t)
	ctx := context.Background()
	recordPending(t, svc, "pi_1")
	recordPending(t, svc, "pi_2")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"payment_intent_id", "resolution_note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"pi_1", "Refunded in dashboard"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"pi_2", ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"pi_missing", "n/a"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	summary, err := svc.ImportResolutions(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.NotFound)

	count, err := svc.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReconciliationService_ImportRequiresHeader(t *testing.T) {
	svc := setupReconciliationServiceTest(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"id", "note"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = svc.ImportResolutions(context.Background(), bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}
