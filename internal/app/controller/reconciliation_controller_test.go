package controller

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/internal/db"
	"github.com/vitaboost/storefront/internal/storage"
	"github.com/xuri/excelize/v2"
)

type fakeUploader struct {
	uploads []string
}

func (u *fakeUploader) Upload(ctx context.Context, folder, filename, contentType string, body []byte) (*storage.UploadResult, error) {
	key := storage.ObjectKey(folder, filename)
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, FileURL: "https://exports.example.com/" + key, DownloadURL: "https://signed.example.com/" + key}, nil
}

func setupReconciliationControllerTest(t *testing.T, uploader storage.Uploader) (*gin.Engine, service.ReconciliationService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	reconciliations := service.NewReconciliationService(repository.NewReconciliationRepository(testDB))
	ctrl := NewReconciliationController(reconciliations, uploader)

	router := newTestRouter()
	router.GET("/admin/reconciliations", ctrl.ListReconciliations)
	router.GET("/admin/reconciliations/export", ctrl.ExportReconciliations)
	router.POST("/admin/reconciliations/import", ctrl.ImportResolutions)
	router.POST("/admin/reconciliations/:id/resolve", ctrl.ResolveReconciliation)
	return router, reconciliations
}

func seedReconciliation(t *testing.T, reconciliations service.ReconciliationService, paymentIntentID string) *model.ReconciliationRecord {
	record := &model.ReconciliationRecord{
		SessionID:       testSessionID,
		PaymentIntentID: paymentIntentID,
		AmountCents:     12958,
		Currency:        "usd",
		CustomerEmail:   "ada@example.com",
		FailureReason:   "WooCommerce API error: 401 Unauthorized",
	}
	require.NoError(t, reconciliations.Record(context.Background(), record))
	return record
}

func TestReconciliationController_ListAndResolve(t *testing.T) {
	router, reconciliations := setupReconciliationControllerTest(t, nil)
	record := seedReconciliation(t, reconciliations, "pi_1")

	w := doJSON(t, router, http.MethodGet, "/admin/reconciliations?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1), body["pending"])

	w = doJSON(t, router, http.MethodGet, "/admin/reconciliations?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/reconciliations/1/resolve", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/admin/reconciliations/999/resolve", map[string]interface{}{"note": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	path := "/admin/reconciliations/" + strconv.FormatUint(uint64(record.ID), 10) + "/resolve"
	w = doJSON(t, router, http.MethodPost, path, map[string]interface{}{"note": "Refunded"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", decode(t, w)["status"])

	w = doJSON(t, router, http.MethodPost, path, map[string]interface{}{"note": "Refunded"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReconciliationController_ExportDownload(t *testing.T) {
	router, reconciliations := setupReconciliationControllerTest(t, nil)
	seedReconciliation(t, reconciliations, "pi_1")

	w := doJSON(t, router, http.MethodGet, "/admin/reconciliations/export", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reconciliations-")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Reconciliations")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// uploading needs storage
	w = doJSON(t, router, http.MethodGet, "/admin/reconciliations/export?upload=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReconciliationController_ExportUpload(t *testing.T) {
	uploader := &fakeUploader{}
	router, reconciliations := setupReconciliationControllerTest(t, uploader)
	seedReconciliation(t, reconciliations, "pi_1")

	w := doJSON(t, router, http.MethodGet, "/admin/reconciliations/export?upload=true", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["rows"])
	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, uploader.uploads[0], body["key"])
}

func TestReconciliationController_Import(t *testing.T) {
	router, reconciliations := setupReconciliationControllerTest(t, nil)
	seedReconciliation(t, reconciliations, "pi_1")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"payment_intent_id", "resolution_note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"pi_1", "Refunded in dashboard"}))
	workbook, err := f.WriteToBuffer()
	require.NoError(t, err)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "resolutions.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/reconciliations/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["resolved"])

	count, err := reconciliations.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReconciliationController_ImportRequiresFile(t *testing.T) {
	router, _ := setupReconciliationControllerTest(t, nil)

	w := doJSON(t, router, http.MethodPost, "/admin/reconciliations/import", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
