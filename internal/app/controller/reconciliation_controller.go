package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/service"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/internal/storage"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFolder    = "reconciliations"
	maxImportSize   = 10 << 20
)

type ReconciliationController struct {
	reconciliationService service.ReconciliationService
	uploader              storage.Uploader
}

// NewReconciliationController accepts a nil uploader; exports are then only
// downloadable.
func NewReconciliationController(reconciliationService service.ReconciliationService, uploader storage.Uploader) *ReconciliationController {
	return &ReconciliationController{
		reconciliationService: reconciliationService,
		uploader:              uploader,
	}
}

type ResolveReconciliationRequest struct {
	Note string `json:"note" binding:"required"`
}

func parseStatus(c *gin.Context) (model.ReconciliationStatus, bool) {
	status := model.ReconciliationStatus(c.Query("status"))
	switch status {
	case "", model.ReconciliationPending, model.ReconciliationResolved:
		return status, true
	}
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status must be pending or resolved")
	return "", false
}

// ListReconciliations returns captured payments without an order
// GET /api/admin/reconciliations?status=
func (ctrl *ReconciliationController) ListReconciliations(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	status, ok := parseStatus(c)
	if !ok {
		return
	}

	records, err := ctrl.reconciliationService.List(c.Request.Context(), status)
	if err != nil {
		log.Error("Failed to list reconciliations", err)
		apperrors.StorageError(c, err, "reconciliation")
		return
	}
	pending, err := ctrl.reconciliationService.PendingCount(c.Request.Context())
	if err != nil {
		log.Error("Failed to count pending reconciliations", err)
		apperrors.StorageError(c, err, "reconciliation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
		"pending": pending,
	})
}

// ResolveReconciliation marks a record as settled by hand
// POST /api/admin/reconciliations/:id/resolve
func (ctrl *ReconciliationController) ResolveReconciliation(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid reconciliation ID")
		return
	}

	var req ResolveReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, service.ErrResolutionNoteRequired.Error())
		return
	}

	record, err := ctrl.reconciliationService.Resolve(c.Request.Context(), uint(id), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResolutionNoteRequired):
			apperrors.BadRequest(c, apperrors.ValidationRequired, err.Error())
		case errors.Is(err, service.ErrReconciliationNotFound):
			apperrors.NotFound(c, apperrors.ResourceNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyResolved):
			apperrors.Conflict(c, apperrors.ResourceConflict, err.Error())
		default:
			log.Error("Failed to resolve reconciliation", err, map[string]interface{}{
				"id": id,
			})
			apperrors.StorageError(c, err, "reconciliation")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// ExportReconciliations renders records as an xlsx workbook. With
// upload=true the workbook is stored and a download link is returned.
// GET /api/admin/reconciliations/export?status=&upload=
func (ctrl *ReconciliationController) ExportReconciliations(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	status, ok := parseStatus(c)
	if !ok {
		return
	}
	upload := c.Query("upload") == "true"
	if upload && ctrl.uploader == nil {
		apperrors.ServiceUnavailable(c, "Export storage is not configured")
		return
	}

	data, rows, err := ctrl.reconciliationService.ExportWorkbook(c.Request.Context(), status)
	if err != nil {
		log.Error("Failed to export reconciliations", err)
		apperrors.StorageError(c, err, "reconciliation")
		return
	}

	filename := fmt.Sprintf("reconciliations-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	if !upload {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK, xlsxContentType, data)
		return
	}

	result, err := ctrl.uploader.Upload(c.Request.Context(), exportFolder, filename, xlsxContentType, data)
	if err != nil {
		log.Error("Failed to upload reconciliation export", err)
		apperrors.BadGateway(c, apperrors.InternalExternalAPI, "Failed to upload export")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":         rows,
		"key":          result.Key,
		"file_url":     result.FileURL,
		"download_url": result.DownloadURL,
	})
}

// ImportResolutions resolves records listed in an uploaded xlsx workbook
// POST /api/admin/reconciliations/import (multipart field "file")
func (ctrl *ReconciliationController) ImportResolutions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "An xlsx file is required")
		return
	}
	if header.Size > maxImportSize {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "File is too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded workbook", err)
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	summary, err := ctrl.reconciliationService.ImportResolutions(c.Request.Context(), file)
	if err != nil {
		log.Warn("Rejected reconciliation import", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	c.JSON(http.StatusOK, summary)
}
