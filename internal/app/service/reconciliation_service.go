package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrReconciliationNotFound = errors.New("reconciliation record not found")
	ErrAlreadyResolved        = errors.New("reconciliation record is already resolved")
	ErrResolutionNoteRequired = errors.New("a resolution note is required")
)

const exportSheet = "Reconciliations"

var exportHeaders = []string{
	"id", "payment_intent_id", "status", "amount", "currency", "customer_name",
	"customer_email", "attempts", "failure_reason", "line_items", "created_at",
	"resolved_at", "resolution_note",
}

// ImportSummary counts the outcome of a resolution import.
type ImportSummary struct {
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
	NotFound int `json:"not_found"`
}

type ReconciliationService interface {
	Record(ctx context.Context, record *model.ReconciliationRecord) error
	List(ctx context.Context, status model.ReconciliationStatus) ([]model.ReconciliationRecord, error)
	Resolve(ctx context.Context, id uint, note string) (*model.ReconciliationRecord, error)
	// ResolveByPaymentIntent settles a pending record, if any, for the intent.
	ResolveByPaymentIntent(ctx context.Context, paymentIntentID, note string) error
	PendingCount(ctx context.Context) (int64, error)
	// ExportWorkbook renders records with the given status (all when empty)
	// as an xlsx workbook.
	ExportWorkbook(ctx context.Context, status model.ReconciliationStatus) ([]byte, int, error)
	// ImportResolutions resolves pending records listed in an xlsx workbook
	// with payment_intent_id and resolution_note columns.
	ImportResolutions(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

type reconciliationService struct {
	repo repository.ReconciliationRepository
	now  func() time.Time
}

func NewReconciliationService(repo repository.ReconciliationRepository) ReconciliationService {
	return &reconciliationService{repo: repo, now: time.Now}
}

func (s *reconciliationService) Record(ctx context.Context, record *model.ReconciliationRecord) error {
	return s.repo.Record(record)
}

func (s *reconciliationService) List(ctx context.Context, status model.ReconciliationStatus) ([]model.ReconciliationRecord, error) {
	return s.repo.List(status)
}

func (s *reconciliationService) Resolve(ctx context.Context, id uint, note string) (*model.ReconciliationRecord, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrResolutionNoteRequired
	}

	record, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReconciliationNotFound
		}
		return nil, err
	}
	if record.Status == model.ReconciliationResolved {
		return nil, ErrAlreadyResolved
	}

	return s.repo.Resolve(id, note, s.now())
}

func (s *reconciliationService) ResolveByPaymentIntent(ctx context.Context, paymentIntentID, note string) error {
	record, err := s.repo.FindByPaymentIntentID(paymentIntentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.Status == model.ReconciliationResolved {
		return nil
	}
	_, err = s.repo.Resolve(record.ID, note, s.now())
	return err
}

func (s *reconciliationService) PendingCount(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(model.ReconciliationPending)
}

func (s *reconciliationService) ExportWorkbook(ctx context.Context, status model.ReconciliationStatus) ([]byte, int, error) {
	records, err := s.repo.List(status)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, 0, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		resolvedAt := ""
		if r.ResolvedAt != nil {
			resolvedAt = r.ResolvedAt.UTC().Format(time.RFC3339)
		}
		row := []interface{}{
			r.ID,
			r.PaymentIntentID,
			string(r.Status),
			util.FromMinorUnits(r.AmountCents).StringFixed(2),
			r.Currency,
			r.CustomerName,
			r.CustomerEmail,
			r.Attempts,
			r.FailureReason,
			r.LineItems,
			r.CreatedAt.UTC().Format(time.RFC3339),
			resolvedAt,
			r.ResolutionNote,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, 0, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to render workbook: %w", err)
	}

	logger.Info("Reconciliation workbook exported", map[string]interface{}{
		"status": status,
		"rows":   len(records),
	})
	return buf.Bytes(), len(records), nil
}

func (s *reconciliationService) ImportResolutions(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	// the first row is the header; columns are located by name
	intentCol, noteCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "payment_intent_id":
			intentCol = i
		case "resolution_note":
			noteCol = i
		}
	}
	if intentCol < 0 || noteCol < 0 {
		return nil, fmt.Errorf("XLSX header must contain payment_intent_id and resolution_note")
	}

	summary := &ImportSummary{}
	for _, row := range rows[1:] {
		if len(row) <= intentCol || len(row) <= noteCol {
			summary.Skipped++
			continue
		}
		paymentIntentID := strings.TrimSpace(row[intentCol])
		note := strings.TrimSpace(row[noteCol])
		if paymentIntentID == "" || note == "" {
			summary.Skipped++
			continue
		}

		record, err := s.repo.FindByPaymentIntentID(paymentIntentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			summary.NotFound++
			continue
		}
		if err != nil {
			return summary, err
		}
		if record.Status == model.ReconciliationResolved {
			summary.Skipped++
			continue
		}
		if _, err := s.repo.Resolve(record.ID, note, s.now()); err != nil {
			return summary, err
		}
		summary.Resolved++
	}

	logger.Info("Reconciliation resolutions imported", map[string]interface{}{
		"resolved":  summary.Resolved,
		"skipped":   summary.Skipped,
		"not_found": summary.NotFound,
	})
	return summary, nil
}
