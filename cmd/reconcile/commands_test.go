package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/internal/db"
	"github.com/vitaboost/storefront/internal/storage"
	"github.com/vitaboost/storefront/pkg/util"
	"github.com/xuri/excelize/v2"
)

func setupCommandTest(t *testing.T) (*app, *bytes.Buffer, service.ReconciliationService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	svc := service.NewReconciliationService(repository.NewReconciliationRepository(testDB))
	require.NoError(t, svc.Record(context.Background(), &model.ReconciliationRecord{
		PaymentIntentID: "pi_cli",
		AmountCents:     4999,
		Currency:        "usd",
		CustomerEmail:   "ada@example.com",
	}))

	out := &bytes.Buffer{}
	a := &app{
		out: out,
		open: func() (service.ReconciliationService, storage.Uploader, func(), error) {
			return svc, nil, func() {}, nil
		},
	}
	return a, out, svc
}

func run(t *testing.T, a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestListCommand(t *testing.T) {
	a, out, _ := setupCommandTest(t)

	require.NoError(t, run(t, a, "list"))

	assert.Contains(t, out.String(), "pi_cli")
	assert.Contains(t, out.String(), "49.99 usd")
	assert.Contains(t, out.String(), "1 record(s)")
}

func TestListCommand_RejectsUnknownStatus(t *testing.T) {
	a, _, _ := setupCommandTest(t)

	assert.Error(t, run(t, a, "list", "--status", "open"))
}

func TestResolveCommand(t *testing.T) {
	a, out, svc := setupCommandTest(t)

	assert.Error(t, run(t, a, "resolve", "1"))
	require.NoError(t, run(t, a, "resolve", "1", "--note", "Refunded"))
	assert.Contains(t, out.String(), "Resolved #1 (pi_cli)")

	pending, err := svc.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestExportAndImportCommands(t *testing.T) {
	a, out, svc := setupCommandTest(t)
	path := filepath.Join(t.TempDir(), "pending.xlsx")

	require.NoError(t, run(t, a, "export", "--output", path))
	assert.Contains(t, out.String(), "Wrote 1 row(s)")

	// fill in the resolution note the way a bookkeeper would
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	rows, err := f.GetRows("Reconciliations")
	require.NoError(t, err)
	noteCol := -1
	for i, h := range rows[0] {
		if h == "resolution_note" {
			noteCol = i
		}
	}
	require.GreaterOrEqual(t, noteCol, 0)
	cell, err := excelize.CoordinatesToCellName(noteCol+1, 2)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Reconciliations", cell, "Order created by hand"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	require.NoError(t, run(t, a, "import", path))
	assert.Contains(t, out.String(), "Resolved: 1")

	records, err := svc.List(context.Background(), model.ReconciliationResolved)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Order created by hand", records[0].ResolutionNote)
}

func TestExportCommand_UploadNeedsBucket(t *testing.T) {
	a, _, _ := setupCommandTest(t)

	err := run(t, a, "export", "--upload")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_S3_BUCKET")
}

func TestHashTokenCommand(t *testing.T) {
	out := &bytes.Buffer{}
	a := &app{out: out, open: func() (service.ReconciliationService, storage.Uploader, func(), error) {
		t.Fatal("hash-token must not open the database")
		return nil, nil, nil, nil
	}}

	require.NoError(t, run(t, a, "hash-token", "s3cret"))

	hash := strings.TrimSpace(out.String())
	assert.True(t, util.VerifyAdminToken(hash, "s3cret"))
}
