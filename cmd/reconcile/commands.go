package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitaboost/storefront/config"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/internal/db"
	"github.com/vitaboost/storefront/internal/storage"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/util"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// app opens the reconciliation queue lazily so commands that do not touch
// the database (hash-token) run without one.
type app struct {
	out  io.Writer
	open func() (service.ReconciliationService, storage.Uploader, func(), error)
}

func newApp(out io.Writer) *app {
	return &app{out: out, open: openFromConfig}
}

func openFromConfig() (service.ReconciliationService, storage.Uploader, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var uploader storage.Uploader
	if cfg.S3.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(context.Background(), &cfg.S3)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		uploader = s3Storage
	}

	svc := service.NewReconciliationService(repository.NewReconciliationRepository(db.GetDB()))
	return svc, uploader, func() { _ = db.Close() }, nil
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Manage payments that were captured without an order",
		Long: `Reconcile works the queue of payments that Stripe captured but WooCommerce
never turned into an order. Records are listed, exported for bookkeeping and
resolved once the payment has been refunded or the order created by hand.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.Initialize(logger.Config{Level: level, Format: "console", Output: os.Stderr, Service: "reconcile"})
		},
	}
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newHashTokenCmd(a))

	return cmd
}

func parseStatusFlag(status string) (model.ReconciliationStatus, error) {
	s := model.ReconciliationStatus(status)
	switch s {
	case "", model.ReconciliationPending, model.ReconciliationResolved:
		return s, nil
	}
	return "", fmt.Errorf("unsupported status: %s (use pending or resolved)", status)
}

func newListCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reconciliation records",
		Example: `  # Show what still needs attention
  reconcile list --status pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseStatusFlag(status)
			if err != nil {
				return err
			}
			svc, _, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := svc.List(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPAYMENT INTENT\tSTATUS\tAMOUNT\tEMAIL\tATTEMPTS\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%s\t%d\t%s\n",
					r.ID, r.PaymentIntentID, r.Status,
					util.FromMinorUnits(r.AmountCents).StringFixed(2), r.Currency,
					r.CustomerEmail, r.Attempts, r.CreatedAt.UTC().Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d record(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "pending", "Filter by status (pending, resolved, or empty for all)")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:     "resolve <id>",
		Short:   "Mark a record as settled",
		Args:    cobra.ExactArgs(1),
		Example: `  reconcile resolve 42 --note "Refunded in Stripe dashboard"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid record id: %s", args[0])
			}
			svc, _, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			record, err := svc.Resolve(cmd.Context(), uint(id), note)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Resolved #%d (%s)\n", record.ID, record.PaymentIntentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "How the payment was settled (required)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var status string
	var output string
	var upload bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to an xlsx workbook",
		Example: `  # Write pending records to a local file
  reconcile export --output pending.xlsx

  # Store every record in the export bucket
  reconcile export --status "" --upload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseStatusFlag(status)
			if err != nil {
				return err
			}
			svc, uploader, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			if upload && uploader == nil {
				return fmt.Errorf("uploading requires AWS_S3_BUCKET")
			}

			data, rows, err := svc.ExportWorkbook(cmd.Context(), s)
			if err != nil {
				return err
			}

			if upload {
				filename := filepath.Base(output)
				result, err := uploader.Upload(cmd.Context(), "reconciliations", filename, xlsxContentType, data)
				if err != nil {
					return fmt.Errorf("failed to upload export: %w", err)
				}
				fmt.Fprintf(a.out, "Uploaded %d row(s) to %s\n%s\n", rows, result.Key, result.DownloadURL)
				return nil
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(a.out, "Wrote %d row(s) to %s\n", rows, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "pending", "Filter by status (pending, resolved, or empty for all)")
	cmd.Flags().StringVar(&output, "output", "reconciliations.xlsx", "Path of the workbook to write")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload to the export bucket instead of writing a file")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Resolve records listed in a workbook",
		Long: `Import reads a workbook whose first sheet has payment_intent_id and
resolution_note columns and resolves every pending record it lists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			svc, _, closeFn, err := a.open()
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := svc.ImportResolutions(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Resolved: %d\nSkipped: %d\nNot found: %d\n", summary.Resolved, summary.Skipped, summary.NotFound)
			return nil
		},
	}
	return cmd
}

func newHashTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print the ADMIN_TOKEN_HASH value for an admin token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := util.HashAdminToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, hash)
			return nil
		},
	}
}
