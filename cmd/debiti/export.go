package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"debiti/internal/core"
	"debiti/internal/export"
	"debiti/internal/storage"
)

var flagExportStatus []string

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Write a statement workbook of obligations and payments",
	Args:  cobra.ExactArgs(1),
	RunE:  withLedger(runExport),
}

func init() {
	exportCmd.Flags().StringSliceVar(&flagExportStatus, "status", nil, "Only these statuses (repeatable)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, cmd *cobra.Command, a *app, args []string) (err error) {
	var filter storage.ObligationFilter
	for _, s := range flagExportStatus {
		filter.Statuses = append(filter.Statuses, core.Status(s))
	}
	st, err := a.ledger.Statement(ctx, filter)
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", args[0], cerr)
		}
	}()

	if err := export.WriteStatement(f, st); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d obligations to %s\n", len(st.Lines), args[0])
	return nil
}
