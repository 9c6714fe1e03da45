// Package export writes ledger statements as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"debiti/internal/core"
	"debiti/internal/ledger"
)

const (
	ObligationsSheet = "Obligations"
	PaymentsSheet    = "Payments"
)

var (
	obligationHeaders = []any{"ID", "Obligation", "Entity", "Kind", "Status", "Principal", "APR %", "Installment", "Installments", "Due day", "Paid", "Balance"}
	paymentHeaders    = []any{"Payment", "Date", "Obligation", "Entity", "Amount", "Method", "Note"}
)

// WriteStatement writes st to w as a workbook with one sheet of obligations
// and one of payments. Amounts are formatted with three decimals.
func WriteStatement(w io.Writer, st ledger.Statement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ObligationsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PaymentsSheet); err != nil {
		return fmt.Errorf("create payments sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	obligations := [][]any{obligationHeaders}
	payments := [][]any{paymentHeaders}
	for _, line := range st.Lines {
		o := line.Obligation
		obligations = append(obligations, []any{
			o.ID,
			o.Name,
			line.Entity.Name,
			string(o.Kind),
			string(o.Status),
			money(o.Principal),
			o.APR,
			money(o.InstallmentAmount),
			installments(o),
			o.DueDay,
			money(line.Paid),
			money(line.Balance),
		})
		for _, p := range line.Payments {
			payments = append(payments, []any{
				p.ID,
				p.Date.String(),
				o.Name,
				line.Entity.Name,
				money(p.Amount),
				string(p.Method),
				p.Note,
			})
		}
	}

	if err := writeRows(f, ObligationsSheet, obligations, bold); err != nil {
		return err
	}
	if err := writeRows(f, PaymentsSheet, payments, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(ObligationsSheet, "B", "C", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(PaymentsSheet, "C", "D", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(PaymentsSheet, "G", "G", 30); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func money(m core.Money) string {
	return core.Format(m.Float(), "")
}

func installments(o core.Obligation) string {
	if o.TotalInstallments == nil || o.RemainingInstallments == nil {
		return "open"
	}
	return strconv.Itoa(*o.RemainingInstallments) + "/" + strconv.Itoa(*o.TotalInstallments)
}
