package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
	"debiti/internal/ledger"
)

var (
	flagPayDate   string
	flagPayMethod string
	flagPayNote   string

	flagCoveredMonth string
)

var payCmd = &cobra.Command{
	Use:   "pay <obligation-id> <amount>",
	Short: "Record a payment against an obligation",
	Args:  cobra.ExactArgs(2),
	RunE:  withLedger(runPay),
}

var coveredCmd = &cobra.Command{
	Use:   "covered <obligation-id>",
	Short: "Report whether a month's installment is paid",
	Args:  cobra.ExactArgs(1),
	RunE:  withLedger(runCovered),
}

func init() {
	payCmd.Flags().StringVar(&flagPayDate, "date", "", "Payment date YYYY-MM-DD (default today)")
	payCmd.Flags().StringVar(&flagPayMethod, "method", string(core.MethodCash), "Method (cash, card, bank_transfer, wallet, other)")
	payCmd.Flags().StringVar(&flagPayNote, "note", "", "Note")

	coveredCmd.Flags().StringVar(&flagCoveredMonth, "month", "", "Month YYYY-MM (default current month)")

	rootCmd.AddCommand(payCmd, coveredCmd)
}

func runPay(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	amount, err := core.ParseMoney(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	date, err := parseDateOr(flagPayDate, a.ledger.Today())
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}

	res, err := a.ledger.RecordPayment(ctx, ledger.NewPayment{
		ObligationID: id,
		Amount:       amount,
		Date:         date,
		Method:       core.PaymentMethod(flagPayMethod),
		Note:         flagPayNote,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recorded %s on %s (payment %d)\n", cli.FormatMoney(res.Payment.Amount), res.Payment.Date, res.Payment.ID)
	fmt.Fprintf(out, "  %s paid so far: %s", res.Period, cli.FormatMoney(res.PeriodPaid))
	if res.PeriodCovered {
		fmt.Fprint(out, " (covered)")
	}
	fmt.Fprintln(out)
	if res.Remaining != nil {
		fmt.Fprintf(out, "  Installments left: %d\n", *res.Remaining)
	}
	fmt.Fprintf(out, "  Balance: %s  Status: %s\n", cli.FormatMoney(res.Balance), cli.RenderStatus(res.Status))
	return nil
}

func runCovered(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	month, err := parseMonthOr(flagCoveredMonth, a.ledger.Today().Period())
	if err != nil {
		return fmt.Errorf("--month: %w", err)
	}
	covered, err := a.ledger.IsMonthCovered(ctx, id, month)
	if err != nil {
		return err
	}
	if covered {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is covered\n", month)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not covered\n", month)
	}
	return nil
}
