package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
)

var (
	flagUpcomingDays     int
	flagCommitmentsMonth string
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List due dates within the horizon, overdue first",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runUpcoming),
}

var commitmentsCmd = &cobra.Command{
	Use:   "commitments",
	Short: "Sum the installments due in a month",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runCommitments),
}

func init() {
	upcomingCmd.Flags().IntVarP(&flagUpcomingDays, "days", "n", 30, "Horizon in days")
	commitmentsCmd.Flags().StringVar(&flagCommitmentsMonth, "month", "", "Month YYYY-MM (default current month)")
	rootCmd.AddCommand(upcomingCmd, commitmentsCmd)
}

func runUpcoming(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	list, err := a.ledger.UpcomingPayments(ctx, flagUpcomingDays)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("Upcoming | next %d days", flagUpcomingDays)))
	if len(list) == 0 {
		fmt.Fprintln(out, cli.Muted("Nothing due."))
		return nil
	}

	t := cli.Table{Headers: []string{"Obligation", "Due", "When", "Amount", "Status"}}
	var total core.Money
	for _, u := range list {
		total = total.Add(u.Amount)
		status := u.Obligation.Status
		if u.Overdue {
			status = core.StatusOverdue
		}
		t.Rows = append(t.Rows, []string{
			u.Obligation.Name,
			u.DueDate.String(),
			cli.FormatDaysUntil(u.DaysUntil),
			cli.FormatMoney(u.Amount),
			cli.RenderStatus(status),
		})
	}
	t.Rows = append(t.Rows, []string{"---"}, []string{"Total", "", "", cli.FormatMoney(total), ""})
	fmt.Fprintln(out, cli.RenderTable(t))
	return nil
}

func runCommitments(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	month, err := parseMonthOr(flagCommitmentsMonth, a.ledger.Today().Period())
	if err != nil {
		return fmt.Errorf("--month: %w", err)
	}
	total, err := a.ledger.MonthlyCommitments(ctx, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Commitments for %s: %s\n", month, cli.FormatMoney(total))
	return nil
}
