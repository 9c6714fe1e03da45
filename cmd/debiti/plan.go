package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
	"debiti/internal/planner"
)

var (
	flagPlanBudget   string
	flagPlanStrategy string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Split a budget across obligations by payoff strategy",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runPlan),
}

var postponeCmd = &cobra.Command{
	Use:   "postpone <obligation-id> <YYYY-MM-DD>",
	Short: "Estimate the cost of paying on a later date",
	Args:  cobra.ExactArgs(2),
	RunE:  withLedger(runPostpone),
}

func init() {
	planCmd.Flags().StringVar(&flagPlanBudget, "budget", "", "Amount available this month")
	planCmd.Flags().StringVarP(&flagPlanStrategy, "strategy", "s", string(planner.Hybrid), "Strategy (avalanche, snowball, hybrid)")
	_ = planCmd.MarkFlagRequired("budget")
	rootCmd.AddCommand(planCmd, postponeCmd)
}

func runPlan(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	strategy, err := planner.ParseStrategy(flagPlanStrategy)
	if err != nil {
		return err
	}
	budget, err := core.ParseMoney(flagPlanBudget)
	if err != nil {
		return fmt.Errorf("--budget: %w", err)
	}
	plan, err := a.ledger.Plan(ctx, strategy, budget)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTitle(fmt.Sprintf("Plan | %s | %s", plan.Strategy, cli.FormatMoney(plan.Budget))))
	if len(plan.Allocations) == 0 {
		fmt.Fprintln(out, cli.Muted("No active obligations."))
		return nil
	}
	t := cli.Table{Headers: []string{"Obligation", "Minimum", "Extra", "Total"}}
	for _, al := range plan.Allocations {
		t.Rows = append(t.Rows, []string{al.Name, cli.FormatMoney(al.Minimum), cli.FormatMoney(al.Extra), cli.FormatMoney(al.Total())})
	}
	t.Rows = append(t.Rows, []string{"---"}, []string{"Unallocated", "", "", cli.FormatMoney(plan.Unallocated)})
	fmt.Fprintln(out, cli.RenderTable(t))
	return nil
}

func runPostpone(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	to, err := core.ParseDate(args[1])
	if err != nil {
		return err
	}
	p, err := a.ledger.SimulatePostponement(ctx, id, to)
	if err != nil {
		return err
	}

	t := cli.Table{
		Headers: []string{"Postponement", "Value"},
		Rows: [][]string{
			{"Current due", p.CurrentDue.String()},
			{"Postpone to", p.PostponeTo.String()},
			{"Days", fmt.Sprint(p.Days)},
			{"Late fee", cli.FormatMoney(p.LateFee)},
			{"Interest", cli.FormatMoney(p.Interest)},
			{"---"},
			{"Extra cost", cli.FormatMoney(p.ExtraCost)},
		},
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderTable(t))
	fmt.Fprintln(out, p.Recommendation)
	return nil
}
