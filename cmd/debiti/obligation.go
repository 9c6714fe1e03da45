package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
	"debiti/internal/ledger"
	"debiti/internal/storage"
)

var (
	flagOblEntity       int64
	flagOblKind         string
	flagOblName         string
	flagOblPrincipal    string
	flagOblAPR          float64
	flagOblFee          string
	flagOblStart        string
	flagOblDueDay       int
	flagOblInstallments int
	flagOblInstallment  string
	flagOblLateFee      string
	flagOblLateRate     float64
	flagOblRelationship float64
	flagOblTags         []string

	flagListStatus []string
	flagListEntity int64
)

var obligationCmd = &cobra.Command{
	Use:     "obligation",
	Aliases: []string{"ob"},
	Short:   "Manage loans, BNPL plans and personal debts",
}

var obligationAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an obligation",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runObligationAdd),
}

var obligationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List obligations with their remaining balance",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runObligationList),
}

var obligationPauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause an obligation",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return transition(ctx, cmd, args[0], a.ledger.Pause)
	}),
}

var obligationResumeCmd = &cobra.Command{
	Use:   "resume <id>",
	Short: "Resume a paused obligation",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return transition(ctx, cmd, args[0], a.ledger.Resume)
	}),
}

var obligationCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a fully paid obligation",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		return transition(ctx, cmd, args[0], a.ledger.Close)
	}),
}

var obligationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an obligation with its payments and reminders",
	Args:  cobra.ExactArgs(1),
	RunE:  withLedger(runObligationDelete),
}

func init() {
	f := obligationAddCmd.Flags()
	f.Int64Var(&flagOblEntity, "entity", 0, "Entity id")
	f.StringVar(&flagOblKind, "kind", string(core.KindLoan), "Kind (loan, bnpl, personal, one_off)")
	f.StringVar(&flagOblName, "name", "", "Display name")
	f.StringVar(&flagOblPrincipal, "principal", "", "Amount owed, e.g. 1200.500")
	f.Float64Var(&flagOblAPR, "apr", 0, "Annual percentage rate")
	f.StringVar(&flagOblFee, "fee", "", "One-time fixed fee")
	f.StringVar(&flagOblStart, "start", "", "Start date YYYY-MM-DD (default today)")
	f.IntVar(&flagOblDueDay, "due-day", 1, "Day of month the installment is due (1-31)")
	f.IntVar(&flagOblInstallments, "installments", 0, "Number of installments; 0 for open-ended")
	f.StringVar(&flagOblInstallment, "installment", "", "Installment amount")
	f.StringVar(&flagOblLateFee, "late-fee", "", "Flat late fee")
	f.Float64Var(&flagOblLateRate, "late-rate", 0, "Late fee as percent of the installment")
	f.Float64Var(&flagOblRelationship, "relationship", 0, "Relationship weight 0-1 for personal debts")
	f.StringSliceVar(&flagOblTags, "tag", nil, "Tag (repeatable)")
	_ = obligationAddCmd.MarkFlagRequired("entity")
	_ = obligationAddCmd.MarkFlagRequired("name")
	_ = obligationAddCmd.MarkFlagRequired("principal")
	_ = obligationAddCmd.MarkFlagRequired("installment")
	obligationAddCmd.MarkFlagsMutuallyExclusive("late-fee", "late-rate")

	obligationListCmd.Flags().StringSliceVar(&flagListStatus, "status", nil, "Only these statuses (repeatable)")
	obligationListCmd.Flags().Int64Var(&flagListEntity, "entity", 0, "Only obligations of this entity")

	obligationCmd.AddCommand(obligationAddCmd, obligationListCmd, obligationPauseCmd,
		obligationResumeCmd, obligationCloseCmd, obligationDeleteCmd)
	rootCmd.AddCommand(obligationCmd)
}

func runObligationAdd(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	in, err := newObligationFromFlags(a.ledger.Today())
	if err != nil {
		return err
	}
	o, err := a.ledger.AddObligation(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (id %d), %s due on day %d\n",
		o.Kind, o.Name, o.ID, cli.FormatMoney(o.InstallmentAmount), o.DueDay)
	return nil
}

func newObligationFromFlags(today core.Date) (ledger.NewObligation, error) {
	principal, err := core.ParseMoney(flagOblPrincipal)
	if err != nil {
		return ledger.NewObligation{}, fmt.Errorf("--principal: %w", err)
	}
	installment, err := core.ParseMoney(flagOblInstallment)
	if err != nil {
		return ledger.NewObligation{}, fmt.Errorf("--installment: %w", err)
	}
	var fee core.Money
	if flagOblFee != "" {
		if fee, err = core.ParseMoney(flagOblFee); err != nil {
			return ledger.NewObligation{}, fmt.Errorf("--fee: %w", err)
		}
	}
	start, err := parseDateOr(flagOblStart, today)
	if err != nil {
		return ledger.NewObligation{}, fmt.Errorf("--start: %w", err)
	}
	penalty, err := penaltyFromFlags(flagOblLateFee, flagOblLateRate)
	if err != nil {
		return ledger.NewObligation{}, err
	}

	in := ledger.NewObligation{
		EntityID:           flagOblEntity,
		Kind:               core.ObligationKind(flagOblKind),
		Name:               flagOblName,
		Principal:          principal,
		APR:                flagOblAPR,
		FeeFixed:           fee,
		StartDate:          start,
		DueDay:             flagOblDueDay,
		InstallmentAmount:  installment,
		Penalty:            penalty,
		RelationshipFactor: flagOblRelationship,
		Tags:               flagOblTags,
	}
	if flagOblInstallments > 0 {
		in.TotalInstallments = core.IntPtr(flagOblInstallments)
	}
	return in, nil
}

// penaltyFromFlags picks the late-fee policy; at most one of fee and rate is set.
func penaltyFromFlags(fee string, rate float64) (core.PenaltyPolicy, error) {
	switch {
	case fee != "" && rate != 0:
		return core.PenaltyPolicy{}, errors.New("use either --late-fee or --late-rate")
	case fee != "":
		m, err := core.ParseMoney(fee)
		if err != nil {
			return core.PenaltyPolicy{}, fmt.Errorf("--late-fee: %w", err)
		}
		return core.FlatFee(m), nil
	case rate != 0:
		return core.PercentageFee(rate), nil
	default:
		return core.NoPenalty(), nil
	}
}

func runObligationList(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	filter := storage.ObligationFilter{EntityID: flagListEntity}
	for _, s := range flagListStatus {
		filter.Statuses = append(filter.Statuses, core.Status(s))
	}
	list, err := a.ledger.Obligations(ctx, filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Muted("No obligations."))
		return nil
	}

	t := cli.Table{Headers: []string{"Name", "ID", "Kind", "Status", "Due day", "Installment", "Left", "Balance"}}
	var total core.Money
	for _, o := range list {
		bal, err := a.ledger.RemainingBalance(ctx, o.ID)
		if err != nil {
			return err
		}
		total = total.Add(bal)
		t.Rows = append(t.Rows, []string{
			o.Name,
			strconv.FormatInt(o.ID, 10),
			string(o.Kind),
			cli.RenderStatus(o.Status),
			strconv.Itoa(o.DueDay),
			cli.FormatMoney(o.InstallmentAmount),
			cli.FormatInstallments(o),
			cli.FormatMoney(bal),
		})
	}
	t.Rows = append(t.Rows, []string{"---"}, []string{"Total", "", "", "", "", "", "", cli.FormatMoney(total)})
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(t))
	return nil
}

func transition(ctx context.Context, cmd *cobra.Command, arg string, fn func(context.Context, int64) (core.Obligation, error)) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	o, err := fn(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", o.Name, cli.RenderStatus(o.Status))
	return nil
}

func runObligationDelete(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.ledger.DeleteObligation(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted obligation %d\n", id)
	return nil
}
