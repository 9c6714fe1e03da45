package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
)

const remindAtLayout = "2006-01-02 15:04"

var (
	flagRemindDue string
	flagRemindAt  string
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Schedule and inspect reminders",
}

var remindAddCmd = &cobra.Command{
	Use:   "add <obligation-id>",
	Short: "Schedule a reminder for a due date",
	Long: "Schedule a reminder for a due date. Without --due the current month's due date is used;\n" +
		"without --at the reminder fires REMINDER_LEAD_DAYS before it at REMINDER_HOUR.",
	Args: cobra.ExactArgs(1),
	RunE: withLedger(runRemindAdd),
}

var remindPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List reminders that are due to fire",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runRemindPending),
}

func init() {
	remindAddCmd.Flags().StringVar(&flagRemindDue, "due", "", "Due date YYYY-MM-DD")
	remindAddCmd.Flags().StringVar(&flagRemindAt, "at", "", "Fire time \"YYYY-MM-DD HH:MM\" in TZ_NAME")

	remindCmd.AddCommand(remindAddCmd, remindPendingCmd)
	rootCmd.AddCommand(remindCmd)
}

func runRemindAdd(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var due core.Date
	if flagRemindDue != "" {
		if due, err = core.ParseDate(flagRemindDue); err != nil {
			return fmt.Errorf("--due: %w", err)
		}
	} else if due, err = a.ledger.DueDate(ctx, id, a.ledger.Today().Period()); err != nil {
		return err
	}

	at := defaultRemindAt(a.cfg, due)
	if flagRemindAt != "" {
		if at, err = time.ParseInLocation(remindAtLayout, flagRemindAt, a.cfg.Location()); err != nil {
			return fmt.Errorf("--at: %w", err)
		}
	}

	r, created, err := a.ledger.ScheduleReminder(ctx, id, due, at)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d already scheduled for %s\n", r.ID, r.DueDate)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d for %s fires %s\n",
		r.ID, r.DueDate, r.RemindAt.In(a.cfg.Location()).Format(remindAtLayout))
	return nil
}

func runRemindPending(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	list, err := a.ledger.PendingReminders(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Muted("No pending reminders."))
		return nil
	}

	names := make(map[int64]string)
	t := cli.Table{Headers: []string{"Obligation", "ID", "Due", "Remind at", "Status"}}
	for _, r := range list {
		name, ok := names[r.ObligationID]
		if !ok {
			o, err := a.ledger.Obligation(ctx, r.ObligationID)
			if err != nil {
				return err
			}
			name = o.Name
			names[r.ObligationID] = name
		}
		t.Rows = append(t.Rows, []string{
			name,
			strconv.FormatInt(r.ID, 10),
			r.DueDate.String(),
			r.RemindAt.In(a.cfg.Location()).Format(remindAtLayout),
			string(r.Status),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(t))
	return nil
}
