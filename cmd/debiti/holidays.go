package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"debiti/internal/calendar"
	"debiti/internal/cli"
)

var flagHolidayYear int

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Manage the public holiday calendar",
}

var holidaysImportCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Short: "Import holidays from a TOML file",
	Long: "Import holidays from a TOML file of the form\n\n" +
		"  [[holiday]]\n  date = 2025-02-25\n  name = \"National Day\"\n\n" +
		"Dates already present are renamed.",
	Args: cobra.ExactArgs(1),
	RunE: withLedger(runHolidaysImport),
}

var holidaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the holidays of a year",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runHolidaysList),
}

func init() {
	holidaysListCmd.Flags().IntVar(&flagHolidayYear, "year", 0, "Year (default current year)")
	holidaysCmd.AddCommand(holidaysImportCmd, holidaysListCmd)
	rootCmd.AddCommand(holidaysCmd)
}

func runHolidaysImport(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	list, err := calendar.LoadHolidaysTOML(args[0])
	if err != nil {
		return err
	}
	if err := a.ledger.ImportHolidays(ctx, list...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d holidays\n", len(list))
	return nil
}

func runHolidaysList(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	year := flagHolidayYear
	if year == 0 {
		year = a.ledger.Today().Year()
	}
	list, err := a.ledger.Holidays(ctx, year)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Muted(fmt.Sprintf("No holidays for %d.", year)))
		return nil
	}
	t := cli.Table{Title: fmt.Sprintf("Holidays %d", year), Headers: []string{"Name", "Date"}}
	for _, h := range list {
		t.Rows = append(t.Rows, []string{h.Name, h.Date.String()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(t))
	return nil
}
