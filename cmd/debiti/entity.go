package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"debiti/internal/cli"
	"debiti/internal/core"
)

var (
	flagEntityKind  string
	flagEntityName  string
	flagEntityPhone string
	flagEntityNote  string
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage counterparties",
}

var entityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a bank, BNPL provider, retailer or person",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runEntityAdd),
}

var entityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List counterparties",
	Args:  cobra.NoArgs,
	RunE:  withLedger(runEntityList),
}

func init() {
	entityAddCmd.Flags().StringVar(&flagEntityKind, "kind", string(core.EntityBank), "Entity kind (bank, bnpl, retailer, person)")
	entityAddCmd.Flags().StringVar(&flagEntityName, "name", "", "Display name")
	entityAddCmd.Flags().StringVar(&flagEntityPhone, "phone", "", "Contact phone")
	entityAddCmd.Flags().StringVar(&flagEntityNote, "note", "", "Free-form note")
	_ = entityAddCmd.MarkFlagRequired("name")

	entityCmd.AddCommand(entityAddCmd, entityListCmd)
	rootCmd.AddCommand(entityCmd)
}

func runEntityAdd(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	e, err := a.ledger.AddEntity(ctx, core.EntityKind(flagEntityKind), flagEntityName, flagEntityPhone, flagEntityNote)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (id %d)\n", e.Kind, e.Name, e.ID)
	return nil
}

func runEntityList(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	list, err := a.ledger.Entities(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Muted("No entities yet."))
		return nil
	}

	t := cli.Table{Headers: []string{"Name", "ID", "Kind", "Phone"}}
	for _, e := range list {
		t.Rows = append(t.Rows, []string{e.Name, strconv.FormatInt(e.ID, 10), string(e.Kind), e.Phone})
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(t))
	return nil
}
