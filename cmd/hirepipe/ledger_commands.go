package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hirepipe/internal/api"
	"hirepipe/internal/workflow"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the placement ledger",
	}
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCheckCommand(ctx))
	return ledgerCmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var year int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show placements for a year",
	}
	cmd.RunE = ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		report, err := api.NewStageService(engine.Store()).Placements(c, year)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd, report)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Placements in %d: %d\n", report.Year, report.TotalPlaced)
		if len(report.Companies) == 0 {
			return nil
		}
		rows := make([][]string, 0, len(report.Companies))
		for _, company := range report.Companies {
			rows = append(rows, []string{company.CompanyName, strconv.Itoa(company.PlacedCount)})
		}
		fmt.Fprintln(out, renderTable([]string{"Company", "Placed"}, rows, []columnAlignment{alignLeft, alignRight}))
		return nil
	})
	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (defaults to the current UTC year)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newLedgerCheckCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Recompute counters from applications and report drift",
	}
	cmd.RunE = ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
		drift, err := api.NewStageService(engine.Store()).Drift(c)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(drift) == 0 {
			fmt.Fprintln(out, "Counters consistent")
			return nil
		}
		rows := make([][]string, 0, len(drift))
		for _, d := range drift {
			rows = append(rows, []string{d.Counter, d.Key, strconv.Itoa(d.Stored), strconv.Itoa(d.Computed)})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Counter", "Key", "Stored", "Computed"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
		))
		return fmt.Errorf("%d counters drifted", len(drift))
	})
	return cmd
}
