package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"hirepipe/internal/api"
	"hirepipe/internal/passlist"
	"hirepipe/internal/workflow"
)

func newStagesCommand(ctx *commandContext) *cobra.Command {
	stagesCmd := &cobra.Command{
		Use:   "stages",
		Short: "Inspect and advance a job's interview stages",
	}
	stagesCmd.AddCommand(newStagesShowCommand(ctx))
	stagesCmd.AddCommand(newStagesSetCommand(ctx))
	stagesCmd.AddCommand(newStagesAdvanceCommand(ctx))
	return stagesCmd
}

func newStagesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the stage breakdown of a job",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0], "job id")
		if err != nil {
			return err
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			summary, err := api.NewStageService(engine.Store()).Summary(c, jobID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStageSummary(summary))
			return nil
		})(cmd, args)
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newStagesSetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <job-id> <total-stages>",
		Short: "Change a job's total stage count",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0], "job id")
		if err != nil {
			return err
		}
		total, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid total stages %q", args[1])
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			job, err := engine.SetTotalStages(c, jobID, total)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d now has %d stages\n", job.ID, job.TotalStages)
			return nil
		})(cmd, args)
	}
	return cmd
}

func newStagesAdvanceCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "advance <job-id> <stage> <pass-list>",
		Short: "Advance a stage cohort using a pass-list file",
		Long: "Advance reads a CSV, TSV, or plain-text pass-list. Candidates at the stage whose\n" +
			"email appears in the list move on (or are selected at the final stage); everyone\n" +
			"else in the cohort is rejected.",
		Args: cobra.ExactArgs(3),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0], "job id")
		if err != nil {
			return err
		}
		stage, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid stage %q", args[1])
		}
		parsed, err := readPassList(cmd.Context(), args[2])
		if err != nil {
			return err
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			result, err := engine.Advance(c, jobID, stage, parsed.Set)
			if err != nil {
				return err
			}
			resp := api.FromBatchResult(result, parsed.Skipped)
			if jsonOut {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderUploadResponse(resp))
			return nil
		})(cmd, args)
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func readPassList(ctx context.Context, path string) (passlist.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return passlist.Result{}, fmt.Errorf("open pass-list: %w", err)
	}
	defer file.Close()
	return passlist.DelimitedParser{}.ParseResult(ctx, file, filepath.Base(path))
}

func renderStageSummary(summary api.StageSummary) string {
	stages := make([]int, 0, len(summary.StageBreakdown))
	for stage := range summary.StageBreakdown {
		stages = append(stages, stage)
	}
	sort.Ints(stages)

	rows := make([][]string, 0, len(stages)+3)
	for _, stage := range stages {
		rows = append(rows, []string{fmt.Sprintf("Stage %d", stage), strconv.Itoa(summary.StageBreakdown[stage])})
	}
	rows = append(rows,
		[]string{"Rejected", strconv.Itoa(summary.RejectedCount)},
		[]string{"Selected", strconv.Itoa(summary.SelectedCount)},
		[]string{"Total", strconv.Itoa(summary.TotalApplications)},
	)
	return renderTable([]string{"Stage", "Applications"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderUploadResponse(resp api.UploadResponse) string {
	out := renderTable(
		[]string{"Processed", "Progressed", "Selected", "Rejected", "Errors", "Unmatched", "Skipped rows"},
		[][]string{{
			strconv.Itoa(resp.TotalProcessed),
			strconv.Itoa(resp.Progressed),
			strconv.Itoa(resp.Selected),
			strconv.Itoa(resp.Rejected),
			strconv.Itoa(len(resp.Errors)),
			strconv.Itoa(len(resp.Unmatched)),
			strconv.Itoa(resp.SkippedRows),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
	if len(resp.Errors) > 0 {
		rows := make([][]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			rows = append(rows, []string{strconv.FormatInt(e.ApplicationID, 10), e.CandidateEmail, e.Kind, e.Message})
		}
		out += "\n" + renderTable([]string{"Application", "Email", "Kind", "Message"}, rows, nil)
	}
	return out
}
