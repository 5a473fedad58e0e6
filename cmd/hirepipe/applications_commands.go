package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hirepipe/internal/api"
	"hirepipe/internal/status"
	"hirepipe/internal/workflow"
)

func newApplicationsCommand(ctx *commandContext) *cobra.Command {
	appsCmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Record and update applications",
	}
	appsCmd.AddCommand(newApplicationsAddCommand(ctx))
	appsCmd.AddCommand(newApplicationsListCommand(ctx))
	appsCmd.AddCommand(newApplicationsSetStatusCommand(ctx))
	return appsCmd
}

func newApplicationsAddCommand(ctx *commandContext) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "add <job-id>",
		Short: "Record a new application and notify the candidate",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0], "job id")
		if err != nil {
			return err
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			app, err := engine.Receive(c, jobID, name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded application %d for job %d\n", app.ID, app.JobID)
			return nil
		})(cmd, args)
	}
	cmd.Flags().StringVar(&name, "name", "", "Candidate name")
	cmd.Flags().StringVar(&email, "email", "", "Candidate email")
	return cmd
}

func newApplicationsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list <job-id>",
		Short: "List a job's applications",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		jobID, err := parseIDArg(args[0], "job id")
		if err != nil {
			return err
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			apps, err := api.NewStageService(engine.Store()).Applications(c, jobID)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, apps)
			}
			if len(apps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No applications")
				return nil
			}
			rows := make([][]string, 0, len(apps))
			for _, app := range apps {
				rows = append(rows, []string{
					strconv.FormatInt(app.ID, 10),
					app.CandidateName,
					app.CandidateEmail,
					app.Status,
					strconv.Itoa(app.CurrentStage),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Candidate", "Email", "Status", "Stage"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		})(cmd, args)
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newApplicationsSetStatusCommand(ctx *commandContext) *cobra.Command {
	var notes string
	var actorID int64

	cmd := &cobra.Command{
		Use:   "set-status <application-id> [status]",
		Short: "Manually change an application's status or notes",
		Long: "Status is one of NEW, REVIEWED, SHORTLISTED, STAGE_<n>, REJECTED, SELECTED.\n" +
			"Without --actor-id the change is made as an administrator.",
		Args: cobra.RangeArgs(1, 2),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		appID, err := parseIDArg(args[0], "application id")
		if err != nil {
			return err
		}
		var update workflow.Update
		if len(args) == 2 {
			parsed, err := status.Parse(args[1])
			if err != nil {
				return err
			}
			update.Status = &parsed
		}
		if cmd.Flags().Changed("notes") {
			update.Notes = &notes
		}
		actor := workflow.Actor{Role: workflow.RoleAdmin}
		if actorID != 0 {
			actor = workflow.Actor{ID: actorID, Role: workflow.RoleRecruiter}
		}
		return ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
			app, err := engine.SetStatus(c, appID, update, actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %d is %s (stage %d)\n", app.ID, app.Status, app.CurrentStage)
			return nil
		})(cmd, args)
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the application's notes")
	cmd.Flags().Int64Var(&actorID, "actor-id", 0, "Act as this recruiter id")
	return cmd
}
