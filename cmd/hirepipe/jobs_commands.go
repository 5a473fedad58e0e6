package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hirepipe/internal/api"
	"hirepipe/internal/workflow"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Create and list job postings",
	}
	jobsCmd.AddCommand(newJobsAddCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	return jobsCmd
}

func newJobsAddCommand(ctx *commandContext) *cobra.Command {
	var recruiterName, company, title string
	var recruiterID int64
	var stages int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a job posting",
	}
	cmd.RunE = ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
		st := engine.Store()
		if strings.TrimSpace(title) == "" {
			return fmt.Errorf("--title is required")
		}
		if stages == 0 {
			stages = ctx.config.Stages.DefaultTotalStages
		}
		if recruiterID == 0 {
			if strings.TrimSpace(company) == "" {
				return fmt.Errorf("--company is required unless --recruiter-id is set")
			}
			recruiter, err := st.CreateRecruiter(c, recruiterName, company)
			if err != nil {
				return err
			}
			recruiterID = recruiter.ID
		}
		job, err := st.CreateJob(c, recruiterID, title, stages)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created job %d (%s, %d stages, recruiter %d)\n", job.ID, job.CompanyName, job.TotalStages, job.RecruiterID)
		return nil
	})

	cmd.Flags().StringVar(&title, "title", "", "Job title")
	cmd.Flags().StringVar(&company, "company", "", "Company name for a new recruiter")
	cmd.Flags().StringVar(&recruiterName, "recruiter-name", "", "Name for a new recruiter")
	cmd.Flags().Int64Var(&recruiterID, "recruiter-id", 0, "Existing recruiter id")
	cmd.Flags().IntVar(&stages, "stages", 0, "Total interview stages (defaults to stages.default_total_stages)")
	return cmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings",
	}
	cmd.RunE = ctx.withEngine(func(c context.Context, engine *workflow.Engine) error {
		jobs, err := api.NewStageService(engine.Store()).Jobs(c)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(cmd, jobs)
		}
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
			return nil
		}
		rows := make([][]string, 0, len(jobs))
		for _, job := range jobs {
			rows = append(rows, []string{
				strconv.FormatInt(job.ID, 10),
				job.CompanyName,
				job.Title,
				strconv.Itoa(job.TotalStages),
				strconv.Itoa(job.SelectedCount),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"ID", "Company", "Title", "Stages", "Selected"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
		))
		return nil
	})
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
