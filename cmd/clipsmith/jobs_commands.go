package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipsmith/internal/jobs"
)

func newStatusCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a job, its preview, and any rendered outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeServices, err := cctx.openServices()
			if err != nil {
				return err
			}
			defer closeServices()

			ctx := cmd.Context()
			jobID, err := svc.resolveJobID(ctx, jobFlag, cctx.userID(), cctx.chatID())
			if err != nil {
				return err
			}
			job, err := svc.store.Get(ctx, jobID)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %s not found", jobID)
			}
			return printJobResult(cmd.OutOrStdout(), job)
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Job id (defaults to the most recent job)")
	return cmd
}

func newJobsCommand(cctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs, optionally filtered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeServices, err := cctx.openServices()
			if err != nil {
				return err
			}
			defer closeServices()

			ctx := cmd.Context()
			var filter []jobs.Status
			if strings.TrimSpace(statusFlag) != "" {
				status, err := jobs.ParseStatus(statusFlag)
				if err != nil {
					return err
				}
				filter = append(filter, status)
			}

			list, err := svc.store.List(ctx, filter...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, job := range list {
				rows = append(rows, []string{
					job.ID,
					phaseLabel(job.Payload.Phase),
					string(job.Status),
					job.Stage,
					humanAge(job.CreatedAt),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Job", "Phase", "Status", "Stage", "Age"}, rows, 4))

			stats, err := svc.store.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, statsLine(stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (queued, running, awaiting_approval, completed, failed)")
	return cmd
}

func statsLine(stats map[jobs.Status]int) string {
	order := []jobs.Status{
		jobs.StatusQueued,
		jobs.StatusRunning,
		jobs.StatusAwaitingApproval,
		jobs.StatusCompleted,
		jobs.StatusFailed,
	}
	parts := make([]string, 0, len(order))
	for _, status := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", status, stats[status]))
	}
	return strings.Join(parts, " ")
}
