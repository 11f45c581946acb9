package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"clipsmith/internal/preview"
)

func newSelectCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "select <variant> <slot>",
		Short: "Pick the A, B, or C option for a variant",
		Args:  cobra.ExactArgs(2),
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
			return doSelect(ctx, cmd.OutOrStdout(), svc, cctx, jobID, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Analysis job id (defaults to the most recent job)")
	return cmd
}

func newRegenerateCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "regenerate <variant>",
		Short: "Rotate in fresh A/B/C options for a variant",
		Args:  cobra.ExactArgs(1),
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
			return doRegenerate(ctx, cmd.OutOrStdout(), svc, cctx, jobID, args[0])
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Analysis job id (defaults to the most recent job)")
	return cmd
}

func newRenderAllCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "render-all",
		Short: "Render every selected variant of an approved preview",
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
			return doRenderAll(ctx, cmd.OutOrStdout(), svc, cctx, jobID)
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Analysis job id (defaults to the most recent job)")
	return cmd
}

func newCancelCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Dismiss a preview without rendering",
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
			return doCancel(ctx, cmd.OutOrStdout(), svc, cctx, jobID)
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Analysis job id (defaults to the most recent job)")
	return cmd
}

func newReanalyzeCommand(cctx *commandContext) *cobra.Command {
	var jobFlag string

	cmd := &cobra.Command{
		Use:   "reanalyze",
		Short: "Run a fresh analysis of a job's source",
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
			return doReanalyze(ctx, cmd.OutOrStdout(), svc, cctx, jobID)
		},
	}

	cmd.Flags().StringVar(&jobFlag, "job", "", "Source job id (defaults to the most recent job)")
	return cmd
}

// newActionCommand accepts the compact action token the preview protocol
// uses on chat surfaces, so the same encoded buttons work from a shell.
func newActionCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action <token>",
		Short: "Apply an encoded preview action token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, ok := preview.Parse(args[0])
			if !ok {
				return fmt.Errorf("unrecognized action token %q", args[0])
			}

			svc, closeServices, err := cctx.openServices()
			if err != nil {
				return err
			}
			defer closeServices()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch command.Kind {
			case preview.KindSelect:
				return doSelect(ctx, out, svc, cctx, command.JobID, command.VariantKey, command.Slot)
			case preview.KindRegenerate:
				return doRegenerate(ctx, out, svc, cctx, command.JobID, command.VariantKey)
			case preview.KindRenderAll:
				return doRenderAll(ctx, out, svc, cctx, command.JobID)
			case preview.KindCancel:
				return doCancel(ctx, out, svc, cctx, command.JobID)
			case preview.KindReanalyze:
				return doReanalyze(ctx, out, svc, cctx, command.JobID)
			default:
				return fmt.Errorf("unsupported action %q", command.Kind)
			}
		},
	}
	return cmd
}

func doSelect(ctx context.Context, out io.Writer, svc *cliServices, cctx *commandContext, jobID, variant, slot string) error {
	result, err := svc.manager.Select(ctx, jobID, cctx.userID(), cctx.chatID(), variant, strings.ToUpper(slot))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected slot %s for %s on job %s\n", strings.ToUpper(slot), variant, jobID)
	if result.AllSelected {
		fmt.Fprintln(out, "All variants selected. Run `clipsmith render-all` to render.")
	}
	return nil
}

func doRegenerate(ctx context.Context, out io.Writer, svc *cliServices, cctx *commandContext, jobID, variant string) error {
	state, err := svc.manager.Regenerate(ctx, jobID, cctx.userID(), cctx.chatID(), variant)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Regenerated options for %s on job %s\n", variant, jobID)
	printPreview(out, state)
	return nil
}

func doRenderAll(ctx context.Context, out io.Writer, svc *cliServices, cctx *commandContext, jobID string) error {
	renderID, err := svc.manager.RenderAll(ctx, jobID, cctx.userID(), cctx.chatID())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Render job %s\n", renderID)

	if err := svc.runPending(ctx); err != nil {
		return err
	}
	render, err := svc.store.Get(ctx, renderID)
	if err != nil {
		return err
	}
	if render == nil {
		return fmt.Errorf("render job %s not found", renderID)
	}
	return printJobResult(out, render)
}

func doCancel(ctx context.Context, out io.Writer, svc *cliServices, cctx *commandContext, jobID string) error {
	if _, err := svc.manager.Cancel(ctx, jobID, cctx.userID(), cctx.chatID()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Preview for job %s dismissed. It stays available for later.\n", jobID)
	return nil
}

func doReanalyze(ctx context.Context, out io.Writer, svc *cliServices, cctx *commandContext, jobID string) error {
	newID, err := svc.manager.Reanalyze(ctx, jobID, cctx.userID(), cctx.chatID())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reanalyzing as job %s\n", newID)

	if err := svc.runPending(ctx); err != nil {
		return err
	}
	job, err := svc.store.Get(ctx, newID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", newID)
	}
	return printJobResult(out, job)
}
