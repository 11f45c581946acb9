package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
)

func newSubmitCommand(cctx *commandContext) *cobra.Command {
	var analyze bool
	var mode string
	var target int
	var lengths []string

	cmd := &cobra.Command{
		Use:   "submit <url> [url...]",
		Short: "Run clip jobs for one or more source urls",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeServices, err := cctx.openServices()
			if err != nil {
				return err
			}
			defer closeServices()

			durations, err := parseVariantLengths(lengths)
			if err != nil {
				return err
			}

			phase := jobs.PhaseLegacy
			if analyze {
				phase = jobs.PhaseAnalyze
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for _, url := range args {
				if !svc.limiter.Allow(cctx.userID()) {
					return fmt.Errorf("submission rate limit hit for user %d, wait a moment", cctx.userID())
				}

				payload := jobs.Payload{
					Phase:            phase,
					URLOriginal:      url,
					OutputMode:       mode,
					TargetLengthSec:  target,
					VariantDurations: durations,
				}
				jobID := uuid.NewString()
				if _, err := svc.store.Create(ctx, jobID, cctx.userID(), cctx.chatID(), payload); err != nil {
					return err
				}
				fmt.Fprintf(out, "Job %s queued for %s\n", jobID, url)

				if err := svc.runner.Run(ctx, jobID); err != nil {
					return err
				}
				job, err := svc.store.Get(ctx, jobID)
				if err != nil {
					return err
				}
				if err := printJobResult(out, job); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "Stop after analysis and wait for slot approval")
	cmd.Flags().StringVar(&mode, "mode", "variants", "Output mode: variants or single")
	cmd.Flags().IntVar(&target, "target", 0, "Target clip length in seconds for single mode")
	cmd.Flags().StringArrayVar(&lengths, "length", nil, "Per-variant target length, e.g. --length hot_take=60")

	return cmd
}

// parseVariantLengths turns repeated key=seconds flags into the payload map.
func parseVariantLengths(values []string) (map[string]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	durations := make(map[string]int, len(values))
	for _, value := range values {
		key, secText, ok := strings.Cut(value, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --length %q, expected variant=seconds", value)
		}
		key = strings.TrimSpace(key)
		if _, known := highlights.StrategyByKey(key); !known {
			return nil, fmt.Errorf("unknown variant %q in --length", key)
		}
		sec, err := strconv.Atoi(strings.TrimSpace(secText))
		if err != nil {
			return nil, fmt.Errorf("invalid seconds in --length %q", value)
		}
		durations[key] = sec
	}
	return durations, nil
}
