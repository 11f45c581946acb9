package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipsmith/internal/deps"
)

func newDepsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			statuses = append(statuses, deps.ResolvePython(cmd.Context(), cfg.Tools.Python))

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					state = "missing"
				}
				detail := s.Detail
				if detail == "" {
					detail = s.Description
				}
				rows = append(rows, []string{s.Name, s.Command, state, detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Status", "Detail"}, rows))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, deps.Remediation(missing))
			}
			return nil
		},
	}
}
