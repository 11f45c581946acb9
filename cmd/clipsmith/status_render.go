package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"clipsmith/internal/guide"
	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/pipeline"
	"clipsmith/internal/preview"
)

func printJobSummary(w io.Writer, job *jobs.Job) {
	rows := [][]string{
		{"Job", job.ID},
		{"Phase", phaseLabel(job.Payload.Phase)},
		{"Status", string(job.Status)},
		{"Stage", job.Stage},
		{"Source", job.Payload.URLNormalized},
		{"Created", humanAge(job.CreatedAt) + " ago"},
	}
	if job.ErrorMessage != "" {
		rows = append(rows, []string{"Error", job.ErrorMessage})
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows))
}

func phaseLabel(phase string) string {
	if phase == "" {
		return jobs.PhaseLegacy
	}
	return phase
}

func printPreview(w io.Writer, state *preview.State) {
	fmt.Fprintln(w, heading(w, "Preview options"))
	for _, key := range highlights.VariantOrder {
		vs, ok := state.Variants[key]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s — target %.0fs, %d candidates\n",
			vs.Label, vs.TargetLengthSec, len(vs.Pool))

		rows := make([][]string, 0, len(preview.SlotKeys))
		for _, slot := range preview.SlotKeys {
			cand, ok := vs.Options[slot]
			if !ok {
				continue
			}
			marker := slot
			if vs.SelectedSlot == slot {
				marker = slot + " *"
			}
			rows = append(rows, []string{
				marker,
				fmt.Sprintf("%s - %s", guide.FormatClock(cand.Start), guide.FormatClock(cand.End)),
				fmt.Sprintf("%.0fs", cand.Duration()),
				fmt.Sprintf("%d", cand.Virality),
				guide.ClipLine(cand.Hook, 48),
			})
		}
		fmt.Fprintln(w, renderTable([]string{"Slot", "Range", "Dur", "Virality", "Hook"}, rows, 2, 3))
	}

	if state.RenderJobID != "" {
		fmt.Fprintf(w, "Render job %s (%s)\n", state.RenderJobID, state.RenderStatus)
	} else if state.AllVariantsSelected() {
		fmt.Fprintln(w, "All variants selected. Run `clipsmith render-all` to render.")
	}
}

func printOutputs(w io.Writer, job *jobs.Job) error {
	if len(job.Outputs) == 0 {
		return nil
	}
	var artifacts []pipeline.OutputArtifact
	if err := json.Unmarshal(job.Outputs, &artifacts); err != nil {
		return fmt.Errorf("decode outputs for job %s: %w", job.ID, err)
	}

	fmt.Fprintln(w, heading(w, "Rendered outputs"))
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rows = append(rows, []string{
			artifact.Key,
			artifact.StrategyName,
			fmt.Sprintf("%.0fs", artifact.DurationSec),
			artifact.MergedPath,
		})
	}
	fmt.Fprintln(w, renderTable([]string{"Key", "Strategy", "Dur", "Merged"}, rows, 2))
	return nil
}

// printJobResult shows whatever the job currently carries: preview, outputs,
// or just the summary.
func printJobResult(w io.Writer, job *jobs.Job) error {
	printJobSummary(w, job)
	if job.HasPreview() {
		state, err := preview.LoadState(job)
		if err != nil {
			return err
		}
		printPreview(w, state)
	}
	return printOutputs(w, job)
}

func humanAge(t time.Time) string {
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
