package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/preview"
	"clipsmith/internal/services"
	"clipsmith/internal/transcript"
)

// runRender consumes an approved preview and produces one merged clip per
// variant. It never re-analyzes: the selected candidates carry everything
// the cut needs.
func (r *Runner) runRender(ctx context.Context, job *jobs.Job, payload jobs.Payload, logger *slog.Logger) error {
	if payload.AnalysisJobID == "" {
		return services.Wrap(services.ErrValidation, "render", "payload",
			"render jobs need the analysis job they belong to", nil)
	}

	analysis, err := r.store.Get(ctx, payload.AnalysisJobID)
	if err != nil {
		return err
	}
	if analysis == nil {
		return services.Wrap(services.ErrValidation, "render", "load",
			fmt.Sprintf("analysis job %s not found", payload.AnalysisJobID), nil)
	}
	if analysis.UserID != job.UserID || analysis.ChatID != job.ChatID {
		return services.Wrap(services.ErrOwnership, "render", "ownership",
			"that preview belongs to a different chat", nil)
	}

	state, err := preview.LoadState(analysis)
	if err != nil {
		return err
	}
	if !state.AllVariantsSelected() {
		return services.Wrap(services.ErrIncompleteSelection, "render", "selection",
			"select an option for every variant before rendering", nil)
	}

	if err := r.notifier.NotifyRenderQueued(ctx, analysis.ID, job.ID); err != nil {
		logger.Debug("render notification", logging.Error(err))
	}

	if _, err := r.checkTools(ctx, false); err != nil {
		return err
	}
	if err := r.setStage(ctx, job.ID, StageToolsChecked); err != nil {
		return err
	}

	sourceURL := payload.URLNormalized
	if sourceURL == "" {
		sourceURL = analysis.Payload.URLNormalized
	}
	if sourceURL == "" {
		return services.Wrap(services.ErrValidation, "render", "url",
			"the analysis job carries no source url", nil)
	}

	plans := plansFromPreview(state)
	artifacts, err := r.renderOutputs(ctx, job.ID, sourceURL, plans, logger)
	if err != nil {
		return err
	}

	blob, err := marshalArtifacts(artifacts)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := r.store.Update(ctx, job.ID, func(j *jobs.Job) error {
		j.Outputs = blob
		j.Status = jobs.StatusCompleted
		j.Stage = StageCompleted
		j.CompletedAt = &now
		return nil
	}); err != nil {
		return err
	}

	// The analysis job keeps the authoritative preview; mark the render
	// there so status output on either job tells the same story.
	if _, err := r.store.Update(ctx, analysis.ID, func(j *jobs.Job) error {
		st, loadErr := preview.LoadState(j)
		if loadErr != nil {
			return loadErr
		}
		st.RenderJobID = job.ID
		st.RenderStatus = "completed"
		st.RenderCompletedAt = &now
		data, saveErr := preview.SaveState(st)
		if saveErr != nil {
			return saveErr
		}
		j.Preview = data
		return nil
	}); err != nil {
		logger.Warn("record render completion on analysis job", logging.Error(err))
	}

	if err := r.store.SetLatest(ctx, job.ChatID, job.UserID, job.ID); err != nil {
		logger.Warn("latest pointer", logging.Error(err))
	}
	if err := r.notifier.NotifyJobCompleted(ctx, job.ID, len(artifacts)); err != nil {
		logger.Debug("completion notification", logging.Error(err))
	}
	return nil
}

// plansFromPreview turns each approved candidate into a single-segment
// output plan, keeping the slot choice visible in the strategy name.
func plansFromPreview(state *preview.State) []renderPlan {
	plans := make([]renderPlan, 0, len(highlights.VariantOrder))
	for _, key := range highlights.VariantOrder {
		vs, ok := state.Variants[key]
		if !ok {
			continue
		}
		cand, ok := state.SelectedCandidate(key)
		if !ok {
			continue
		}
		slot := vs.SelectedSlot
		if slot == "" {
			slot = "A"
		}
		output := highlights.Output{
			Key:             key,
			Mode:            "variants",
			StrategyName:    fmt.Sprintf("%s (Selected %s)", highlights.VariantLabel(key), slot),
			TargetLengthSec: vs.TargetLengthSec,
			TotalDurationSec: cand.Duration(),
			Segments: []highlights.Scored{{
				Segment: transcript.Segment{
					ID:    cand.ID,
					Start: cand.Start,
					End:   cand.End,
					Text:  cand.Text,
				},
				Scores: highlights.Scores{Label: highlights.LabelHook, Clarity: 2},
			}},
		}
		plans = append(plans, renderPlan{output: output, lines: cand.PreviewScriptLines})
	}
	return plans
}
