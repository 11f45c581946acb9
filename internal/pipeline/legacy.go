package pipeline

import (
	"context"
	"log/slog"
	"time"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/services"
)

// runLegacy is the original one-shot flow: no approval stop, straight from
// source url to merged clips and guides.
func (r *Runner) runLegacy(ctx context.Context, job *jobs.Job, payload jobs.Payload, logger *slog.Logger) error {
	python, err := r.checkTools(ctx, true)
	if err != nil {
		return err
	}
	if err := r.setStage(ctx, job.ID, StageToolsChecked); err != nil {
		return err
	}

	segments, err := r.fetchTranscript(ctx, job.ID, payload.URLNormalized, python)
	if err != nil {
		return err
	}

	candidates := highlights.BuildCandidates(segments)
	if len(candidates) == 0 {
		return services.Wrap(services.ErrEmptyResult, "legacy", "candidates",
			"no usable highlight candidates in this source", nil)
	}
	maxEnd := segments[len(segments)-1].End

	var outputs []highlights.Output
	if payload.OutputMode == "variants" {
		outputs = highlights.AssembleVariantOutputs(candidates, variantDurations(payload), maxEnd)
	} else {
		outputs = []highlights.Output{
			highlights.AssembleSingleOutput(candidates, float64(payload.TargetLengthSec), maxEnd),
		}
	}
	if err := r.setStage(ctx, job.ID, StageHighlightsSelected); err != nil {
		return err
	}
	logger.Info("highlights assembled",
		logging.Int("candidates", len(candidates)),
		logging.Int("outputs", len(outputs)))

	plans := make([]renderPlan, 0, len(outputs))
	for _, output := range outputs {
		plans = append(plans, renderPlan{output: output, lines: segmentLines(output)})
	}

	artifacts, err := r.renderOutputs(ctx, job.ID, payload.URLNormalized, plans, logger)
	if err != nil {
		return err
	}

	blob, err := marshalArtifacts(artifacts)
	if err != nil {
		return err
	}
	if _, err := r.store.Update(ctx, job.ID, func(j *jobs.Job) error {
		now := time.Now().UTC()
		j.Outputs = blob
		j.Status = jobs.StatusCompleted
		j.Stage = StageCompleted
		j.CompletedAt = &now
		return nil
	}); err != nil {
		return err
	}
	if err := r.store.SetLatest(ctx, job.ChatID, job.UserID, job.ID); err != nil {
		logger.Warn("latest pointer", logging.Error(err))
	}
	if err := r.notifier.NotifyJobCompleted(ctx, job.ID, len(artifacts)); err != nil {
		logger.Debug("completion notification", logging.Error(err))
	}
	return nil
}

// segmentLines feeds the overlay plan from the spoken segment texts; the
// normalizer clips and pads them downstream.
func segmentLines(output highlights.Output) []string {
	lines := make([]string, 0, len(output.Segments))
	for _, seg := range output.Segments {
		lines = append(lines, seg.Text)
	}
	return lines
}
