package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/preview"
	"clipsmith/internal/services"
	"clipsmith/internal/transcribe"
	"clipsmith/internal/transcript"
)

// runAnalyze produces the approval preview: transcript, variant candidate
// pools, and A/B/C options. The job parks in awaiting_approval until the
// user selects and triggers a render.
func (r *Runner) runAnalyze(ctx context.Context, job *jobs.Job, payload jobs.Payload, logger *slog.Logger) error {
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

	shortCandidates := highlights.BuildCandidates(segments)
	state, err := preview.BuildState(segments, shortCandidates, variantDurations(payload))
	if err != nil {
		return err
	}

	blob, err := preview.SaveState(state)
	if err != nil {
		return err
	}
	if _, err := r.store.Update(ctx, job.ID, func(j *jobs.Job) error {
		j.Preview = blob
		j.Status = jobs.StatusAwaitingApproval
		j.Stage = StagePreviewReady
		return nil
	}); err != nil {
		return err
	}
	if err := r.store.SetLatest(ctx, job.ChatID, job.UserID, job.ID); err != nil {
		logger.Warn("latest pointer", logging.Error(err))
	}

	logger.Info("preview ready",
		logging.Int("variants", len(state.Variants)),
		logging.Int("segments", len(segments)))
	if err := r.notifier.NotifyPreviewReady(ctx, job.ID, len(state.Variants)); err != nil {
		logger.Debug("preview notification", logging.Error(err))
	}
	return nil
}

// fetchTranscript downloads the audio-only stream, converts it to the
// transcription sample format, and runs the speech model. Shared by the
// analyze and legacy phases.
func (r *Runner) fetchTranscript(ctx context.Context, jobID, sourceURL, python string) ([]transcript.Segment, error) {
	workDir := r.workDir(jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "analyze", "workdir",
			"create work directory", err)
	}

	dlCtx, cancel := withTimeout(ctx, r.cfg.Workflow.DownloadTimeoutSec)
	audioPath, err := r.downloader.DownloadAudio(dlCtx, sourceURL, workDir)
	cancel()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analyze", "download_audio",
			"download source audio", err)
	}
	if err := r.setStage(ctx, jobID, StageAudioReady); err != nil {
		return nil, err
	}

	wavPath := filepath.Join(workDir, "audio.wav")
	wavCtx, cancel := withTimeout(ctx, r.cfg.Workflow.RenderTimeoutSec)
	err = r.renderer.ConvertToWav(wavCtx, audioPath, wavPath)
	cancel()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "analyze", "wav",
			"convert audio for transcription", err)
	}

	started := time.Now()
	txCtx, cancel := withTimeout(ctx, r.cfg.Workflow.TranscribeTimeoutSec)
	segments, err := transcribe.NewRunner(r.cfg, python).Transcribe(txCtx, wavPath)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := r.setStage(ctx, jobID, StageTranscribed); err != nil {
		return nil, err
	}
	r.logger.Debug("transcription finished",
		logging.String(logging.FieldJobID, jobID),
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", time.Since(started)))
	return segments, nil
}
