package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipsmith/internal/config"
	"clipsmith/internal/deps"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/media/ffmpeg"
	"clipsmith/internal/media/ytdlp"
	"clipsmith/internal/notifications"
	"clipsmith/internal/scene"
	"clipsmith/internal/services"
)

// Stage breadcrumbs persisted as a job moves through a phase.
const (
	StageToolsChecked       = "tools_checked"
	StageAudioReady         = "audio_ready"
	StageTranscribed        = "transcribed"
	StageHighlightsSelected = "highlights_selected"
	StagePreviewReady       = "preview_ready"
	StageCutting            = "cutting"
	StageCutDone            = "cut_done"
	StageMerged             = "merged"
	StageCompleted          = "completed"
	StageFailed             = "failed"
)

// Runner executes one job at a time on behalf of the worker.
type Runner struct {
	cfg      *config.Config
	store    *jobs.Store
	notifier notifications.Service
	logger   *slog.Logger

	downloader *ytdlp.Downloader
	renderer   *ffmpeg.Renderer
	analyzer   *scene.Analyzer
}

// NewRunner wires the phase orchestrator from config.
func NewRunner(cfg *config.Config, store *jobs.Store, notifier notifications.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Runner{
		cfg:        cfg,
		store:      store,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		downloader: ytdlp.New(cfg.Tools.YtDlp, cfg.Tools.CookiesPath, cfg.Tools.JSRuntime),
		renderer:   ffmpeg.NewRenderer(cfg.Tools.FFmpeg, cfg.Output.Width, cfg.Output.Height),
		analyzer:   scene.NewAnalyzer(cfg, logger),
	}
}

// Run loads the job, dispatches on the sanitized phase, and applies the
// failure transition when phase code returns an error.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrValidation, "run", "load",
			fmt.Sprintf("job %s not found", jobID), nil)
	}
	if job.Status.IsTerminal() {
		r.logger.Debug("skipping terminal job", logging.String(logging.FieldJobID, jobID))
		return nil
	}

	payload, err := SanitizePayload(job.Payload)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}

	job, err = r.store.Update(ctx, jobID, func(j *jobs.Job) error {
		now := time.Now().UTC()
		j.Status = jobs.StatusRunning
		j.StartedAt = &now
		j.Payload = payload
		j.ErrorMessage = ""
		return nil
	})
	if err != nil {
		return err
	}

	ctx = services.WithJobID(ctx, jobID)
	ctx = services.WithPhase(ctx, payload.Phase)
	logger := r.logger.With(
		logging.String(logging.FieldJobID, jobID),
		logging.String("phase", payload.Phase))
	logger.Info("phase started",
		logging.String(logging.FieldEventType, "phase_start"),
		logging.String("url", payload.URLNormalized))

	var runErr error
	switch payload.Phase {
	case jobs.PhaseAnalyze:
		runErr = r.runAnalyze(ctx, job, payload, logger)
	case jobs.PhaseRender:
		runErr = r.runRender(ctx, job, payload, logger)
	default:
		runErr = r.runLegacy(ctx, job, payload, logger)
	}
	if runErr != nil {
		return r.fail(ctx, jobID, runErr)
	}

	logger.Info("phase completed", logging.String(logging.FieldEventType, "phase_complete"))
	return nil
}

// fail applies the single failure transition: persist the message, mark the
// job failed, and notify best-effort. The original error is returned so the
// worker can log it.
func (r *Runner) fail(ctx context.Context, jobID string, runErr error) error {
	message := strings.TrimSpace(runErr.Error())
	if !services.UserFacing(runErr) {
		r.logger.Error("phase failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(runErr))
	}

	if _, err := r.store.Update(ctx, jobID, func(j *jobs.Job) error {
		now := time.Now().UTC()
		j.Status = jobs.StatusFailed
		j.Stage = StageFailed
		j.ErrorMessage = message
		j.CompletedAt = &now
		return nil
	}); err != nil {
		r.logger.Error("persist failure transition",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err))
	}

	if err := r.notifier.NotifyJobFailed(ctx, jobID, runErr); err != nil {
		r.logger.Debug("failure notification", logging.Error(err))
	}
	return runErr
}

func (r *Runner) setStage(ctx context.Context, jobID, stage string) error {
	_, err := r.store.Update(ctx, jobID, func(j *jobs.Job) error {
		j.Stage = stage
		return nil
	})
	return err
}

// checkTools runs the preflight and resolves the transcription interpreter.
// verifyPython is false for phases that never transcribe.
func (r *Runner) checkTools(ctx context.Context, verifyPython bool) (string, error) {
	statuses := deps.CheckBinaries(deps.Requirements(r.cfg))
	missing := deps.Missing(statuses)

	python := ""
	if verifyPython {
		py := deps.ResolvePython(ctx, r.cfg.Tools.Python)
		if py.Available {
			python = py.Command
		} else {
			missing = append(missing, py)
		}
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, s := range missing {
			names = append(names, s.Name)
		}
		if err := r.notifier.NotifyToolingMissing(ctx, names); err != nil {
			r.logger.Debug("tooling notification", logging.Error(err))
		}
		return "", services.Wrap(services.ErrToolingUnavailable, "tools", "check",
			deps.Remediation(missing), nil)
	}
	return python, nil
}

func withTimeout(ctx context.Context, sec int) (context.Context, context.CancelFunc) {
	if sec <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(sec)*time.Second)
}
