package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"clipsmith/internal/guide"
	"clipsmith/internal/highlights"
	"clipsmith/internal/logging"
	"clipsmith/internal/media/ffprobe"
	"clipsmith/internal/scene"
	"clipsmith/internal/services"
)

const (
	mergedFileName  = "MERGED.mp4"
	guideFileName   = "editing-guide.md"
	overlayFileName = "overlay-plan.srt"
	cardFileName    = "result-card.txt"
)

// renderPlan pairs an assembled output with the overlay script lines that
// accompany it on screen.
type renderPlan struct {
	output highlights.Output
	lines  []string
}

// OutputArtifact records where one rendered output landed on disk. The list
// is stored on the job as its Outputs blob.
type OutputArtifact struct {
	Key          string  `json:"key"`
	StrategyName string  `json:"strategyName"`
	DurationSec  float64 `json:"durationSec"`
	SegmentCount int     `json:"segmentCount"`
	MergedPath   string  `json:"mergedPath"`
	GuidePath    string  `json:"guidePath"`
	OverlayPath  string  `json:"overlayPath"`
	CardPath     string  `json:"cardPath"`
}

func (r *Runner) workDir(jobID string) string {
	return filepath.Join(r.cfg.TmpDir(), jobID)
}

func (r *Runner) outputDir(jobID, key string) string {
	return filepath.Join(r.cfg.JobsDir(), jobID, key)
}

// renderOutputs downloads the source video once, classifies its framing, and
// cuts, merges, and documents every plan. Segment cuts land under
// tmp/<job>/<key>/ and final artifacts under jobs/<job>/<key>/.
func (r *Runner) renderOutputs(ctx context.Context, jobID, sourceURL string, plans []renderPlan, logger *slog.Logger) ([]OutputArtifact, error) {
	if len(plans) == 0 {
		return nil, services.Wrap(services.ErrEmptyResult, "render", "plan",
			"nothing to render", nil)
	}

	workDir := r.workDir(jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "render", "workdir",
			"create work directory", err)
	}

	dlCtx, cancel := withTimeout(ctx, r.cfg.Workflow.DownloadTimeoutSec)
	videoPath, err := r.downloader.DownloadVideo(dlCtx, sourceURL, workDir)
	cancel()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render", "download_video",
			"download source video", err)
	}
	videoPath, err = r.normalizeContainer(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	duration, err := r.inspectSource(ctx, videoPath, plans, logger)
	if err != nil {
		return nil, err
	}

	classCtx, cancel := withTimeout(ctx, r.cfg.Workflow.ClassifierTimeoutSec)
	intervals := r.analyzer.Analyze(classCtx, videoPath, duration)
	cancel()

	if err := r.setStage(ctx, jobID, StageCutting); err != nil {
		return nil, err
	}

	cuts := make(map[string][]string, len(plans))
	for _, plan := range plans {
		segDir := filepath.Join(workDir, plan.output.Key)
		if err := os.MkdirAll(segDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrTransient, "render", "segdir",
				"create segment directory", err)
		}
		paths, err := r.cutSegments(ctx, videoPath, plan.output, intervals, segDir)
		if err != nil {
			return nil, err
		}
		cuts[plan.output.Key] = paths
		logger.Debug("segments cut",
			logging.String(logging.FieldVariant, plan.output.Key),
			logging.Int("segments", len(paths)))
	}
	if err := r.setStage(ctx, jobID, StageCutDone); err != nil {
		return nil, err
	}

	artifacts := make([]OutputArtifact, 0, len(plans))
	for _, plan := range plans {
		artifact, err := r.mergeAndDocument(ctx, jobID, sourceURL, plan, cuts[plan.output.Key])
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	if err := r.setStage(ctx, jobID, StageMerged); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// normalizeContainer re-encodes non-MP4 downloads into the standard profile.
func (r *Runner) normalizeContainer(ctx context.Context, videoPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(videoPath), ".mp4") {
		return videoPath, nil
	}
	normalized := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "-norm.mp4"
	encCtx, cancel := withTimeout(ctx, r.cfg.Workflow.RenderTimeoutSec)
	defer cancel()
	if err := r.renderer.EnsureMP4(encCtx, videoPath, normalized); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "render", "normalize",
			"convert source container to mp4", err)
	}
	return normalized, nil
}

// inspectSource probes the downloaded file once. Sources without a video
// or audio stream are rejected before any cutting starts. The reported
// duration feeds the framing classifier, falling back to the furthest
// planned segment end when the probe itself is unusable.
func (r *Runner) inspectSource(ctx context.Context, videoPath string, plans []renderPlan, logger *slog.Logger) (float64, error) {
	probeCtx, cancel := withTimeout(ctx, r.cfg.Workflow.ClassifierTimeoutSec)
	defer cancel()

	fallback := 0.0
	for _, plan := range plans {
		for _, seg := range plan.output.Segments {
			if seg.End > fallback {
				fallback = seg.End
			}
		}
	}

	result, err := ffprobe.Inspect(probeCtx, r.cfg.Tools.FFprobe, videoPath)
	if err != nil {
		logger.Warn("source probe failed, using planned duration", logging.Error(err))
		return fallback, nil
	}
	if !result.HasVideo() {
		return 0, services.Wrap(services.ErrValidation, "render", "inspect_source",
			"downloaded source has no video stream", nil)
	}
	if !result.HasAudio() {
		return 0, services.Wrap(services.ErrValidation, "render", "inspect_source",
			"downloaded source has no audio stream", nil)
	}
	width, height := result.VideoDimensions()
	logger.Debug("source inspected",
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Float64("duration", result.DurationSeconds()))

	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return fallback, nil
	}
	return duration, nil
}

// cutSegments renders every planned segment, split by the framing intervals
// that cross it, and returns the cut file paths in merge order.
func (r *Runner) cutSegments(ctx context.Context, videoPath string, output highlights.Output, intervals []scene.Interval, segDir string) ([]string, error) {
	var paths []string
	index := 0
	for _, seg := range output.Segments {
		for _, part := range sliceByIntervals(intervals, seg.Start, seg.End) {
			index++
			out := filepath.Join(segDir, fmt.Sprintf("seg-%02d.mp4", index))
			cutCtx, cancel := withTimeout(ctx, r.cfg.Workflow.RenderTimeoutSec)
			var err error
			if part.Mode == scene.ModeSplit {
				err = r.renderer.CutSplit(cutCtx, videoPath, part.Start, part.End, out)
			} else {
				err = r.renderer.CutCentered(cutCtx, videoPath, part.Start, part.End, out)
			}
			cancel()
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, "render", "cut",
					fmt.Sprintf("cut segment %s", filepath.Base(out)), err)
			}
			paths = append(paths, out)
		}
	}
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrEmptyResult, "render", "cut",
			"no cuttable segments", nil)
	}
	return paths, nil
}

// sliceByIntervals clips the framing intervals to [start, end), so each cut
// carries exactly one vertical mode. Slivers below the classifier floor are
// dropped.
func sliceByIntervals(intervals []scene.Interval, start, end float64) []scene.Interval {
	var parts []scene.Interval
	for _, iv := range intervals {
		s := math.Max(start, iv.Start)
		e := math.Min(end, iv.End)
		if e-s < 0.05 {
			continue
		}
		parts = append(parts, scene.Interval{Start: s, End: e, Mode: iv.Mode})
	}
	if len(parts) == 0 && end > start {
		parts = append(parts, scene.Interval{Start: start, End: end, Mode: scene.ModeSingle})
	}
	return parts
}

// mergeAndDocument concatenates one output's cuts and writes the guide,
// overlay plan, and result card beside the merged clip.
func (r *Runner) mergeAndDocument(ctx context.Context, jobID, sourceURL string, plan renderPlan, segmentPaths []string) (OutputArtifact, error) {
	finalDir := r.outputDir(jobID, plan.output.Key)
	if err := os.MkdirAll(finalDir, 0o755); err != nil {
		return OutputArtifact{}, services.Wrap(services.ErrTransient, "render", "outdir",
			"create output directory", err)
	}

	mergedPath := filepath.Join(finalDir, mergedFileName)
	concatCtx, cancel := withTimeout(ctx, r.cfg.Workflow.RenderTimeoutSec)
	err := r.renderer.Concat(concatCtx, segmentPaths, mergedPath)
	cancel()
	if err != nil {
		return OutputArtifact{}, services.Wrap(services.ErrExternalTool, "render", "concat",
			fmt.Sprintf("merge %s", plan.output.Key), err)
	}

	guidePath := filepath.Join(finalDir, guideFileName)
	if err := os.WriteFile(guidePath, []byte(guide.Build(plan.output, sourceURL)), 0o644); err != nil {
		return OutputArtifact{}, services.Wrap(services.ErrTransient, "render", "guide",
			"write editing guide", err)
	}

	lines := guide.NormalizeScriptLines(plan.lines)
	entries := guide.BuildOverlayPlan(lines, plan.output.TotalDurationSec, plan.output.Key)
	overlayPath := filepath.Join(finalDir, overlayFileName)
	if err := os.WriteFile(overlayPath, []byte(guide.SRT(entries)), 0o644); err != nil {
		return OutputArtifact{}, services.Wrap(services.ErrTransient, "render", "overlay",
			"write overlay plan", err)
	}

	sourceStart, sourceEnd := sourceRange(plan.output.Segments)
	card := guide.Card(plan.output.StrategyName, plan.output.TotalDurationSec, sourceStart, sourceEnd, entries)
	cardPath := filepath.Join(finalDir, cardFileName)
	if err := os.WriteFile(cardPath, []byte(card), 0o644); err != nil {
		return OutputArtifact{}, services.Wrap(services.ErrTransient, "render", "card",
			"write result card", err)
	}

	return OutputArtifact{
		Key:          plan.output.Key,
		StrategyName: plan.output.StrategyName,
		DurationSec:  plan.output.TotalDurationSec,
		SegmentCount: len(plan.output.Segments),
		MergedPath:   mergedPath,
		GuidePath:    guidePath,
		OverlayPath:  overlayPath,
		CardPath:     cardPath,
	}, nil
}

// sourceRange is the span of source material the output draws on. Segments
// are in arc order, not source order, so scan for the extremes.
func sourceRange(segments []highlights.Scored) (float64, float64) {
	if len(segments) == 0 {
		return 0, 0
	}
	start := segments[0].Start
	end := segments[0].End
	for _, seg := range segments[1:] {
		if seg.Start < start {
			start = seg.Start
		}
		if seg.End > end {
			end = seg.End
		}
	}
	return start, end
}

func marshalArtifacts(artifacts []OutputArtifact) (json.RawMessage, error) {
	data, err := json.Marshal(artifacts)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "render", "artifacts",
			"encode output artifacts", err)
	}
	return data, nil
}
