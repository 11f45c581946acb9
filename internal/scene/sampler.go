package scene

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"clipsmith/internal/config"
	"clipsmith/internal/logging"
)

// Analyzer samples low-resolution grayscale frames from a clip and
// classifies its vertical framing. Sampling failures degrade to a single
// centered interval rather than failing the render.
type Analyzer struct {
	ffmpegBin string
	width     int
	height    int
	tunables  Tunables
	logger    *slog.Logger
}

// NewAnalyzer builds an analyzer from the vertical tunables in config.
func NewAnalyzer(cfg *config.Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		ffmpegBin: cfg.Tools.FFmpeg,
		width:     cfg.Vertical.AnalysisWidth,
		height:    cfg.Vertical.AnalysisHeight,
		tunables: Tunables{
			FPS:            cfg.Vertical.AnalysisFPS,
			EnterScore:     cfg.Vertical.SplitEnterScore,
			ExitScore:      cfg.Vertical.SplitExitScore,
			EnterStableSec: cfg.Vertical.EnterStableSec,
			ExitStableSec:  cfg.Vertical.ExitStableSec,
			MinHoldSec:     cfg.Vertical.MinHoldSec,
		},
		logger: logging.NewComponentLogger(logger, "scene"),
	}
}

// Analyze returns the framing intervals for the clip at videoPath.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string, duration float64) []Interval {
	scores, err := a.sampleScores(ctx, videoPath)
	if err != nil || len(scores) == 0 {
		a.logger.Warn("frame sampling failed, defaulting to centered crop",
			logging.String("video", videoPath),
			logging.Error(err))
		return []Interval{{Start: 0, End: duration, Mode: ModeSingle}}
	}
	intervals := Classify(scores, duration, a.tunables)
	a.logger.Debug("classified framing",
		logging.String("video", videoPath),
		logging.Int("frames", len(scores)),
		logging.Int("intervals", len(intervals)))
	return intervals
}

// sampleScores decodes the clip to raw grayscale frames over a pipe and
// scores each one.
func (a *Analyzer) sampleScores(ctx context.Context, videoPath string) ([]float64, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g,scale=%d:%d", a.tunables.FPS, a.width, a.height),
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-",
	}
	cmd := exec.CommandContext(ctx, a.ffmpegBin, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	frameSize := a.width * a.height
	frame := make([]byte, frameSize)
	var scores []float64
	for {
		if _, err := io.ReadFull(stdout, frame); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			_ = cmd.Wait()
			return nil, fmt.Errorf("read frame: %w", err)
		}
		scores = append(scores, FrameScore(frame, a.width, a.height))
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame sampling: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return scores, nil
}
