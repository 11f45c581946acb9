package config

import "strings"

func clampFloat(value, min, max, fallback float64) float64 {
	if value == 0 {
		value = fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampInt(value, min, max, fallback int) int {
	if value == 0 {
		value = fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Tools.YtDlp = defaultString(c.Tools.YtDlp, "yt-dlp")
	c.Tools.FFmpeg = defaultString(c.Tools.FFmpeg, "ffmpeg")
	c.Tools.FFprobe = defaultString(c.Tools.FFprobe, "ffprobe")
	c.Tools.Python = defaultString(c.Tools.Python, "python3")
	c.Tools.WhisperModel = defaultString(c.Tools.WhisperModel, "small")
	c.Tools.WhisperLanguage = defaultString(c.Tools.WhisperLanguage, "id")
	if strings.TrimSpace(c.Tools.CookiesPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Tools.CookiesPath))
		if err != nil {
			return err
		}
		c.Tools.CookiesPath = expanded
	}

	c.Output.Width = clampInt(c.Output.Width, 240, 2160, 720)
	c.Output.Height = clampInt(c.Output.Height, 240, 3840, 1280)

	c.Vertical.AnalysisFPS = clampFloat(c.Vertical.AnalysisFPS, 1, 6, 2)
	c.Vertical.SplitEnterScore = clampFloat(c.Vertical.SplitEnterScore, 0.1, 0.95, 0.58)
	c.Vertical.SplitExitScore = clampFloat(c.Vertical.SplitExitScore, 0.05, 0.9, 0.48)
	c.Vertical.EnterStableSec = clampFloat(c.Vertical.EnterStableSec, 0.5, 3, 1.0)
	c.Vertical.ExitStableSec = clampFloat(c.Vertical.ExitStableSec, 0.5, 3, 1.0)
	c.Vertical.MinHoldSec = clampFloat(c.Vertical.MinHoldSec, 1, 8, 3.0)
	c.Vertical.AnalysisWidth = clampInt(c.Vertical.AnalysisWidth, 48, 240, 96)
	c.Vertical.AnalysisHeight = clampInt(c.Vertical.AnalysisHeight, 32, 180, 54)

	c.Workflow.QueueCapacity = clampInt(c.Workflow.QueueCapacity, 1, 1024, 32)
	c.Workflow.DownloadTimeoutSec = clampInt(c.Workflow.DownloadTimeoutSec, 60, 86400, 1800)
	c.Workflow.TranscribeTimeoutSec = clampInt(c.Workflow.TranscribeTimeoutSec, 60, 86400, 3600)
	c.Workflow.RenderTimeoutSec = clampInt(c.Workflow.RenderTimeoutSec, 60, 86400, 1800)
	c.Workflow.ClassifierTimeoutSec = clampInt(c.Workflow.ClassifierTimeoutSec, 10, 3600, 300)

	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = 10
	}

	c.RateLimit.Burst = clampInt(c.RateLimit.Burst, 1, 100, 5)
	c.RateLimit.IntervalMS = clampInt(c.RateLimit.IntervalMS, 50, 60000, 300)

	return nil
}

func defaultString(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
