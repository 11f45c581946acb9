package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: "~/.local/share/clipsmith",
			LogDir:  "~/.local/share/clipsmith/logs",
		},
		Tools: Tools{
			YtDlp:            "yt-dlp",
			FFmpeg:           "ffmpeg",
			FFprobe:          "ffprobe",
			Python:           "python3",
			TranscribeScript: "scripts/transcribe_faster_whisper.py",
			WhisperModel:     "small",
			WhisperLanguage:  "id",
		},
		Output: Output{
			Width:  720,
			Height: 1280,
		},
		Vertical: Vertical{
			AnalysisFPS:     2,
			SplitEnterScore: 0.58,
			SplitExitScore:  0.48,
			EnterStableSec:  1.0,
			ExitStableSec:   1.0,
			MinHoldSec:      3.0,
			AnalysisWidth:   96,
			AnalysisHeight:  54,
		},
		Workflow: Workflow{
			QueueCapacity:        32,
			DownloadTimeoutSec:   1800,
			TranscribeTimeoutSec: 3600,
			RenderTimeoutSec:     1800,
			ClassifierTimeoutSec: 300,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		RateLimit: RateLimit{
			Burst:      5,
			IntervalMS: 300,
		},
	}
}
