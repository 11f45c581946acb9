package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Tools contains the external binaries the pipeline shells out to.
type Tools struct {
	YtDlp            string `toml:"yt_dlp"`
	FFmpeg           string `toml:"ffmpeg"`
	FFprobe          string `toml:"ffprobe"`
	Python           string `toml:"python"`
	TranscribeScript string `toml:"transcribe_script"`
	WhisperModel     string `toml:"whisper_model"`
	WhisperLanguage  string `toml:"whisper_language"`
	CookiesPath      string `toml:"cookies_path"`
	JSRuntime        string `toml:"js_runtime"`
}

// Output contains the rendered clip frame geometry.
type Output struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Vertical contains the scene-mode classifier tunables. All values are
// range-clamped during normalize so a bad config cannot push the classifier
// outside its working envelope.
type Vertical struct {
	AnalysisFPS     float64 `toml:"analysis_fps"`
	SplitEnterScore float64 `toml:"split_enter_score"`
	SplitExitScore  float64 `toml:"split_exit_score"`
	EnterStableSec  float64 `toml:"enter_stable_sec"`
	ExitStableSec   float64 `toml:"exit_stable_sec"`
	MinHoldSec      float64 `toml:"min_hold_sec"`
	AnalysisWidth   int     `toml:"analysis_width"`
	AnalysisHeight  int     `toml:"analysis_height"`
}

// Workflow contains queue sizing and external tool deadlines.
type Workflow struct {
	QueueCapacity         int `toml:"queue_capacity"`
	DownloadTimeoutSec    int `toml:"download_timeout_sec"`
	TranscribeTimeoutSec  int `toml:"transcribe_timeout_sec"`
	RenderTimeoutSec      int `toml:"render_timeout_sec"`
	ClassifierTimeoutSec  int `toml:"classifier_timeout_sec"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// RateLimit contains the per-user submission token bucket settings.
type RateLimit struct {
	Burst      int `toml:"burst"`
	IntervalMS int `toml:"interval_ms"`
}

// Config encapsulates all configuration values for clipsmith.
//
// Sections by subsystem:
//   - Paths: data and log directories
//   - Tools: external binary names and transcription settings
//   - Output: rendered clip geometry
//   - Vertical: scene-mode classifier tunables
//   - Workflow: queue capacity and per-call deadlines
//   - Notifications: ntfy push settings
//   - Logging: log format and level
//   - RateLimit: per-user submission throttle
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Output        Output        `toml:"output"`
	Vertical      Vertical      `toml:"vertical"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	RateLimit     RateLimit     `toml:"rate_limit"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/clipsmith/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.TmpDir(), c.JobsDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TmpDir returns the scratch directory used for in-flight job downloads.
func (c *Config) TmpDir() string {
	return filepath.Join(c.Paths.DataDir, "tmp")
}

// JobsDir returns the directory that holds final per-job artifacts.
func (c *Config) JobsDir() string {
	return filepath.Join(c.Paths.DataDir, "jobs")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
