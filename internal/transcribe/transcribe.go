package transcribe

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"clipsmith/internal/config"
	"clipsmith/internal/services"
	"clipsmith/internal/transcript"
)

// Runner executes the faster-whisper transcription script and loads its
// output.
type Runner struct {
	python   string
	script   string
	model    string
	language string
}

// NewRunner builds a transcription runner from config. The python binary may
// be overridden after dependency resolution picks a working interpreter.
func NewRunner(cfg *config.Config, python string) *Runner {
	if strings.TrimSpace(python) == "" {
		python = cfg.Tools.Python
	}
	return &Runner{
		python:   python,
		script:   cfg.Tools.TranscribeScript,
		model:    cfg.Tools.WhisperModel,
		language: cfg.Tools.WhisperLanguage,
	}
}

// Transcribe converts the WAV file at audioPath into normalized transcript
// segments. The raw JSON lands next to the audio file.
func (r *Runner) Transcribe(ctx context.Context, audioPath string) ([]transcript.Segment, error) {
	outputPath := filepath.Join(filepath.Dir(audioPath), "transcript.json")
	args := []string{
		r.script,
		"--audio", audioPath,
		"--output", outputPath,
		"--model", r.model,
		"--language", r.language,
	}
	cmd := exec.CommandContext(ctx, r.python, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "run",
			fmt.Sprintf("transcription script failed: %s", detail), err)
	}

	segments, err := transcript.Load(outputPath)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrEmptyResult, "transcribe", "load",
			"the source produced no usable speech segments", nil)
	}
	return segments, nil
}
