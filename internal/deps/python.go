package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolvePython finds a Python interpreter that can run the transcription
// script. Candidates are tried in order: the bundled virtualenv, the
// configured interpreter, then python3 from PATH. Each candidate must both
// start and import faster_whisper.
func ResolvePython(ctx context.Context, configured string) Status {
	result := Status{
		Name:        "python",
		Description: "runs the faster-whisper transcription script",
	}

	for _, candidate := range pythonCandidates(configured) {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}
		if err := runQuiet(ctx, path, "--version"); err != nil {
			continue
		}
		if err := runQuiet(ctx, path, "-c", "import faster_whisper"); err != nil {
			result.Detail = fmt.Sprintf("%s lacks the faster-whisper package", path)
			continue
		}
		result.Command = path
		result.Available = true
		result.Detail = ""
		return result
	}

	if result.Detail == "" {
		result.Detail = "no Python interpreter with faster-whisper found"
	}
	return result
}

func pythonCandidates(configured string) []string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".clipsmith-venv", "bin", "python"))
	}
	if configured = strings.TrimSpace(configured); configured != "" {
		candidates = append(candidates, configured)
	}
	candidates = append(candidates, "python3")
	return candidates
}

func runQuiet(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}
