package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"clipsmith/internal/config"
)

// Requirement defines an external dependency the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the preflight list from the configured tool paths.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.Tools.YtDlp, Description: "downloads source audio and video"},
		{Name: "ffmpeg", Command: cfg.Tools.FFmpeg, Description: "cuts, converts, and merges clips"},
		{Name: "ffprobe", Command: cfg.Tools.FFprobe, Description: "inspects media durations and streams"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

// Remediation renders a user-facing message for missing dependencies,
// including the commands that install them.
func Remediation(missing []Status) string {
	if len(missing) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Magic Clips prerequisites are missing.\n")
	for _, s := range missing {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Detail)
	}
	b.WriteString("\nInstall them with:\n")
	for _, cmd := range installCommands {
		fmt.Fprintf(&b, "  %s\n", cmd)
	}
	return strings.TrimRight(b.String(), "\n")
}

var installCommands = []string{
	"sudo apt install -y ffmpeg wget python3 python3-venv",
	"sudo wget https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp -O /usr/local/bin/yt-dlp && sudo chmod a+rx /usr/local/bin/yt-dlp",
	"python3 -m venv ~/.clipsmith-venv && ~/.clipsmith-venv/bin/pip install faster-whisper",
}
