package ytdlp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Downloader wraps yt-dlp for audio-only and full-video downloads.
type Downloader struct {
	bin         string
	cookiesPath string
	jsRuntime   string
}

// ErrBotCheck marks downloads blocked by the source's bot verification.
// The caller should tell the user to provide browser cookies.
var ErrBotCheck = fmt.Errorf("source requires sign-in verification, configure a cookies file")

// New builds a downloader. cookiesPath and jsRuntime are optional.
func New(bin, cookiesPath, jsRuntime string) *Downloader {
	if strings.TrimSpace(bin) == "" {
		bin = "yt-dlp"
	}
	return &Downloader{bin: bin, cookiesPath: cookiesPath, jsRuntime: jsRuntime}
}

// DownloadAudio fetches the best audio-only stream into destDir and returns
// the downloaded file path.
func (d *Downloader) DownloadAudio(ctx context.Context, url, destDir string) (string, error) {
	args := d.commonArgs()
	args = append(args,
		"-f", "bestaudio",
		"-o", filepath.Join(destDir, "audio.%(ext)s"),
		url,
	)
	if err := d.run(ctx, args); err != nil {
		return "", err
	}
	return findByPrefix(destDir, "audio.")
}

// DownloadVideo fetches the best MP4 video+audio into destDir and returns
// the downloaded file path.
func (d *Downloader) DownloadVideo(ctx context.Context, url, destDir string) (string, error) {
	args := d.commonArgs()
	args = append(args,
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"--merge-output-format", "mp4",
		"-o", filepath.Join(destDir, "source.%(ext)s"),
		url,
	)
	if err := d.run(ctx, args); err != nil {
		return "", err
	}
	return findByPrefix(destDir, "source.")
}

func (d *Downloader) commonArgs() []string {
	args := []string{"--no-playlist"}
	if d.cookiesPath != "" {
		args = append(args, "--cookies", d.cookiesPath)
	}
	if d.jsRuntime != "" {
		args = append(args, "--js-runtimes", "node:"+d.jsRuntime)
	}
	return args
}

func (d *Downloader) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, d.bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if IsBotCheck(string(output)) {
			return fmt.Errorf("%w: %s", ErrBotCheck, firstLine(string(output)))
		}
		return fmt.Errorf("yt-dlp: %w: %s", err, firstLine(string(output)))
	}
	return nil
}

// IsBotCheck recognizes the verification wall in yt-dlp output.
func IsBotCheck(output string) bool {
	return strings.Contains(strings.ToLower(output), "sign in to confirm you're not a bot")
}

// findByPrefix locates the single downloaded file whose name starts with the
// template prefix; the extension depends on the source format.
func findByPrefix(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan download dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no downloaded file with prefix %q in %s", prefix, dir)
}

func firstLine(output string) string {
	trimmed := strings.TrimSpace(output)
	if idx := strings.IndexByte(trimmed, '\n'); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}
