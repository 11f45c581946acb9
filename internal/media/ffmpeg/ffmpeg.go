package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Renderer shells out to ffmpeg for every cut, conversion, and merge the
// pipeline performs.
type Renderer struct {
	bin    string
	width  int
	height int
}

// NewRenderer builds a renderer targeting the given output dimensions.
func NewRenderer(bin string, width, height int) *Renderer {
	if strings.TrimSpace(bin) == "" {
		bin = "ffmpeg"
	}
	return &Renderer{bin: bin, width: width, height: height}
}

var encodeArgs = []string{
	"-r", "30",
	"-c:v", "libx264",
	"-preset", "veryfast",
	"-crf", "28",
	"-c:a", "aac",
	"-b:a", "128k",
	"-movflags", "+faststart",
}

// CutCentered extracts [start, end) from src and crops it to a centered
// vertical frame.
func (r *Renderer) CutCentered(ctx context.Context, src string, start, end float64, out string) error {
	filter := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		r.width, r.height, r.width, r.height)
	return r.cut(ctx, src, start, end, filter, out)
}

// CutSplit extracts [start, end) from src and stacks the left and right
// halves vertically, for two-person side-by-side shots.
func (r *Renderer) CutSplit(ctx context.Context, src string, start, end float64, out string) error {
	half := r.height / 2
	filter := fmt.Sprintf(
		"[0:v]crop=iw/2:ih:0:0,scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[top];"+
			"[0:v]crop=iw/2:ih:iw/2:0,scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[bottom];"+
			"[top][bottom]vstack=inputs=2[v]",
		r.width, half, r.width, half,
		r.width, half, r.width, half)

	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", src,
		"-filter_complex", filter,
		"-map", "[v]",
		"-map", "0:a?",
	}
	args = append(args, encodeArgs...)
	args = append(args, out)
	return r.run(ctx, args)
}

func (r *Renderer) cut(ctx context.Context, src string, start, end float64, filter, out string) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", src,
		"-vf", filter,
	}
	args = append(args, encodeArgs...)
	args = append(args, out)
	return r.run(ctx, args)
}

// Concat merges the segment files into one container without re-encoding.
// The concat list lives next to the output file.
func (r *Renderer) Concat(ctx context.Context, segmentPaths []string, out string) error {
	if len(segmentPaths) == 0 {
		return fmt.Errorf("concat: no segments")
	}
	listPath := filepath.Join(filepath.Dir(out), "concat-list.txt")
	if err := os.WriteFile(listPath, []byte(ConcatList(segmentPaths)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	}
	return r.run(ctx, args)
}

// ConcatList renders the ffmpeg concat demuxer input for the given paths.
func ConcatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// ConvertToWav transcodes any audio input to 16 kHz mono WAV for the
// transcription model.
func (r *Renderer) ConvertToWav(ctx context.Context, in, out string) error {
	return r.run(ctx, []string{"-y", "-i", in, "-ac", "1", "-ar", "16000", out})
}

// EnsureMP4 re-encodes a container into the standard MP4 profile when the
// source format is not directly usable.
func (r *Renderer) EnsureMP4(ctx context.Context, in, out string) error {
	args := []string{"-y", "-i", in}
	args = append(args, encodeArgs...)
	args = append(args, out)
	return r.run(ctx, args)
}

func (r *Renderer) run(ctx context.Context, args []string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, r.bin, full...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", args[len(args)-1], err, strings.TrimSpace(string(output)))
	}
	return nil
}
