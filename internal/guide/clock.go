package guide

import (
	"fmt"
	"math"
	"strings"
)

// FormatClock renders seconds as MM:SS.
func FormatClock(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int(math.Round(sec))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatMsClock renders seconds as MM:SS.mmm for frame-accurate notes.
func FormatMsClock(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	totalMs := int(math.Round(sec * 1000))
	minutes := totalMs / 60000
	seconds := (totalMs % 60000) / 1000
	millis := totalMs % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}

// FormatSRTClock renders seconds in the SubRip HH:MM:SS,mmm form.
func FormatSRTClock(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	totalMs := int(math.Round(sec * 1000))
	hours := totalMs / 3600000
	minutes := (totalMs % 3600000) / 60000
	seconds := (totalMs % 60000) / 1000
	millis := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// ClipLine shortens a line to at most max characters, appending an ellipsis
// when it had to cut.
func ClipLine(line string, max int) string {
	if max <= 0 {
		max = 88
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.") + "..."
}
