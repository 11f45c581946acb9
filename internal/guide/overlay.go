package guide

import (
	"fmt"
	"math"
	"strings"

	"clipsmith/internal/highlights"
)

const (
	scriptLineMax   = 74
	minScriptLines  = 4
	maxScriptLines  = 7
	maxOverlayItems = 8
	fillerLine      = "Keep one clear idea and move it forward."
)

// OverlayEntry is one timed text overlay in the After Effects plan.
type OverlayEntry struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Tag   string  `json:"tag"`
}

// NormalizeScriptLines trims and clips each line, pads thin scripts with a
// filler beat, and caps the total.
func NormalizeScriptLines(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = ClipLine(line, scriptLineMax)
		if line == "" {
			continue
		}
		cleaned = append(cleaned, line)
	}
	for len(cleaned) < minScriptLines {
		cleaned = append(cleaned, fillerLine)
	}
	if len(cleaned) > maxScriptLines {
		cleaned = cleaned[:maxScriptLines]
	}
	return cleaned
}

// BuildOverlayPlan spaces the script lines across the clip. Hold time scales
// with clip length, short dwells are dropped, and each entry is tagged for
// the editor.
func BuildOverlayPlan(lines []string, durationSec float64, variant string) []OverlayEntry {
	lines = NormalizeScriptLines(lines)
	hold := clampF(durationSec/math.Max(22, float64(len(lines)*8)), 1.0, 2.2)

	var entries []OverlayEntry
	cursor := 0.0
	for i, line := range lines {
		if len(entries) >= maxOverlayItems {
			break
		}
		start := cursor
		end := start + hold
		if i == 0 {
			end += 0.25
		}
		if end > durationSec {
			end = durationSec
		}
		if end-start < 0.8 {
			break
		}
		entries = append(entries, OverlayEntry{
			Index: len(entries) + 1,
			Start: start,
			End:   end,
			Text:  line,
			Tag:   overlayTag(variant, i, len(lines)),
		})
		cursor = end + 0.15
	}
	return entries
}

func overlayTag(variant string, i, total int) string {
	switch {
	case i == 0:
		return "HOOK"
	case i == total-1:
		return "CTA"
	case variant == highlights.VariantChecklist && i <= 3:
		return fmt.Sprintf("POINT %d", i)
	case i == total-2:
		return "PUNCHLINE"
	default:
		return "POINT"
	}
}

// SRT renders the overlay plan as a SubRip file body.
func SRT(entries []OverlayEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			e.Index, FormatSRTClock(e.Start), FormatSRTClock(e.End), e.Text)
	}
	return b.String()
}

// Card renders the compact preview card shown alongside a variant option.
func Card(title string, finalDurationSec, sourceStart, sourceEnd float64, entries []OverlayEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | Final Duration: %ds\n", title, int(math.Round(finalDurationSec)))
	fmt.Fprintf(&b, "Source range: %s -> %s\n", FormatClock(sourceStart), FormatClock(sourceEnd))
	b.WriteString("Vertical mode: AUTO B/C\n\n")

	b.WriteString("AE overlay plan:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s-%s [%s] %s\n",
			FormatMsClock(e.Start), FormatMsClock(e.End), e.Tag, e.Text)
	}

	markers := markerLines(entries)
	if len(markers) > 0 {
		b.WriteString("\nMarkers:\n")
		for _, m := range markers {
			fmt.Fprintf(&b, "  %s\n", m)
		}
	}
	return b.String()
}

func markerLines(entries []OverlayEntry) []string {
	var markers []string
	for _, e := range entries {
		var name string
		switch {
		case e.Tag == "HOOK":
			name = "Hook"
		case e.Tag == "CTA":
			name = "CTA"
		case e.Tag == "PUNCHLINE":
			name = "Punchline"
		case strings.HasPrefix(e.Tag, "POINT"):
			name = "Point"
		default:
			continue
		}
		markers = append(markers, fmt.Sprintf("%s %s", FormatClock(e.Start), name))
	}
	return markers
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
