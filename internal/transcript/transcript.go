package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"clipsmith/internal/services"
)

// RawSegment mirrors the JSON emitted by the transcription script. Fields are
// untrusted: timestamps may be negative or inverted and text may be blank.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a cleaned transcript span with a stable identifier.
type Segment struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the segment length in seconds, floored at 0.4 so
// degenerate spans never divide by zero downstream.
func (s Segment) Duration() float64 {
	d := s.End - s.Start
	if d < 0.4 {
		return 0.4
	}
	return d
}

// Normalize clamps timestamps, drops empty or near-zero spans, sorts by start
// time, and assigns sequential identifiers. The result is safe for candidate
// generation.
func Normalize(raw []RawSegment) []Segment {
	cleaned := make([]Segment, 0, len(raw))
	for _, r := range raw {
		start := r.Start
		if start < 0 {
			start = 0
		}
		end := r.End
		if end < 0 {
			end = 0
		}
		text := strings.TrimSpace(r.Text)
		if text == "" || end <= start+0.2 {
			continue
		}
		cleaned = append(cleaned, Segment{Start: start, End: end, Text: text})
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Start < cleaned[j].Start
	})
	for i := range cleaned {
		cleaned[i].ID = fmt.Sprintf("t-%d", i+1)
	}
	return cleaned
}

// Load reads a transcription output file and normalizes its segments.
func Load(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcript", "load", "read transcript file", err)
	}
	var raw []RawSegment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcript", "load", "decode transcript JSON", err)
	}
	return Normalize(raw), nil
}
