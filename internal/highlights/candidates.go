package highlights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"clipsmith/internal/transcript"
)

const (
	minWindowSec = 12.0
	maxWindowSec = 28.0

	minFallbackSec = 8.0
)

// BuildCandidates slides a window over consecutive spans and keeps every join
// between 12 and 28 seconds. When no window qualifies, single spans between 8
// and 28 seconds serve as a fallback tier. Overlapping duplicates keep the
// higher scoring copy.
func BuildCandidates(segments []transcript.Segment) []Scored {
	candidates := make([]Scored, 0, len(segments))
	for i := range segments {
		for j := i; j < len(segments); j++ {
			dur := segments[j].End - segments[i].Start
			if dur < minWindowSec {
				continue
			}
			if dur > maxWindowSec {
				break
			}
			candidates = append(candidates, Score(joinSpan(segments, i, j)))
		}
	}

	if len(candidates) == 0 {
		for i, seg := range segments {
			dur := seg.End - seg.Start
			if dur < minFallbackSec || dur > maxWindowSec {
				continue
			}
			fallback := seg
			fallback.ID = fmt.Sprintf("fallback-%d", i)
			candidates = append(candidates, Score(fallback))
		}
	}

	candidates = dedupeByRange(candidates)
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Start < candidates[b].Start
	})
	return candidates
}

// DetermineHighlightCount maps the requested clip length to a segment budget.
func DetermineHighlightCount(targetLengthSec float64) int {
	switch {
	case targetLengthSec >= 83:
		return 5
	case targetLengthSec >= 70:
		return 4
	default:
		return 3
	}
}

func joinSpan(segments []transcript.Segment, i, j int) transcript.Segment {
	texts := make([]string, 0, j-i+1)
	for k := i; k <= j; k++ {
		texts = append(texts, segments[k].Text)
	}
	joined := strings.Join(strings.Fields(strings.Join(texts, " ")), " ")
	return transcript.Segment{
		ID:    fmt.Sprintf("c-%d-%d", i, j),
		Start: segments[i].Start,
		End:   segments[j].End,
		Text:  joined,
	}
}

// dedupeByRange collapses candidates that cover the same tenth-of-a-second
// range, keeping the higher scoring one.
func dedupeByRange(candidates []Scored) []Scored {
	type key struct{ start, end int64 }
	best := make(map[key]Scored, len(candidates))
	order := make([]key, 0, len(candidates))
	for _, c := range candidates {
		k := key{int64(math.Round(c.Start * 10)), int64(math.Round(c.End * 10))}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = c
			continue
		}
		if c.Single > existing.Single {
			best[k] = c
		}
	}
	out := make([]Scored, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}
