package highlights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"clipsmith/internal/transcript"
)

// LongWindow is a contiguous run of transcript spans wide enough to stand on
// its own as a full clip.
type LongWindow struct {
	ID        string
	Start     float64
	End       float64
	Text      string
	WordCount int
	Boundary  float64
	Cohesion  float64
}

// VariantCandidate is one scored long-window option offered for a variant in
// the approval preview.
type VariantCandidate struct {
	ID                 string   `json:"id"`
	Variant            string   `json:"variant"`
	Start              float64  `json:"start"`
	End                float64  `json:"end"`
	Text               string   `json:"text"`
	MainTopic          string   `json:"mainTopic"`
	Hook               string   `json:"hook"`
	WhyItWorks         []string `json:"whyItWorks"`
	PreviewScriptLines []string `json:"previewScriptLines"`
	Boundary           float64  `json:"boundary"`
	Cohesion           float64  `json:"cohesion"`
	Safety             float64  `json:"safety"`
	Raw                float64  `json:"raw"`
	Virality           int      `json:"virality"`
}

// Duration returns the candidate span length in seconds.
func (c VariantCandidate) Duration() float64 {
	return math.Max(0.4, c.End-c.Start)
}

// BuildLongWindowCandidates slides anchored windows over the transcript,
// keeping one window per anchor whose duration lands closest to the target.
// Anchors advance by a fraction of the target so windows spread across the
// whole source.
func BuildLongWindowCandidates(segments []transcript.Segment, target float64) []LongWindow {
	minDur := clamp(0.78*target, 24, 180)
	maxDur := clamp(1.24*target, minDur+6, 260)

	var windows []LongWindow
	nextStartSec := 0.0
	for i := range segments {
		if segments[i].Start < nextStartSec {
			continue
		}
		bestJ := -1
		bestDiff := math.MaxFloat64
		for j := i; j < len(segments); j++ {
			dur := segments[j].End - segments[i].Start
			if dur >= maxDur {
				break
			}
			if dur < minDur {
				continue
			}
			if diff := math.Abs(dur - target); diff < bestDiff {
				bestDiff = diff
				bestJ = j
			}
		}
		if bestJ < 0 {
			continue
		}
		text := joinTexts(segments, i, bestJ)
		wc := len(parseWords(text))
		if wc < 35 {
			continue
		}
		windows = append(windows, LongWindow{
			ID:        fmt.Sprintf("w-%d-%d", i, bestJ),
			Start:     segments[i].Start,
			End:       segments[bestJ].End,
			Text:      text,
			WordCount: wc,
			Boundary:  boundaryQuality(segments, i, bestJ),
			Cohesion:  topicCohesion(text),
		})
		nextStartSec = segments[i].Start + math.Max(8, 0.22*target)
	}
	return windows
}

// boundaryQuality rewards windows that open and close on natural speech
// boundaries: a pause before or after, or a sentence-final punctuation mark.
func boundaryQuality(segments []transcript.Segment, startIdx, endIdx int) float64 {
	score := 0.0

	startNatural := startIdx == 0
	if !startNatural {
		prev := segments[startIdx-1]
		if prev.End+0.35 <= segments[startIdx].Start || endsSentence(prev.Text) {
			startNatural = true
		}
	}
	if startNatural {
		score++
	}

	endNatural := endIdx == len(segments)-1
	if !endNatural {
		next := segments[endIdx+1]
		if segments[endIdx].End+0.35 <= next.Start || endsSentence(segments[endIdx].Text) {
			endNatural = true
		}
	}
	if endNatural {
		score++
	}

	return score
}

// topicCohesion measures how concentrated the vocabulary is: the share of
// all tokens taken by the three most frequent topical words, scaled to
// [0, 3].
func topicCohesion(text string) float64 {
	counts := map[string]int{}
	total := 0
	for _, word := range parseWords(text) {
		if len(word) <= 2 || stopwordsID[word] {
			continue
		}
		counts[word]++
		total++
	}
	if total == 0 {
		return 0
	}
	freqs := make([]int, 0, len(counts))
	for _, n := range counts {
		freqs = append(freqs, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freqs)))
	top := 0
	for i := 0; i < len(freqs) && i < 3; i++ {
		top += freqs[i]
	}
	return round3(clamp(float64(top)/float64(total)*9, 0, 3))
}

// BuildVariantPool scores every long window for one variant and returns the
// ranked candidate pool. When no window qualifies, the strongest short
// candidates stand in so the preview is never empty.
func BuildVariantPool(variant string, windows []LongWindow, shortCandidates []Scored, target float64) []VariantCandidate {
	pool := make([]VariantCandidate, 0, len(windows))
	for _, w := range windows {
		scored := Score(transcript.Segment{ID: w.ID, Start: w.Start, End: w.End, Text: w.Text})
		raw := variantRawScore(variant, scored.Scores, w)
		safety := scored.Clarity + 0.9*w.Boundary + 0.7*w.Cohesion
		pool = append(pool, VariantCandidate{
			ID:                 fmt.Sprintf("%s-%s", variant, w.ID),
			Variant:            variant,
			Start:              w.Start,
			End:                w.End,
			Text:               w.Text,
			MainTopic:          TopicLabel(w.Text),
			Hook:               variantHookLine(variant, w.Text),
			WhyItWorks:         variantReasons(variant, scored.Scores, w),
			PreviewScriptLines: variantScriptLines(variant, w.Text),
			Boundary:           round3(w.Boundary),
			Cohesion:           round3(w.Cohesion),
			Safety:             round3(safety),
			Raw:                round3(raw),
			Virality:           viralityScore(raw, w.Boundary, w.Cohesion),
		})
	}

	pool = dedupeVariantPool(pool)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Raw > pool[j].Raw })

	if variant == VariantStory {
		strict := pool[:0:0]
		for _, c := range pool {
			if c.Cohesion >= 0.8 && c.Boundary >= 1 {
				strict = append(strict, c)
			}
		}
		if len(strict) >= 3 {
			pool = strict
		}
	}

	if len(pool) == 0 {
		pool = fallbackPool(variant, shortCandidates)
	}
	if len(pool) > 12 {
		pool = pool[:12]
	}
	return pool
}

func variantRawScore(variant string, s Scores, w LongWindow) float64 {
	switch variant {
	case VariantChecklist:
		return s.Checklist + 1.4*s.ListPattern + 0.5*w.Boundary + 0.25*w.Cohesion
	case VariantStory:
		return s.Story + 1.5*w.Cohesion + 0.7*w.Boundary
	default:
		return s.HotTake + 0.4*w.Boundary + 0.3*w.Cohesion
	}
}

func viralityScore(raw, boundary, cohesion float64) int {
	return int(clamp(math.Round(42+7*raw+4*boundary+4*cohesion), 0, 100))
}

// fallbackPool promotes the top short candidates when no long window
// survives filtering.
func fallbackPool(variant string, shortCandidates []Scored) []VariantCandidate {
	ranked := rankBy(shortCandidates, func(s Scored) float64 { return VariantMetric(variant, s) })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	pool := make([]VariantCandidate, 0, len(ranked))
	for i, cand := range ranked {
		pool = append(pool, VariantCandidate{
			ID:                 fmt.Sprintf("%s-fallback-%d", variant, i+1),
			Variant:            variant,
			Start:              cand.Start,
			End:                cand.End,
			Text:               cand.Text,
			MainTopic:          TopicLabel(cand.Text),
			Hook:               variantHookLine(variant, cand.Text),
			WhyItWorks:         variantReasons(variant, cand.Scores, LongWindow{Boundary: 1, Cohesion: 1}),
			PreviewScriptLines: variantScriptLines(variant, cand.Text),
			Boundary:           1,
			Cohesion:           1,
			Safety:             1,
			Raw:                1,
			Virality:           int(clamp(math.Round(44+6*cand.Single), 0, 100)),
		})
	}
	return pool
}

// dedupeVariantPool collapses candidates covering the same whole-second
// range, keeping the higher raw score.
func dedupeVariantPool(pool []VariantCandidate) []VariantCandidate {
	type key struct{ start, end int64 }
	best := make(map[key]VariantCandidate, len(pool))
	order := make([]key, 0, len(pool))
	for _, c := range pool {
		k := key{int64(math.Round(c.Start)), int64(math.Round(c.End))}
		existing, ok := best[k]
		if !ok {
			order = append(order, k)
			best[k] = c
			continue
		}
		if c.Raw > existing.Raw {
			best[k] = c
		}
	}
	out := make([]VariantCandidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

func variantHookLine(variant, text string) string {
	first := firstSentence(text)
	switch variant {
	case VariantChecklist:
		return "Simpan dulu: " + first
	case VariantStory:
		return "Cerita singkat: " + first
	default:
		return "Tunggu dulu. " + first
	}
}

func variantReasons(variant string, s Scores, w LongWindow) []string {
	switch variant {
	case VariantChecklist:
		return []string{
			"Langkah konkret yang bisa langsung dipraktikkan",
			"Struktur berurutan membuat penonton bertahan sampai akhir",
			fmt.Sprintf("Kejelasan penyampaian %.1f dari 3.5", s.Clarity),
		}
	case VariantStory:
		return []string{
			"Alur cerita dengan emosi yang mudah direlasikan",
			fmt.Sprintf("Topik fokus dengan kohesi %.1f dari 3", w.Cohesion),
			"Penutup yang memberi pelajaran, bukan sekadar keluhan",
		}
	default:
		return []string{
			"Pembuka kuat yang memancing rasa penasaran",
			"Pernyataan tegas yang memicu komentar",
			fmt.Sprintf("Potongan natural di batas kalimat (%.0f dari 2)", w.Boundary),
		}
	}
}

func variantScriptLines(variant, text string) []string {
	topic := TopicLabel(text)
	hook := firstSentence(text)
	switch variant {
	case VariantChecklist:
		return []string{
			"Tiga langkah soal " + topic + ".",
			hook,
			"Langkah pertama: mulai dari yang paling kecil.",
			"Langkah berikutnya: konsisten setiap hari.",
			"Simpan video ini biar nggak lupa.",
		}
	case VariantStory:
		return []string{
			"Gue pernah ada di titik ini.",
			hook,
			"Waktu itu rasanya " + topic + " cuma mimpi.",
			"Sampai satu hal kecil mengubah arah.",
			"Kalau gue bisa, lo juga bisa.",
		}
	default:
		return []string{
			"Stop scroll. Ini penting.",
			hook,
			"Kebanyakan orang salah paham soal " + topic + ".",
			"Padahal faktanya jauh lebih sederhana.",
			"Komentar kalau lo pernah ngalamin ini.",
		}
	}
}

func firstSentence(text string) string {
	trimmed := strings.TrimSpace(text)
	for i, r := range trimmed {
		if r == '.' || r == '!' || r == '?' {
			return strings.TrimSpace(trimmed[:i+1])
		}
	}
	if runes := []rune(trimmed); len(runes) > 90 {
		return strings.TrimSpace(string(runes[:90])) + "..."
	}
	return trimmed
}

func endsSentence(text string) bool {
	trimmed := strings.TrimRight(text, " ")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func joinTexts(segments []transcript.Segment, i, j int) string {
	texts := make([]string, 0, j-i+1)
	for k := i; k <= j; k++ {
		texts = append(texts, segments[k].Text)
	}
	return strings.Join(strings.Fields(strings.Join(texts, " ")), " ")
}
