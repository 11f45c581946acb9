package highlights

import (
	"math"
	"regexp"
	"strings"

	"clipsmith/internal/transcript"
)

// Label classifies the dominant rhetorical function of a scored span.
type Label string

const (
	LabelHook     Label = "HOOK"
	LabelPain     Label = "PAIN"
	LabelDesire   Label = "DESIRE"
	LabelSolution Label = "SOLUTION"
)

type weightedTerms struct {
	terms  []string
	weight float64
}

var (
	hookTerms     = weightedTerms{[]string{"stop", "jangan", "kalau lo", "masalahnya", "yang orang", "?"}, 1.1}
	painTerms     = weightedTerms{[]string{"capek", "stuck", "bingung", "gagal", "takut", "nggak", "tidak", "ga", "gak"}, 1}
	desireTerms   = weightedTerms{[]string{"pengen", "mau", "biar", "supaya", "target", "impian"}, 1}
	solutionTerms = weightedTerms{[]string{"caranya", "solusinya", "yang harus", "coba", "mulai", "pertama", "kedua", "ketiga"}, 1.1}
	agitateTerms  = weightedTerms{[]string{"parah", "gila", "serius", "banget", "fatal", "kalau nggak", "bakal"}, 1.3}
	stepTerms     = weightedTerms{[]string{"pertama", "kedua", "ketiga", "langkah", "step"}, 1.2}
	fillerTerms   = weightedTerms{[]string{"eee", "eem", "anu", "hmm", "emm"}, 0.7}
)

var (
	questionPattern = regexp.MustCompile(`\?`)
	repeatedRunRe   = regexp.MustCompile(`\b(\w+)(\s+\1){2,}\b`)
	nonWordRe       = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Scores holds every metric computed for a span. All values are rounded to
// three decimals so stored previews stay stable across runs.
type Scores struct {
	Hook        float64 `json:"hook"`
	Pain        float64 `json:"pain"`
	Desire      float64 `json:"desire"`
	Solution    float64 `json:"solution"`
	Agitate     float64 `json:"agitate"`
	ListPattern float64 `json:"listPattern"`
	Filler      float64 `json:"filler"`
	Clarity     float64 `json:"clarity"`
	Single      float64 `json:"single"`
	HotTake     float64 `json:"hotTake"`
	Checklist   float64 `json:"checklist"`
	Story       float64 `json:"story"`
	Label       Label   `json:"label"`
	StepOrder   int     `json:"stepOrder"`
	WordCount   int     `json:"wordCount"`
	DurationSec float64 `json:"durationSec"`
}

// Scored couples a transcript span with its computed metrics.
type Scored struct {
	transcript.Segment
	Scores
}

// Score computes every metric for a single span.
func Score(seg transcript.Segment) Scored {
	lower := strings.ToLower(seg.Text)
	words := parseWords(seg.Text)
	wc := len(words)

	hook := termScore(lower, hookTerms)
	pain := termScore(lower, painTerms)
	desire := termScore(lower, desireTerms)
	solution := termScore(lower, solutionTerms)
	agitate := termScore(lower, agitateTerms)
	listPattern := termScore(lower, stepTerms)
	filler := termScore(lower, fillerTerms) + float64(len(repeatedRunRe.FindAllString(lower, -1)))*0.8

	lengthPenalty := 0.0
	if wc < 20 || wc > 110 {
		lengthPenalty = 1.2
	}
	clarity := clamp(3.4-filler-lengthPenalty+listPattern*0.3, 0, 3.5)

	s := Scores{
		Hook:        round3(hook),
		Pain:        round3(pain),
		Desire:      round3(desire),
		Solution:    round3(solution),
		Agitate:     round3(agitate),
		ListPattern: round3(listPattern),
		Filler:      round3(filler),
		Clarity:     round3(clarity),
		Single:      round3(hook + pain + solution + agitate + clarity - filler),
		HotTake:     round3(2*hook + 1.5*pain + 2*agitate + 0.6*solution + clarity),
		Checklist:   round3(2*solution + 2*listPattern + clarity - 0.3*filler),
		Story:       round3(2*desire + 1.1*pain + clarity + 0.6*solution + 0.4*agitate),
		Label:       dominantLabel(hook, pain, desire, solution),
		StepOrder:   stepOrder(lower),
		WordCount:   wc,
		DurationSec: round3(math.Max(0.4, seg.End-seg.Start)),
	}
	return Scored{Segment: seg, Scores: s}
}

// ScoreAll scores every span in order.
func ScoreAll(segments []transcript.Segment) []Scored {
	out := make([]Scored, 0, len(segments))
	for _, seg := range segments {
		out = append(out, Score(seg))
	}
	return out
}

func termScore(lower string, wt weightedTerms) float64 {
	total := 0.0
	for _, term := range wt.terms {
		if term == "?" {
			total += float64(len(questionPattern.FindAllString(lower, -1))) * wt.weight
			continue
		}
		total += float64(countOccurrences(lower, term)) * wt.weight
	}
	return total
}

// countOccurrences counts non-overlapping substring hits.
func countOccurrences(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	count := 0
	for idx := 0; ; {
		pos := strings.Index(haystack[idx:], needle)
		if pos < 0 {
			break
		}
		count++
		idx += pos + len(needle)
		if idx >= len(haystack) {
			break
		}
	}
	return count
}

func dominantLabel(hook, pain, desire, solution float64) Label {
	best := LabelHook
	bestScore := hook
	if pain > bestScore {
		best, bestScore = LabelPain, pain
	}
	if desire > bestScore {
		best, bestScore = LabelDesire, desire
	}
	if solution > bestScore {
		best = LabelSolution
	}
	return best
}

// stepOrder ranks spans that open an enumerated list; unranked spans sort
// last with 99.
func stepOrder(lower string) int {
	switch {
	case strings.Contains(lower, "pertama") || strings.Contains(lower, "first"):
		return 1
	case strings.Contains(lower, "kedua") || strings.Contains(lower, "second"):
		return 2
	case strings.Contains(lower, "ketiga") || strings.Contains(lower, "third"):
		return 3
	default:
		return 99
	}
}

// parseWords lowercases, strips punctuation, and splits on whitespace.
func parseWords(text string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Fields(cleaned)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
