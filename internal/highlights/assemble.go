package highlights

import (
	"fmt"
	"math"
	"sort"
)

const (
	maxSegmentsPerOutput = 6
	minSegmentSec        = 8.0
	slackUnderSec        = 8.0
	slackOverSec         = 8.0
)

// Output is one assembled clip plan: the ordered segment list for a single
// merged video plus the strategy that produced it.
type Output struct {
	Key              string   `json:"key"`
	Mode             string   `json:"mode"`
	StrategyName     string   `json:"strategyName"`
	TargetLengthSec  float64  `json:"targetLengthSec"`
	TotalDurationSec float64  `json:"totalDurationSec"`
	Segments         []Scored `json:"segments"`
	Notes            []string `json:"notes,omitempty"`
}

// claim records a time range already spent by an earlier variant.
type claim struct {
	start float64
	end   float64
	owner string
}

// reuseTracker allows at most one cross-variant segment reuse per assembly.
type reuseTracker struct {
	count int
	notes []string
}

// AssembleSingleOutput builds the single "best" clip plan. maxEndSec caps how
// far the final segment may be extended when the plan runs short.
func AssembleSingleOutput(candidates []Scored, targetLen, maxEndSec float64) Output {
	ranked := rankBy(candidates, func(s Scored) float64 { return s.Single })
	targetCount := DetermineHighlightCount(targetLen)

	tracker := &reuseTracker{}
	selected := pickSegments(ranked, nil, targetCount, targetLen, nil, tracker, false)
	selected = topUpSegments(selected, ranked, targetLen, maxEndSec)
	selected = ensureSolution(selected, ranked)
	selected = trimToTarget(selected, targetLen, maxEndSec)
	selected = orderSingleArc(selected)
	selected = trimToTarget(selected, targetLen, maxEndSec)

	return Output{
		Key:              "best",
		Mode:             "single",
		StrategyName:     "Single (Best)",
		TargetLengthSec:  targetLen,
		TotalDurationSec: round3(totalDuration(selected)),
		Segments:         selected,
	}
}

// AssembleVariantOutputs builds the three variant clip plans. Variants share
// a claim list so they draw from distinct parts of the source; a single
// cross-variant reuse is allowed when a variant would otherwise come up short.
func AssembleVariantOutputs(candidates []Scored, durations map[string]float64, maxEndSec float64) []Output {
	var claims []claim
	tracker := &reuseTracker{}
	outputs := make([]Output, 0, len(VariantOrder))

	for _, plan := range Strategies() {
		target := DefaultVariantDurations[plan.Key]
		if v, ok := durations[plan.Key]; ok && v > 0 {
			target = v
		}

		ranked := rankBy(candidates, plan.Metric)
		targetCount := DetermineHighlightCount(target)
		notesBefore := len(tracker.notes)

		selected := pickSegments(ranked, nil, targetCount, target, claims, tracker, false)
		if len(selected) < targetCount && tracker.count < 1 {
			selected = pickSegments(ranked, selected, targetCount, target, claims, tracker, true)
		}
		selected = topUpSegments(selected, ranked, target, maxEndSec)
		selected = plan.Ensure(selected, ranked)
		selected = plan.Order(selected)
		selected = trimToTarget(selected, target, maxEndSec)

		for _, seg := range selected {
			claims = append(claims, claim{start: seg.Start, end: seg.End, owner: plan.Key})
		}

		outputs = append(outputs, Output{
			Key:              plan.Key,
			Mode:             "variants",
			StrategyName:     plan.StrategyName,
			TargetLengthSec:  target,
			TotalDurationSec: round3(totalDuration(selected)),
			Segments:         selected,
			Notes:            append([]string(nil), tracker.notes[notesBefore:]...),
		})
	}
	return outputs
}

// pickSegments walks ranked candidates and greedily accepts non-overlapping
// ones until the count and duration goals are met. Claimed ranges are skipped
// unless allowReuse is set and the reuse budget remains.
func pickSegments(ranked, selected []Scored, targetCount int, targetLen float64, claims []claim, tracker *reuseTracker, allowReuse bool) []Scored {
	total := totalDuration(selected)
	for _, cand := range ranked {
		if len(selected) >= targetCount && total >= targetLen-slackUnderSec {
			break
		}
		if len(selected) >= maxSegmentsPerOutput {
			break
		}
		if containsID(selected, cand.ID) || overlapsSelected(selected, cand) {
			continue
		}
		if owner, claimed := claimedBy(claims, cand); claimed {
			if !allowReuse || tracker.count >= 1 {
				continue
			}
			tracker.count++
			tracker.notes = append(tracker.notes, fmt.Sprintf(
				"Segmen %s-%s dipakai ulang dari %s.",
				formatClock(cand.Start), formatClock(cand.End), owner))
		}
		selected = append(selected, cand)
		total += segmentDuration(cand)
	}
	return selected
}

// topUpSegments pads a short selection with additional non-overlapping
// candidates, then trims it back to the target window.
func topUpSegments(selected, ranked []Scored, targetLen, maxEndSec float64) []Scored {
	total := totalDuration(selected)
	for _, cand := range ranked {
		if total >= targetLen-slackUnderSec || len(selected) >= maxSegmentsPerOutput {
			break
		}
		if containsID(selected, cand.ID) || overlapsSelected(selected, cand) {
			continue
		}
		selected = append(selected, cand)
		total += segmentDuration(cand)
	}
	return trimToTarget(selected, targetLen, maxEndSec)
}

// trimToTarget reshapes a selection toward the target duration: drop the
// weakest segments while far over budget, shave or stretch the final segment
// for fine adjustment, and discard degenerate spans. Running it twice yields
// the same result.
func trimToTarget(segments []Scored, targetLen, maxEndSec float64) []Scored {
	segments = dedupeByID(segments)

	for totalDuration(segments) > targetLen+slackOverSec && len(segments) > 1 {
		weakest := 0
		for i := 1; i < len(segments); i++ {
			if segments[i].Single < segments[weakest].Single {
				weakest = i
			}
		}
		segments = append(segments[:weakest], segments[weakest+1:]...)
	}

	if total := totalDuration(segments); total > targetLen+2 && len(segments) > 0 {
		last := &segments[len(segments)-1]
		overflow := total - targetLen
		reducible := (last.End - last.Start) - minSegmentSec
		if reducible > 0 {
			last.End -= math.Min(reducible, overflow)
			last.DurationSec = round3(math.Max(0.4, last.End-last.Start))
		}
	}

	if total := totalDuration(segments); total < targetLen-10 && len(segments) > 0 {
		last := &segments[len(segments)-1]
		extension := math.Min(targetLen-total, 8)
		newEnd := math.Min(last.End+extension, maxEndSec)
		if newEnd > last.End {
			last.End = newEnd
			last.DurationSec = round3(math.Max(0.4, last.End-last.Start))
		}
	}

	kept := segments[:0]
	for _, seg := range segments {
		if seg.End > seg.Start+0.4 {
			kept = append(kept, seg)
		}
	}
	return kept
}

// orderSingleArc arranges a selection as hook, body, solutions, recap.
func orderSingleArc(segments []Scored) []Scored {
	if len(segments) <= 1 {
		return segments
	}

	intro := bestMatch(segments, func(s Scored) bool {
		return s.Label == LabelHook || s.Label == LabelPain
	}, func(s Scored) float64 { return s.Single })

	used := map[string]bool{}
	if intro != nil {
		used[intro.ID] = true
	}

	var solutions []Scored
	for _, seg := range segments {
		if !used[seg.ID] && seg.Label == LabelSolution {
			solutions = append(solutions, seg)
			used[seg.ID] = true
		}
	}
	sort.SliceStable(solutions, func(i, j int) bool {
		return solutions[i].Solution > solutions[j].Solution
	})

	recap := bestMatch(segments, func(s Scored) bool {
		return !used[s.ID] && s.Label != LabelSolution
	}, func(s Scored) float64 { return s.Clarity })
	if recap != nil {
		used[recap.ID] = true
	}

	ordered := make([]Scored, 0, len(segments))
	if intro != nil {
		ordered = append(ordered, *intro)
	}
	for _, seg := range segments {
		if !used[seg.ID] {
			ordered = append(ordered, seg)
		}
	}
	ordered = append(ordered, solutions...)
	if recap != nil {
		ordered = append(ordered, *recap)
	}
	return ordered
}

// orderHotTake leads with the strongest hook, keeps non-solution body next,
// and lands on the solutions.
func orderHotTake(segments []Scored) []Scored {
	if len(segments) <= 1 {
		return segments
	}

	intro := bestMatch(segments, func(s Scored) bool {
		return s.Label == LabelHook || s.Label == LabelPain
	}, func(s Scored) float64 { return s.HotTake })

	used := map[string]bool{}
	if intro != nil {
		used[intro.ID] = true
	}

	ordered := make([]Scored, 0, len(segments))
	if intro != nil {
		ordered = append(ordered, *intro)
	}
	for _, seg := range segments {
		if !used[seg.ID] && seg.Label != LabelSolution {
			ordered = append(ordered, seg)
			used[seg.ID] = true
		}
	}
	for _, seg := range segments {
		if !used[seg.ID] {
			ordered = append(ordered, seg)
		}
	}
	return ordered
}

// orderChecklist sorts enumerated steps into their spoken order; unnumbered
// segments rank by checklist strength after them.
func orderChecklist(segments []Scored) []Scored {
	ordered := append([]Scored(nil), segments...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StepOrder != ordered[j].StepOrder {
			return ordered[i].StepOrder < ordered[j].StepOrder
		}
		return ordered[i].Checklist > ordered[j].Checklist
	})
	return ordered
}

// orderStory opens with desire or pain, builds through the middle, and keeps
// solutions for the close.
func orderStory(segments []Scored) []Scored {
	if len(segments) <= 1 {
		return segments
	}

	opener := bestMatch(segments, func(s Scored) bool {
		return s.Label == LabelDesire || s.Label == LabelPain
	}, func(s Scored) float64 { return s.Story })

	used := map[string]bool{}
	if opener != nil {
		used[opener.ID] = true
	}

	ordered := make([]Scored, 0, len(segments))
	if opener != nil {
		ordered = append(ordered, *opener)
	}
	for _, seg := range segments {
		if !used[seg.ID] && seg.Label != LabelSolution {
			ordered = append(ordered, seg)
			used[seg.ID] = true
		}
	}
	for _, seg := range segments {
		if !used[seg.ID] {
			ordered = append(ordered, seg)
		}
	}
	return ordered
}

// ensureSolution guarantees the selection carries at least one segment with
// real solution content.
func ensureSolution(selected, ranked []Scored) []Scored {
	for _, seg := range selected {
		if seg.Solution >= 1 {
			return selected
		}
	}
	if extra := pullCandidate(selected, ranked, func(s Scored) bool { return s.Solution >= 1 }); extra != nil {
		selected = append(selected, *extra)
	}
	return selected
}

// ensureChecklistSteps tops the selection up to at least two recognizable
// steps when the source offers them.
func ensureChecklistSteps(selected, ranked []Scored) []Scored {
	isStep := func(s Scored) bool { return s.ListPattern >= 1 || s.StepOrder < 99 }
	for countMatching(selected, isStep) < 2 {
		extra := pullCandidate(selected, ranked, isStep)
		if extra == nil {
			break
		}
		selected = append(selected, *extra)
	}
	return ensureSolution(selected, ranked)
}

// pullCandidate finds the best ranked candidate matching the predicate that
// does not collide with the current selection.
func pullCandidate(selected, ranked []Scored, match func(Scored) bool) *Scored {
	for _, cand := range ranked {
		if !match(cand) {
			continue
		}
		if containsID(selected, cand.ID) || overlapsSelected(selected, cand) {
			continue
		}
		c := cand
		return &c
	}
	return nil
}

func bestMatch(segments []Scored, match func(Scored) bool, metric func(Scored) float64) *Scored {
	var best *Scored
	for i := range segments {
		if !match(segments[i]) {
			continue
		}
		if best == nil || metric(segments[i]) > metric(*best) {
			best = &segments[i]
		}
	}
	if best == nil {
		return nil
	}
	c := *best
	return &c
}

func rankBy(candidates []Scored, metric func(Scored) float64) []Scored {
	ranked := append([]Scored(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return metric(ranked[i]) > metric(ranked[j])
	})
	return ranked
}

func segmentDuration(s Scored) float64 {
	return math.Max(0.4, s.End-s.Start)
}

func totalDuration(segments []Scored) float64 {
	total := 0.0
	for _, seg := range segments {
		total += segmentDuration(seg)
	}
	return total
}

func containsID(segments []Scored, id string) bool {
	for _, seg := range segments {
		if seg.ID == id {
			return true
		}
	}
	return false
}

func overlapsSelected(selected []Scored, cand Scored) bool {
	for _, seg := range selected {
		if cand.Start < seg.End && seg.Start < cand.End {
			return true
		}
	}
	return false
}

func claimedBy(claims []claim, cand Scored) (string, bool) {
	for _, c := range claims {
		if cand.Start < c.end && c.start < cand.End {
			return c.owner, true
		}
	}
	return "", false
}

func countMatching(segments []Scored, match func(Scored) bool) int {
	n := 0
	for _, seg := range segments {
		if match(seg) {
			n++
		}
	}
	return n
}

func dedupeByID(segments []Scored) []Scored {
	seen := make(map[string]bool, len(segments))
	out := segments[:0]
	for _, seg := range segments {
		if seen[seg.ID] {
			continue
		}
		seen[seg.ID] = true
		out = append(out, seg)
	}
	return out
}

// formatClock renders seconds as MM:SS for human-facing notes.
func formatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(math.Round(sec))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
