package preview

import (
	"math"
	"sort"
	"time"

	"clipsmith/internal/highlights"
	"clipsmith/internal/services"
	"clipsmith/internal/transcript"
)

const (
	// Slot B must cover mostly different ground than slot A; slot C is the
	// safe alternative and tolerates slightly more overlap.
	maxOverlapAB = 0.5
	maxOverlapC  = 0.55

	regenerateStep = 3
)

// BuildState generates the full approval preview: one candidate pool and an
// A/B/C option set per variant.
func BuildState(segments []transcript.Segment, shortCandidates []highlights.Scored, durations map[string]float64) (*State, error) {
	state := &State{
		CreatedAt: time.Now().UTC(),
		Status:    StatusAwaitingSelection,
		Variants:  make(map[string]*VariantState, len(highlights.VariantOrder)),
	}

	totalCandidates := 0
	for _, key := range highlights.VariantOrder {
		target := highlights.DefaultVariantDurations[key]
		if v, ok := durations[key]; ok && v > 0 {
			target = v
		}
		windows := highlights.BuildLongWindowCandidates(segments, target)
		pool := highlights.BuildVariantPool(key, windows, shortCandidates, target)
		totalCandidates += len(pool)

		state.Variants[key] = &VariantState{
			Key:             key,
			Label:           highlights.VariantLabel(key),
			TargetLengthSec: target,
			Pool:            pool,
			Options:         pickDistinctOptions(pool),
		}
		state.Meta = append(state.Meta, VariantMeta{
			Key:             key,
			CandidateCount:  len(pool),
			TargetLengthSec: target,
		})
	}

	if totalCandidates == 0 {
		return nil, services.Wrap(services.ErrEmptyResult, "analyze", "preview",
			"No preview candidates were found for this source", nil)
	}
	return state, nil
}

// Regenerate advances the variant's pool window and rebuilds its options.
// Any previous slot choice is cleared since the options changed under it.
func (v *VariantState) Regenerate() {
	if len(v.Pool) == 0 {
		return
	}
	v.RegenOffset = (v.RegenOffset + regenerateStep) % len(v.Pool)
	v.Options = pickDistinctOptions(rotatePool(v.Pool, v.RegenOffset))
	v.SelectedSlot = ""
}

func rotatePool(pool []highlights.VariantCandidate, offset int) []highlights.VariantCandidate {
	if len(pool) == 0 || offset%len(pool) == 0 {
		return pool
	}
	offset %= len(pool)
	rotated := make([]highlights.VariantCandidate, 0, len(pool))
	rotated = append(rotated, pool[offset:]...)
	rotated = append(rotated, pool[:offset]...)
	return rotated
}

// pickDistinctOptions maps a ranked pool onto slots A, B, and C. A is the
// top candidate, B favors a different part of the source, and C is the
// safest remaining option.
func pickDistinctOptions(pool []highlights.VariantCandidate) map[string]highlights.VariantCandidate {
	options := make(map[string]highlights.VariantCandidate, len(SlotKeys))
	if len(pool) == 0 {
		return options
	}

	optA := pool[0]
	options["A"] = optA

	optB, found := optA, false
	for _, cand := range pool[1:] {
		if rangeOverlapRatio(optA, cand) < maxOverlapAB {
			optB, found = cand, true
			break
		}
	}
	if !found {
		for _, cand := range pool[1:] {
			optB, found = cand, true
			break
		}
	}
	options["B"] = optB

	optC, foundC := optB, false
	for _, cand := range rankBySafety(pool) {
		if cand.ID == optA.ID || cand.ID == optB.ID {
			continue
		}
		if rangeOverlapRatio(optA, cand) < maxOverlapC && rangeOverlapRatio(optB, cand) < maxOverlapC {
			optC, foundC = cand, true
			break
		}
	}
	if !foundC {
		for _, cand := range pool {
			if cand.ID != optA.ID && cand.ID != optB.ID {
				optC = cand
				break
			}
		}
	}
	options["C"] = optC
	return options
}

// rankBySafety orders candidates by safety score, breaking ties on boundary
// then cohesion quality.
func rankBySafety(pool []highlights.VariantCandidate) []highlights.VariantCandidate {
	ranked := append([]highlights.VariantCandidate(nil), pool...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Safety != b.Safety {
			return a.Safety > b.Safety
		}
		if a.Boundary != b.Boundary {
			return a.Boundary > b.Boundary
		}
		return a.Cohesion > b.Cohesion
	})
	return ranked
}

// rangeOverlapRatio measures how much two candidate ranges overlap relative
// to the shorter of the two.
func rangeOverlapRatio(a, b highlights.VariantCandidate) float64 {
	overlap := math.Min(a.End, b.End) - math.Max(a.Start, b.Start)
	if overlap <= 0 {
		return 0
	}
	shorter := math.Min(a.End-a.Start, b.End-b.Start)
	return overlap / math.Max(0.4, shorter)
}
