package scene

import (
	"math"
)

// Mode identifies the vertical framing applied to a stretch of video.
type Mode string

const (
	// ModeSingle crops to a single centered subject.
	ModeSingle Mode = "B"
	// ModeSplit stacks the left and right halves for two-person shots.
	ModeSplit Mode = "C"
)

// Interval is a classified stretch of the source timeline. Intervals from
// Classify are contiguous and cover [0, duration].
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Mode  Mode    `json:"mode"`
}

// Tunables control the hysteresis classifier. Values come from config and
// are already clamped to safe ranges there.
type Tunables struct {
	FPS            float64
	EnterScore     float64
	ExitScore      float64
	EnterStableSec float64
	ExitStableSec  float64
	MinHoldSec     float64
}

const (
	minIntervalSec = 0.08
	mergeGapSec    = 0.04
)

// Classify runs split-mode hysteresis over per-frame scores sampled at the
// configured rate. Transitions land on the first frame of a stable run, and
// a minimum hold keeps the classifier from flapping between modes.
func Classify(scores []float64, duration float64, tun Tunables) []Interval {
	if len(scores) == 0 || duration <= 0 {
		return []Interval{{Start: 0, End: math.Max(duration, 0), Mode: ModeSingle}}
	}

	fps := tun.FPS
	if fps <= 0 {
		fps = 1
	}
	enterFrames := stableFrames(tun.EnterStableSec, fps)
	exitFrames := stableFrames(tun.ExitStableSec, fps)
	holdFrames := stableFrames(tun.MinHoldSec, fps)

	var intervals []Interval
	mode := ModeSingle
	modeStart := 0.0
	modeStartFrame := 0
	runStart := -1
	runLen := 0

	for i, score := range scores {
		if mode == ModeSingle {
			if score >= tun.EnterScore {
				if runLen == 0 {
					runStart = i
				}
				runLen++
				if runLen >= enterFrames {
					switchAt := float64(runStart) / fps
					if switchAt > modeStart {
						intervals = append(intervals, Interval{Start: modeStart, End: switchAt, Mode: mode})
					}
					mode = ModeSplit
					modeStart = switchAt
					modeStartFrame = runStart
					runLen = 0
				}
			} else {
				runLen = 0
			}
			continue
		}

		// Split mode: honor the minimum hold before checking for exit.
		if i-modeStartFrame < holdFrames {
			runLen = 0
			continue
		}
		if score <= tun.ExitScore {
			if runLen == 0 {
				runStart = i
			}
			runLen++
			if runLen >= exitFrames {
				switchAt := float64(runStart) / fps
				if switchAt > modeStart {
					intervals = append(intervals, Interval{Start: modeStart, End: switchAt, Mode: mode})
				}
				mode = ModeSingle
				modeStart = switchAt
				modeStartFrame = runStart
				runLen = 0
			}
		} else {
			runLen = 0
		}
	}

	if duration > modeStart {
		intervals = append(intervals, Interval{Start: modeStart, End: duration, Mode: mode})
	}
	return mergeIntervals(intervals, duration)
}

func stableFrames(sec, fps float64) int {
	n := int(math.Round(sec * fps))
	if n < 1 {
		n = 1
	}
	return n
}

// mergeIntervals drops sub-perceptual slivers, joins adjacent same-mode
// intervals, and restores gap-free coverage of [0, duration].
func mergeIntervals(intervals []Interval, duration float64) []Interval {
	if len(intervals) == 0 {
		return []Interval{{Start: 0, End: duration, Mode: ModeSingle}}
	}

	kept := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End-iv.Start < minIntervalSec {
			continue
		}
		kept = append(kept, iv)
	}
	if len(kept) == 0 {
		return []Interval{{Start: 0, End: duration, Mode: ModeSingle}}
	}

	merged := kept[:1]
	for _, iv := range kept[1:] {
		last := &merged[len(merged)-1]
		if iv.Mode == last.Mode && iv.Start-last.End <= mergeGapSec {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	// Close any gaps left by dropped slivers.
	merged[0].Start = 0
	for i := 1; i < len(merged); i++ {
		merged[i].Start = merged[i-1].End
	}
	merged[len(merged)-1].End = duration
	return merged
}
