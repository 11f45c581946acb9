package scene

import (
	"math"
	"testing"
)

func testTunables() Tunables {
	return Tunables{
		FPS:            2,
		EnterScore:     0.58,
		ExitScore:      0.48,
		EnterStableSec: 1.0,
		ExitStableSec:  1.0,
		MinHoldSec:     3.0,
	}
}

func constantScores(value float64, seconds, fps float64) []float64 {
	n := int(seconds * fps)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = value
	}
	return scores
}

func TestClassifyAllSingle(t *testing.T) {
	tun := testTunables()
	scores := constantScores(0.1, 30, tun.FPS)

	intervals := Classify(scores, 30, tun)
	if len(intervals) != 1 {
		t.Fatalf("expected one interval, got %+v", intervals)
	}
	if intervals[0].Mode != ModeSingle || intervals[0].Start != 0 || intervals[0].End != 30 {
		t.Fatalf("unexpected interval: %+v", intervals[0])
	}
}

func TestClassifySharpSwitch(t *testing.T) {
	tun := testTunables()
	// Low for 5s, then high for the rest.
	scores := append(constantScores(0.1, 5, tun.FPS), constantScores(0.9, 25, tun.FPS)...)

	intervals := Classify(scores, 30, tun)
	if len(intervals) != 2 {
		t.Fatalf("expected two intervals, got %+v", intervals)
	}
	if intervals[0].Mode != ModeSingle || intervals[1].Mode != ModeSplit {
		t.Fatalf("unexpected modes: %+v", intervals)
	}
	// Transition must land within one sampling interval of the actual cut.
	if math.Abs(intervals[0].End-5) > 1/tun.FPS+1e-9 {
		t.Fatalf("transition at %v, want ~5", intervals[0].End)
	}
	if intervals[1].End != 30 {
		t.Fatalf("final interval must close at duration: %+v", intervals[1])
	}
}

func TestClassifyMinHoldSuppressesFlap(t *testing.T) {
	tun := testTunables()
	// Enter split at 2s, dip below exit threshold almost immediately; the
	// hold must keep split mode alive through the dip.
	scores := constantScores(0.1, 2, tun.FPS)
	scores = append(scores, constantScores(0.9, 1.5, tun.FPS)...)
	scores = append(scores, constantScores(0.2, 1, tun.FPS)...)
	scores = append(scores, constantScores(0.9, 10, tun.FPS)...)

	intervals := Classify(scores, 14.5, tun)
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Mode == intervals[i-1].Mode {
			t.Fatalf("adjacent intervals share a mode: %+v", intervals)
		}
	}
	if len(intervals) != 2 {
		t.Fatalf("expected hold to suppress the dip, got %+v", intervals)
	}
}

func TestClassifyCoverageContiguous(t *testing.T) {
	tun := testTunables()
	scores := constantScores(0.1, 8, tun.FPS)
	scores = append(scores, constantScores(0.9, 8, tun.FPS)...)
	scores = append(scores, constantScores(0.1, 8, tun.FPS)...)

	intervals := Classify(scores, 24, tun)
	if intervals[0].Start != 0 {
		t.Fatalf("coverage must start at 0: %+v", intervals)
	}
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start != intervals[i-1].End {
			t.Fatalf("gap between intervals: %+v", intervals)
		}
	}
	if intervals[len(intervals)-1].End != 24 {
		t.Fatalf("coverage must end at duration: %+v", intervals)
	}
}

func TestClassifyEmptyScores(t *testing.T) {
	intervals := Classify(nil, 12, testTunables())
	if len(intervals) != 1 || intervals[0].Mode != ModeSingle || intervals[0].End != 12 {
		t.Fatalf("expected single fallback interval, got %+v", intervals)
	}
}

func TestFrameScoreSplitVersusUniform(t *testing.T) {
	const w, h = 96, 54

	uniform := make([]byte, w*h)
	for i := range uniform {
		uniform[i] = 128
	}

	split := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				split[y*w+x] = 30
			} else {
				split[y*w+x] = 220
			}
		}
	}

	us := FrameScore(uniform, w, h)
	ss := FrameScore(split, w, h)
	if us >= ss {
		t.Fatalf("uniform %v should score below split %v", us, ss)
	}
	if ss < 0.5 {
		t.Fatalf("hard split should score high, got %v", ss)
	}
	if us > 0.1 {
		t.Fatalf("uniform frame should score near zero, got %v", us)
	}
}

func TestFrameScoreBounds(t *testing.T) {
	if got := FrameScore(nil, 96, 54); got != 0 {
		t.Fatalf("nil frame score = %v", got)
	}
	noise := make([]byte, 96*54)
	for i := range noise {
		noise[i] = byte((i * 37) % 251)
	}
	got := FrameScore(noise, 96, 54)
	if got < 0 || got > 1 {
		t.Fatalf("score out of range: %v", got)
	}
}
