package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatalf("stream detection failed: %+v", result)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	w, h := result.VideoDimensions()
	if w != 1920 || h != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", w, h)
	}
}

func TestResultHelpersHandleMissingData(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.HasVideo() || result.HasAudio() {
		t.Fatal("empty container should report no streams")
	}
	if w, h := result.VideoDimensions(); w != 0 || h != 0 {
		t.Fatalf("expected zero dimensions, got %dx%d", w, h)
	}
}

func TestResultHelpersEmptyDuration(t *testing.T) {
	result := Result{}
	if result.DurationSeconds() != 0 {
		t.Fatalf("empty duration should be 0, got %v", result.DurationSeconds())
	}
}
