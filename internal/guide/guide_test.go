package guide_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"clipsmith/internal/guide"
	"clipsmith/internal/highlights"
	"clipsmith/internal/transcript"
)

func scored(id string, start, end float64, text string) highlights.Scored {
	return highlights.Score(transcript.Segment{ID: id, Start: start, End: end, Text: text})
}

func sampleOutput() highlights.Output {
	segments := []highlights.Scored{
		scored("a", 10, 26, "Stop dulu. Masalahnya banyak orang capek tapi nggak pernah mulai dari hal kecil."),
		scored("b", 40, 58, "Caranya sederhana. Pertama tulis satu target. Kedua kerjakan tiap pagi."),
	}
	return highlights.Output{
		Key:              "best",
		Mode:             "single",
		StrategyName:     "Single (Best)",
		TargetLengthSec:  60,
		TotalDurationSec: 34,
		Segments:         segments,
		Notes:            []string{"Segmen 00:40-00:58 dipakai ulang dari hot_take."},
	}
}

func TestWithMergedTimeline(t *testing.T) {
	merged := guide.WithMergedTimeline(sampleOutput().Segments)
	if merged[0].MergedStart != 0 || merged[0].MergedEnd != 16 {
		t.Fatalf("first segment timeline wrong: %+v", merged[0])
	}
	if merged[1].MergedStart != 16 || merged[1].MergedEnd != 34 {
		t.Fatalf("second segment timeline wrong: %+v", merged[1])
	}
}

func TestBuildGuideSections(t *testing.T) {
	md := guide.Build(sampleOutput(), "https://youtu.be/abc")
	for _, section := range []string{
		"# Panduan Editing - Single (Best)",
		"## Ringkasan",
		"## Timeline Video Merged",
		"## Rincian per Segmen",
		"## Paket Prompt Firefly",
		"https://youtu.be/abc",
		"dipakai ulang",
	} {
		if !strings.Contains(md, section) {
			t.Fatalf("guide missing %q:\n%s", section, md)
		}
	}
}

func TestFireflyPromptsTimedWithinSegments(t *testing.T) {
	merged := guide.WithMergedTimeline(sampleOutput().Segments)
	prompts := guide.FireflyPrompts(merged)
	if len(prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(prompts))
	}
	for i, p := range prompts {
		seg := merged[i]
		if p.InsertStart < seg.MergedStart || p.InsertEnd > seg.MergedEnd {
			t.Fatalf("insert %d outside segment: %+v vs %+v", i, p, seg)
		}
		if p.InsertEnd <= p.InsertStart {
			t.Fatalf("insert %d has no duration: %+v", i, p)
		}
	}
}

func TestClockFormats(t *testing.T) {
	if got := guide.FormatClock(95); got != "01:35" {
		t.Fatalf("FormatClock = %q", got)
	}
	if got := guide.FormatMsClock(61.254); got != "01:01.254" {
		t.Fatalf("FormatMsClock = %q", got)
	}
	if got := guide.FormatSRTClock(3675.5); got != "01:01:15,500" {
		t.Fatalf("FormatSRTClock = %q", got)
	}
	if got := guide.FormatClock(-5); got != "00:00" {
		t.Fatalf("negative clock = %q", got)
	}
}

func TestClipLine(t *testing.T) {
	long := strings.Repeat("kata ", 40)
	clipped := guide.ClipLine(long, 88)
	if len(clipped) > 91 {
		t.Fatalf("clip too long: %d", len(clipped))
	}
	if !strings.HasSuffix(clipped, "...") {
		t.Fatalf("missing ellipsis: %q", clipped)
	}
	if guide.ClipLine("pendek", 88) != "pendek" {
		t.Fatal("short line must pass through")
	}

	wide := strings.Repeat("世", 100)
	clipped = guide.ClipLine(wide, 88)
	if !utf8.ValidString(clipped) {
		t.Fatalf("clip split a rune: %q", clipped)
	}
	if utf8.RuneCountInString(clipped) != 91 {
		t.Fatalf("expected 88 runes plus ellipsis, got %d", utf8.RuneCountInString(clipped))
	}
}

func TestNormalizeScriptLines(t *testing.T) {
	lines := guide.NormalizeScriptLines([]string{"satu", "  ", "dua"})
	if len(lines) != 4 {
		t.Fatalf("expected padding to 4 lines, got %d: %v", len(lines), lines)
	}

	many := make([]string, 10)
	for i := range many {
		many[i] = "baris"
	}
	if got := guide.NormalizeScriptLines(many); len(got) != 7 {
		t.Fatalf("expected cap at 7, got %d", len(got))
	}
}

func TestBuildOverlayPlan(t *testing.T) {
	lines := []string{
		"Stop scroll. Ini penting.",
		"Kebanyakan orang salah paham.",
		"Langkah pertama: mulai kecil.",
		"Langkah kedua: konsisten.",
		"Simpan video ini.",
	}
	entries := guide.BuildOverlayPlan(lines, 60, highlights.VariantChecklist)
	if len(entries) == 0 {
		t.Fatal("expected overlay entries")
	}
	if entries[0].Tag != "HOOK" {
		t.Fatalf("first tag = %q", entries[0].Tag)
	}
	if entries[len(entries)-1].Tag != "CTA" {
		t.Fatalf("last tag = %q", entries[len(entries)-1].Tag)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Start < entries[i-1].End {
			t.Fatalf("entries overlap: %+v", entries)
		}
	}
	for _, e := range entries {
		if e.End-e.Start < 0.8 {
			t.Fatalf("entry too short: %+v", e)
		}
		if e.End > 60 {
			t.Fatalf("entry past clip end: %+v", e)
		}
	}
}

func TestSRTFormat(t *testing.T) {
	entries := guide.BuildOverlayPlan([]string{"a b c d", "e f g h", "i j k l", "m n o p"}, 40, "")
	srt := guide.SRT(entries)
	if !strings.Contains(srt, "1\n00:00:00,000 --> ") {
		t.Fatalf("unexpected srt header: %q", srt)
	}
	if strings.Count(srt, " --> ") != len(entries) {
		t.Fatalf("expected %d cues", len(entries))
	}
}

func TestCardLayout(t *testing.T) {
	entries := guide.BuildOverlayPlan([]string{"satu dua tiga empat", "lima enam tujuh", "delapan sembilan", "sepuluh"}, 60, "")
	card := guide.Card("Hot Take", 60, 90, 150, entries)
	if !strings.HasPrefix(card, "Hot Take | Final Duration: 60s\n") {
		t.Fatalf("card header wrong: %q", card)
	}
	if !strings.Contains(card, "Source range: 01:30 -> 02:30") {
		t.Fatalf("source range missing: %q", card)
	}
	if !strings.Contains(card, "Vertical mode: AUTO B/C") {
		t.Fatalf("mode line missing: %q", card)
	}
	if !strings.Contains(card, "Markers:") {
		t.Fatalf("markers missing: %q", card)
	}
}
