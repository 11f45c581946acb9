package guide

import (
	"fmt"
	"math"
	"strings"

	"clipsmith/internal/highlights"
)

// MergedSegment places one selected segment on the merged output timeline.
type MergedSegment struct {
	highlights.Scored
	MergedStart float64
	MergedEnd   float64
}

// WithMergedTimeline lays the segments end to end and records where each one
// lands in the merged video.
func WithMergedTimeline(segments []highlights.Scored) []MergedSegment {
	merged := make([]MergedSegment, 0, len(segments))
	cursor := 0.0
	for _, seg := range segments {
		dur := math.Max(0.4, seg.End-seg.Start)
		merged = append(merged, MergedSegment{
			Scored:      seg,
			MergedStart: cursor,
			MergedEnd:   cursor + dur,
		})
		cursor += dur
	}
	return merged
}

// Build renders the editing guide markdown for one assembled output.
func Build(output highlights.Output, sourceURL string) string {
	merged := WithMergedTimeline(output.Segments)
	var b strings.Builder

	fmt.Fprintf(&b, "# Panduan Editing - %s\n\n", output.StrategyName)

	b.WriteString("## Ringkasan\n\n")
	fmt.Fprintf(&b, "- Sumber: %s\n", sourceURL)
	fmt.Fprintf(&b, "- Target durasi: %s\n", FormatClock(output.TargetLengthSec))
	fmt.Fprintf(&b, "- Durasi akhir: %s\n", FormatClock(output.TotalDurationSec))
	fmt.Fprintf(&b, "- Mode: %s\n", output.Mode)
	fmt.Fprintf(&b, "- Strategi: %s\n", output.StrategyName)
	for _, note := range output.Notes {
		fmt.Fprintf(&b, "- Catatan: %s\n", note)
	}
	b.WriteString("\n")

	b.WriteString("## Timeline Video Merged\n\n")
	for _, seg := range merged {
		fmt.Fprintf(&b, "- %s  [%s] %s\n",
			FormatClock(seg.MergedStart), seg.Label, ClipLine(firstStrongSentence(seg.Text), 90))
	}
	b.WriteString("\n")

	b.WriteString("## Rincian per Segmen\n\n")
	for i, seg := range merged {
		keywords := highlights.ExtractKeywords(seg.Text, 3)
		fmt.Fprintf(&b, "### Segmen %d (%s - %s) [%s]\n\n",
			i+1, FormatClock(seg.MergedStart), FormatClock(seg.MergedEnd), seg.Label)
		fmt.Fprintf(&b, "- Hook: %s\n", ClipLine(firstStrongSentence(seg.Text), 90))
		fmt.Fprintf(&b, "- Inti: %s\n", ClipLine(firstSentences(seg.Text, 2), 140))
		fmt.Fprintf(&b, "- Payoff: %s\n", ClipLine(lastSentence(seg.Text), 90))
		fmt.Fprintf(&b, "- Overlay headline: %s\n", headline(keywords))
		fmt.Fprintf(&b, "- Keyword pops: %s\n", strings.Join(keywords, ", "))
		fmt.Fprintf(&b, "- Motion: %s\n\n", motionNote(seg.Label))
	}

	b.WriteString("## Paket Prompt Firefly\n\n")
	for i, prompt := range FireflyPrompts(merged) {
		fmt.Fprintf(&b, "### Insert %d (%s - %s)\n\n", i+1,
			FormatMsClock(prompt.InsertStart), FormatMsClock(prompt.InsertEnd))
		fmt.Fprintf(&b, "- Tujuan: %s\n", prompt.Purpose)
		fmt.Fprintf(&b, "- Text to Image: %s\n", prompt.TextToImage)
		fmt.Fprintf(&b, "- Image to Video: %s\n", prompt.ImageToVideo)
		fmt.Fprintf(&b, "- Negative: %s\n\n", prompt.Negative)
	}

	return b.String()
}

// FireflyPrompt is one suggested generated b-roll insert for the merged
// timeline.
type FireflyPrompt struct {
	InsertStart  float64
	InsertEnd    float64
	Purpose      string
	TextToImage  string
	ImageToVideo string
	Negative     string
}

// FireflyPrompts proposes between two and four insert shots, one per leading
// segment.
func FireflyPrompts(merged []MergedSegment) []FireflyPrompt {
	limit := len(merged)
	if limit > 4 {
		limit = 4
	}
	prompts := make([]FireflyPrompt, 0, limit)
	for _, seg := range merged[:limit] {
		dur := seg.MergedEnd - seg.MergedStart
		insertStart := seg.MergedStart + math.Min(1.2, 0.2*dur)
		insertEnd := math.Min(seg.MergedEnd, insertStart+math.Min(3, 0.35*dur+0.9))
		topic := highlights.TopicLabel(seg.Text)
		prompts = append(prompts, FireflyPrompt{
			InsertStart:  insertStart,
			InsertEnd:    insertEnd,
			Purpose:      purposeByLabel(seg.Label),
			TextToImage:  textToImagePrompt(seg.Label, topic),
			ImageToVideo: imageToVideoPrompt(seg.Label),
			Negative:     "text, watermark, logo, distorted hands, extra fingers, low quality",
		})
	}
	return prompts
}

func purposeByLabel(label highlights.Label) string {
	switch label {
	case highlights.LabelPain:
		return "Visualisasi rasa frustrasi supaya penonton merasa dimengerti"
	case highlights.LabelDesire:
		return "Gambaran hasil yang diinginkan untuk memperkuat motivasi"
	case highlights.LabelSolution:
		return "Ilustrasi langkah konkret yang sedang dijelaskan"
	default:
		return "Pembuka visual yang menahan perhatian di detik pertama"
	}
}

func textToImagePrompt(label highlights.Label, topic string) string {
	switch label {
	case highlights.LabelPain:
		return fmt.Sprintf("Cinematic close-up of a tired young professional at a cluttered desk at night, theme: %s, moody blue tones, shallow depth of field", topic)
	case highlights.LabelDesire:
		return fmt.Sprintf("Warm sunrise over a city skyline seen from a rooftop, hopeful mood, theme: %s, golden hour, cinematic wide shot", topic)
	case highlights.LabelSolution:
		return fmt.Sprintf("Top-down shot of hands writing a simple checklist in a notebook, theme: %s, clean minimal desk, soft natural light", topic)
	default:
		return fmt.Sprintf("Dramatic portrait with a bold spotlight cutting through darkness, theme: %s, high contrast, cinematic", topic)
	}
}

func imageToVideoPrompt(label highlights.Label) string {
	switch label {
	case highlights.LabelSolution:
		return "Slow push-in on the notebook while the hand keeps writing, subtle camera drift"
	case highlights.LabelDesire:
		return "Gentle dolly forward as sunlight intensifies, light flares sweeping across frame"
	default:
		return "Slow zoom toward the subject with a slight handheld sway"
	}
}

func motionNote(label highlights.Label) string {
	switch label {
	case highlights.LabelSolution:
		return "Cut cepat antar poin, tambah zoom ringan di tiap langkah"
	case highlights.LabelPain:
		return "Tahan shot lebih lama, biarkan jeda bicara terasa"
	default:
		return "Zoom in pelan ke wajah saat kalimat kunci"
	}
}

func headline(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "fokus" || kw == "aksi" || kw == "hasil" {
			continue
		}
		parts = append(parts, strings.ToUpper(kw[:1])+kw[1:])
	}
	if len(parts) == 0 {
		return "Inti Pesan"
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, " ")
}

// firstStrongSentence prefers the first sentence that is not a filler-only
// opener.
func firstStrongSentence(text string) string {
	sentences := splitSentences(text)
	for _, s := range sentences {
		if len(strings.Fields(s)) >= 4 {
			return s
		}
	}
	if len(sentences) > 0 {
		return sentences[0]
	}
	return strings.TrimSpace(text)
}

func firstSentences(text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.Join(sentences, " ")
}

func lastSentence(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	return sentences[len(sentences)-1]
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range strings.TrimSpace(text) {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
