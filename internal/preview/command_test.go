package preview_test

import (
	"testing"

	"clipsmith/internal/preview"
)

func TestCommandRoundTrip(t *testing.T) {
	cases := []preview.Command{
		{Kind: preview.KindSelect, JobID: "job-1", VariantKey: "hot_take", Slot: "A"},
		{Kind: preview.KindRegenerate, JobID: "job-1", VariantKey: "story"},
		{Kind: preview.KindRenderAll, JobID: "job-2"},
		{Kind: preview.KindCancel, JobID: "job-3"},
		{Kind: preview.KindReanalyze, JobID: "job-4"},
	}
	for _, want := range cases {
		wire := want.Encode()
		got, ok := preview.Parse(wire)
		if !ok {
			t.Fatalf("Parse(%q) failed", wire)
		}
		if got != want {
			t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
		}
	}
}

func TestCommandWireFormat(t *testing.T) {
	cmd := preview.Command{Kind: preview.KindSelect, JobID: "abc", VariantKey: "checklist", Slot: "B"}
	if wire := cmd.Encode(); wire != "mcj:abc:s:checklist:B" {
		t.Fatalf("unexpected wire form %q", wire)
	}
	cmd = preview.Command{Kind: preview.KindRenderAll, JobID: "abc"}
	if wire := cmd.Encode(); wire != "mcj:abc:r" {
		t.Fatalf("unexpected wire form %q", wire)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	malformed := []string{
		"",
		"mcj",
		"mcj:job",
		"mcj::s:hot_take:A",
		"mcj:job:z",
		"mcj:job:s:hot_take",
		"mcj:job:s:hot_take:",
		"mcj:job:g",
		"mcj:job:r:extra",
		"other:job:r",
	}
	for _, wire := range malformed {
		if _, ok := preview.Parse(wire); ok {
			t.Fatalf("Parse(%q) should fail", wire)
		}
	}
}
