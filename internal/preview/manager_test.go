package preview_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/preview"
	"clipsmith/internal/services"
	"clipsmith/internal/testsupport"
	"clipsmith/internal/transcript"
)

type fakeSubmitter struct {
	store   *jobs.Store
	counter int
	failErr error
	observe func(ctx context.Context, id string)
}

func (f *fakeSubmitter) Submit(ctx context.Context, id string, userID, chatID int64, payload jobs.Payload) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.counter++
	if f.observe != nil {
		f.observe(ctx, id)
	}
	if _, err := f.store.Create(ctx, id, userID, chatID, payload); err != nil {
		return err
	}
	return nil
}

func previewSegments() []transcript.Segment {
	raw := make([]transcript.RawSegment, 0, 24)
	topics := []string{
		"fokus itu kunci utama biar kerja nggak buyar",
		"konsistensi harian mengalahkan motivasi sesaat",
		"caranya mulai dari kebiasaan paling kecil dulu",
		"target jelas bikin arah hidup lebih tenang",
	}
	for i := 0; i < 24; i++ {
		start := float64(i) * 5
		raw = append(raw, transcript.RawSegment{
			Start: start,
			End:   start + 5,
			Text:  fmt.Sprintf("%s bagian %d.", topics[i%len(topics)], i+1),
		})
	}
	return transcript.Normalize(raw)
}

func seedAnalysisJob(t *testing.T, store *jobs.Store) *jobs.Job {
	t.Helper()
	segments := previewSegments()
	short := highlights.BuildCandidates(segments)
	state, err := preview.BuildState(segments, short, nil)
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}
	data, err := preview.SaveState(state)
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	payload := jobs.Payload{Phase: jobs.PhaseAnalyze, URLNormalized: "https://youtu.be/abc", OutputMode: "variants"}
	if _, err := store.Create(context.Background(), "analysis-1", 7, 42, payload); err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err := store.Update(context.Background(), "analysis-1", func(job *jobs.Job) error {
		job.Status = jobs.StatusAwaitingApproval
		job.Stage = "awaiting_selection"
		job.Preview = data
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	return job
}

func newManager(t *testing.T) (*preview.Manager, *jobs.Store, *fakeSubmitter) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	submitter := &fakeSubmitter{store: store}
	return preview.NewManager(store, submitter, nil), store, submitter
}

func selectAll(t *testing.T, mgr *preview.Manager) {
	t.Helper()
	for _, key := range highlights.VariantOrder {
		if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, key, "A"); err != nil {
			t.Fatalf("Select %s: %v", key, err)
		}
	}
}

func TestBuildStateHasAllVariants(t *testing.T) {
	segments := previewSegments()
	short := highlights.BuildCandidates(segments)
	state, err := preview.BuildState(segments, short, nil)
	if err != nil {
		t.Fatalf("BuildState: %v", err)
	}
	if state.Status != preview.StatusAwaitingSelection {
		t.Fatalf("status = %q", state.Status)
	}
	if len(state.Variants) != 3 || len(state.Meta) != 3 {
		t.Fatalf("expected 3 variants: %+v", state.Meta)
	}
	for key, vs := range state.Variants {
		if len(vs.Pool) == 0 {
			t.Fatalf("variant %s has empty pool", key)
		}
		for _, slot := range preview.SlotKeys {
			if _, ok := vs.Options[slot]; !ok {
				t.Fatalf("variant %s missing option %s", key, slot)
			}
		}
		if vs.SelectedSlot != "" {
			t.Fatalf("variant %s pre-selected", key)
		}
	}
	if state.AllVariantsSelected() {
		t.Fatal("fresh state must not be fully selected")
	}
}

func TestSelectTracksCompletion(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	res, err := mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantHotTake, "B")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if res.AllSelected || res.PromptArmed {
		t.Fatalf("one choice must not complete the set: %+v", res)
	}

	if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantChecklist, "A"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	res, err = mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantStory, "C")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !res.AllSelected || !res.PromptArmed {
		t.Fatalf("final choice should arm the prompt: %+v", res)
	}

	// Re-selecting must not re-arm the one-shot prompt.
	res, err = mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantStory, "A")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !res.AllSelected || res.PromptArmed {
		t.Fatalf("prompt must fire once: %+v", res)
	}
}

func TestSelectRejectsWrongOwner(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	_, err := mgr.Select(context.Background(), "analysis-1", 999, 42, highlights.VariantHotTake, "A")
	if !errors.Is(err, services.ErrOwnership) {
		t.Fatalf("expected ownership error, got %v", err)
	}
}

func TestSelectRejectsUnknownSlot(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantHotTake, "D"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, "nope", "A"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegenerateClearsSelection(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantHotTake, "A"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	state, err := mgr.Regenerate(context.Background(), "analysis-1", 7, 42, highlights.VariantHotTake)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	vs := state.Variants[highlights.VariantHotTake]
	if vs.SelectedSlot != "" {
		t.Fatalf("selection should clear on regenerate: %q", vs.SelectedSlot)
	}
	if len(vs.Pool) > 3 && vs.RegenOffset == 0 {
		t.Fatalf("offset should advance: %+v", vs.RegenOffset)
	}
}

func TestRenderAllRequiresFullSelection(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	_, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42)
	if !errors.Is(err, services.ErrIncompleteSelection) {
		t.Fatalf("expected incomplete selection error, got %v", err)
	}
}

func TestRenderAllIdempotent(t *testing.T) {
	mgr, store, submitter := newManager(t)
	seedAnalysisJob(t, store)
	selectAll(t, mgr)

	first, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	second, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42)
	if err != nil {
		t.Fatalf("RenderAll again: %v", err)
	}
	if first != second {
		t.Fatalf("render job id changed: %q vs %q", first, second)
	}
	if submitter.counter != 1 {
		t.Fatalf("expected one submission, got %d", submitter.counter)
	}

	renderJob, err := store.Get(context.Background(), first)
	if err != nil || renderJob == nil {
		t.Fatalf("render job not stored: %v", err)
	}
	if renderJob.Payload.Phase != jobs.PhaseRender || renderJob.Payload.AnalysisJobID != "analysis-1" {
		t.Fatalf("unexpected render payload: %+v", renderJob.Payload)
	}
}

func TestRenderAllClaimCommitsBeforeSubmit(t *testing.T) {
	mgr, store, submitter := newManager(t)
	seedAnalysisJob(t, store)
	selectAll(t, mgr)

	// Any caller arriving once the submission runs must already see the
	// claimed id, so two racing render-all calls agree on one render job.
	var claimedDuringSubmit string
	submitter.observe = func(ctx context.Context, id string) {
		job, err := store.Get(ctx, "analysis-1")
		if err != nil || job == nil {
			t.Fatalf("load analysis during submit: %v", err)
		}
		state, err := preview.LoadState(job)
		if err != nil {
			t.Fatalf("LoadState: %v", err)
		}
		claimedDuringSubmit = state.RenderJobID
	}

	id, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if claimedDuringSubmit != id {
		t.Fatalf("render id not committed before submission: %q vs %q", claimedDuringSubmit, id)
	}
}

func TestRenderAllReleasesClaimOnSubmitFailure(t *testing.T) {
	mgr, store, submitter := newManager(t)
	seedAnalysisJob(t, store)
	selectAll(t, mgr)

	submitter.failErr = errors.New("queue is full")
	if _, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42); err == nil {
		t.Fatal("expected submission failure to surface")
	}

	job, err := store.Get(context.Background(), "analysis-1")
	if err != nil || job == nil {
		t.Fatalf("load analysis: %v", err)
	}
	state, err := preview.LoadState(job)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RenderJobID != "" || state.RenderStatus != "" {
		t.Fatalf("claim should release after failed submit: %+v", state)
	}

	submitter.failErr = nil
	if _, err := mgr.RenderAll(context.Background(), "analysis-1", 7, 42); err != nil {
		t.Fatalf("RenderAll after release: %v", err)
	}
}

func TestCancelIsCosmetic(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	state, err := mgr.Cancel(context.Background(), "analysis-1", 7, 42)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if state.CancelledAt == nil {
		t.Fatal("cancelledAt not set")
	}

	// Preview remains usable after cancel.
	if _, err := mgr.Select(context.Background(), "analysis-1", 7, 42, highlights.VariantHotTake, "A"); err != nil {
		t.Fatalf("Select after cancel: %v", err)
	}
}

func TestReanalyzeSubmitsAnalyzeJob(t *testing.T) {
	mgr, store, _ := newManager(t)
	seedAnalysisJob(t, store)

	newID, err := mgr.Reanalyze(context.Background(), "analysis-1", 7, 42)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	job, err := store.Get(context.Background(), newID)
	if err != nil || job == nil {
		t.Fatalf("new job not stored: %v", err)
	}
	if job.Payload.Phase != jobs.PhaseAnalyze || job.Payload.URLNormalized != "https://youtu.be/abc" {
		t.Fatalf("unexpected payload: %+v", job.Payload)
	}
}
