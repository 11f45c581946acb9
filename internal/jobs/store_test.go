package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"clipsmith/internal/jobs"
	"clipsmith/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	payload := jobs.Payload{
		Phase:         jobs.PhaseAnalyze,
		URLNormalized: "https://youtu.be/abc",
		OutputMode:    "variants",
	}
	created, err := store.Create(context.Background(), "job-1", 7, 42, payload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != jobs.StatusQueued {
		t.Fatalf("new job status = %s", created.Status)
	}
	if created.Payload.URLNormalized != payload.URLNormalized {
		t.Fatalf("payload round trip failed: %+v", created.Payload)
	}

	fetched, err := store.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.ChatID != 42 || fetched.UserID != 7 {
		t.Fatalf("unexpected job: %+v", fetched)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for missing job, got %+v", job)
	}
}

func TestUpdatePreservesUnrelatedFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	payload := jobs.Payload{Phase: jobs.PhaseLegacy, URLNormalized: "https://youtu.be/abc", TargetLengthSec: 75}
	if _, err := store.Create(context.Background(), "job-2", 1, 2, payload); err != nil {
		t.Fatalf("Create: %v", err)
	}

	preview := json.RawMessage(`{"variants":{}}`)
	if _, err := store.Update(context.Background(), "job-2", func(job *jobs.Job) error {
		job.Status = jobs.StatusAwaitingApproval
		job.Preview = preview
		return nil
	}); err != nil {
		t.Fatalf("Update preview: %v", err)
	}

	updated, err := store.Update(context.Background(), "job-2", func(job *jobs.Job) error {
		job.Stage = "preview_ready"
		return nil
	})
	if err != nil {
		t.Fatalf("Update stage: %v", err)
	}
	if updated.Status != jobs.StatusAwaitingApproval {
		t.Fatalf("status lost during stage update: %s", updated.Status)
	}
	if !updated.HasPreview() {
		t.Fatal("preview lost during stage update")
	}
	if updated.Payload.TargetLengthSec != 75 {
		t.Fatalf("payload lost during update: %+v", updated.Payload)
	}
}

func TestUpdateErrorRollsBack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Create(context.Background(), "job-3", 1, 2, jobs.Payload{URLNormalized: "u"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	boom := errors.New("boom")
	_, err := store.Update(context.Background(), "job-3", func(job *jobs.Job) error {
		job.Status = jobs.StatusFailed
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	job, err := store.Get(context.Background(), "job-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusQueued {
		t.Fatalf("update was not rolled back: %s", job.Status)
	}
}

func TestFailInterrupted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Create(context.Background(), "job-4", 1, 2, jobs.Payload{URLNormalized: "u"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Update(context.Background(), "job-4", func(job *jobs.Job) error {
		job.Status = jobs.StatusRunning
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	count, err := store.FailInterrupted(context.Background())
	if err != nil {
		t.Fatalf("FailInterrupted: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 interrupted job, got %d", count)
	}

	job, _ := store.Get(context.Background(), "job-4")
	if job.Status != jobs.StatusFailed {
		t.Fatalf("interrupted job status = %s", job.Status)
	}
}

func TestLatestPointer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	got, err := store.Latest(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty pointer, got %q", got)
	}

	if err := store.SetLatest(context.Background(), 10, 20, "job-a"); err != nil {
		t.Fatalf("SetLatest: %v", err)
	}
	if err := store.SetLatest(context.Background(), 10, 20, "job-b"); err != nil {
		t.Fatalf("SetLatest overwrite: %v", err)
	}

	got, err = store.Latest(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != "job-b" {
		t.Fatalf("pointer = %q, want job-b", got)
	}
}

func TestListByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Create(context.Background(), id, 1, 2, jobs.Payload{URLNormalized: "u"}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	if _, err := store.Update(context.Background(), "b", func(job *jobs.Job) error {
		job.Status = jobs.StatusCompleted
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	queued, err := store.List(context.Background(), jobs.StatusQueued)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(queued) != 2 {
		t.Fatalf("expected 2 queued jobs, got %d", len(queued))
	}
	if queued[0].ID != "a" || queued[1].ID != "c" {
		t.Fatalf("unexpected order: %s, %s", queued[0].ID, queued[1].ID)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusQueued] != 2 || stats[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
