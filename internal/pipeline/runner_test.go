package pipeline_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipsmith/internal/config"
	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/pipeline"
	"clipsmith/internal/preview"
	"clipsmith/internal/testsupport"
)

// transcriptJSON is the fixture the python stub hands back: an Indonesian
// talking-head monologue long enough to produce windows for every variant.
const transcriptJSON = `[
{"start":0,"end":6,"text":"Stop dulu kalau lo merasa stuck dan capek dengan hasil konten yang gitu saja"},
{"start":6,"end":12,"text":"Masalahnya banyak orang nggak sadar kenapa video mereka gagal terus menerus"},
{"start":12,"end":18,"text":"Yang orang sering lupa adalah hook di detik pertama itu penting banget"},
{"start":18,"end":24,"text":"Pengen hasil yang beda berarti target lo harus jelas dari awal"},
{"start":24,"end":30,"text":"Caranya mulai dari satu ide besar lalu pecah jadi poin kecil"},
{"start":30,"end":36,"text":"Pertama tentukan pesan inti yang mau lo sampaikan ke penonton baru"},
{"start":36,"end":42,"text":"Kedua potong bagian yang bertele tele supaya ritme tetap terasa cepat"},
{"start":42,"end":48,"text":"Ketiga tutup dengan ajakan yang bikin orang pengen nonton sampai habis"},
{"start":48,"end":54,"text":"Kalau nggak dikerjain sekarang bakal makin parah dan makin susah nanti"},
{"start":54,"end":60,"text":"Serius ini fatal banget kalau lo biarkan channel jalan tanpa arah"},
{"start":60,"end":66,"text":"Cerita singkat dulu waktu itu gue juga bingung harus mulai dari mana"},
{"start":66,"end":72,"text":"Takut gagal itu wajar tapi jangan sampai bikin lo berhenti total"},
{"start":72,"end":78,"text":"Solusinya sederhana coba satu format dulu dan ukur hasilnya tiap minggu"},
{"start":78,"end":84,"text":"Biar konsisten bikin jadwal produksi yang masuk akal buat lo sendiri"},
{"start":84,"end":90,"text":"Impian besar butuh langkah kecil yang lo ulang setiap hari"},
{"start":90,"end":96,"text":"Mau bukti lihat kreator yang naik pasti mulai dari satu niche"},
{"start":96,"end":102,"text":"Jadi mulai hari ini pilih satu masalah dan bahas sampai tuntas"},
{"start":102,"end":108,"text":"Supaya makin jelas tulis dulu skrip pendek sebelum rekam video baru"}
]`

// ytdlpStub materializes the file the -o template names.
const ytdlpStub = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out=$a; fi
  prev=$a
done
case "$out" in
  *audio*) out=$(printf '%s' "$out" | sed 's/%(ext)s/m4a/') ;;
  *) out=$(printf '%s' "$out" | sed 's/%(ext)s/mp4/') ;;
esac
: > "$out"
exit 0
`

// ffmpegStub creates the output file, except for the frame-sampling call
// that streams to stdout; producing nothing there pushes the classifier
// onto its centered-crop fallback.
const ffmpegStub = `#!/bin/sh
for last; do :; done
if [ "$last" = "-" ]; then exit 0; fi
: > "$last"
exit 0
`

const ffprobeStub = `#!/bin/sh
printf '%s' '{"format":{"duration":"120.0"},"streams":[{"codec_type":"video","width":1920,"height":1080},{"codec_type":"audio"}]}'
exit 0
`

const pythonStubTemplate = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then out=$a; fi
  prev=$a
done
if [ -n "$out" ]; then
cat > "$out" <<'JSON'
%s
JSON
fi
exit 0
`

func writeStub(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func newTestEnv(t *testing.T) (*config.Config, *jobs.Store, *pipeline.Runner) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	writeStub(t, binDir, "yt-dlp", ytdlpStub)
	writeStub(t, binDir, "ffmpeg", ffmpegStub)
	writeStub(t, binDir, "ffprobe", ffprobeStub)
	writeStub(t, binDir, "python3", fmt.Sprintf(pythonStubTemplate, transcriptJSON))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	store := testsupport.MustOpenStore(t, cfg)
	return cfg, store, pipeline.NewRunner(cfg, store, nil, logging.NewNop())
}

func decodeArtifacts(t *testing.T, job *jobs.Job) []pipeline.OutputArtifact {
	t.Helper()
	var artifacts []pipeline.OutputArtifact
	if err := json.Unmarshal(job.Outputs, &artifacts); err != nil {
		t.Fatalf("decode outputs: %v", err)
	}
	return artifacts
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact at %s: %v", path, err)
	}
}

func TestLegacyPhaseSingleOutput(t *testing.T) {
	_, store, runner := newTestEnv(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "legacy-1", jobs.Payload{URLNormalized: "https://example.com/v"})
	if err := runner.Run(ctx, "legacy-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, err := store.Get(ctx, "legacy-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed status, got %q (error %q)", job.Status, job.ErrorMessage)
	}
	if job.Stage != pipeline.StageCompleted {
		t.Fatalf("expected completed stage, got %q", job.Stage)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}

	artifacts := decodeArtifacts(t, job)
	if len(artifacts) != 1 {
		t.Fatalf("expected one artifact, got %d", len(artifacts))
	}
	if artifacts[0].Key != "best" {
		t.Fatalf("expected best output, got %q", artifacts[0].Key)
	}
	requireFile(t, artifacts[0].MergedPath)
	requireFile(t, artifacts[0].OverlayPath)
	requireFile(t, artifacts[0].CardPath)

	guideText, err := os.ReadFile(artifacts[0].GuidePath)
	if err != nil {
		t.Fatalf("read guide: %v", err)
	}
	if !strings.Contains(string(guideText), "Panduan Editing") {
		t.Fatal("expected guide header in editing guide")
	}

	latest, err := store.Latest(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != "legacy-1" {
		t.Fatalf("expected latest pointer legacy-1, got %q", latest)
	}
}

func TestLegacyPhaseVariantOutputs(t *testing.T) {
	_, store, runner := newTestEnv(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "legacy-2", jobs.Payload{
		URLNormalized: "https://example.com/v",
		OutputMode:    "variants",
	})
	if err := runner.Run(ctx, "legacy-2"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, err := store.Get(ctx, "legacy-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed status, got %q (error %q)", job.Status, job.ErrorMessage)
	}

	artifacts := decodeArtifacts(t, job)
	if len(artifacts) != len(highlights.VariantOrder) {
		t.Fatalf("expected %d artifacts, got %d", len(highlights.VariantOrder), len(artifacts))
	}
	for i, key := range highlights.VariantOrder {
		if artifacts[i].Key != key {
			t.Fatalf("artifact %d: expected key %q, got %q", i, key, artifacts[i].Key)
		}
		requireFile(t, artifacts[i].MergedPath)
	}
}

func TestAnalyzeSelectRenderFlow(t *testing.T) {
	_, store, runner := newTestEnv(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "analysis-1", jobs.Payload{
		Phase:         jobs.PhaseAnalyze,
		URLNormalized: "https://example.com/v",
	})
	if err := runner.Run(ctx, "analysis-1"); err != nil {
		t.Fatalf("analyze run: %v", err)
	}

	analysis, err := store.Get(ctx, "analysis-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if analysis.Status != jobs.StatusAwaitingApproval {
		t.Fatalf("expected awaiting_approval, got %q (error %q)", analysis.Status, analysis.ErrorMessage)
	}
	if analysis.Stage != pipeline.StagePreviewReady {
		t.Fatalf("expected preview_ready stage, got %q", analysis.Stage)
	}
	if !analysis.HasPreview() {
		t.Fatal("expected a persisted preview")
	}

	submitter := &storeSubmitter{store: store}
	manager := preview.NewManager(store, submitter, logging.NewNop())
	for _, key := range highlights.VariantOrder {
		if _, err := manager.Select(ctx, "analysis-1", 1, 1, key, "A"); err != nil {
			t.Fatalf("select %s: %v", key, err)
		}
	}

	renderID, err := manager.RenderAll(ctx, "analysis-1", 1, 1)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(submitter.payloads) != 1 {
		t.Fatalf("expected one submitted render job, got %d", len(submitter.payloads))
	}
	if submitter.payloads[0].Phase != jobs.PhaseRender {
		t.Fatalf("expected render payload, got %q", submitter.payloads[0].Phase)
	}
	if submitter.payloads[0].AnalysisJobID != "analysis-1" {
		t.Fatalf("expected analysis job reference, got %q", submitter.payloads[0].AnalysisJobID)
	}

	if err := runner.Run(ctx, renderID); err != nil {
		t.Fatalf("render run: %v", err)
	}

	render, err := store.Get(ctx, renderID)
	if err != nil {
		t.Fatalf("Get render: %v", err)
	}
	if render.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed render, got %q (error %q)", render.Status, render.ErrorMessage)
	}
	artifacts := decodeArtifacts(t, render)
	if len(artifacts) != len(highlights.VariantOrder) {
		t.Fatalf("expected %d artifacts, got %d", len(highlights.VariantOrder), len(artifacts))
	}
	for _, artifact := range artifacts {
		if !strings.Contains(artifact.StrategyName, "(Selected A)") {
			t.Fatalf("expected slot choice in strategy name, got %q", artifact.StrategyName)
		}
		requireFile(t, artifact.MergedPath)
	}

	analysis, err = store.Get(ctx, "analysis-1")
	if err != nil {
		t.Fatalf("Get analysis: %v", err)
	}
	state, err := preview.LoadState(analysis)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if state.RenderJobID != renderID {
		t.Fatalf("expected render job %q on analysis preview, got %q", renderID, state.RenderJobID)
	}
	if state.RenderStatus != "completed" {
		t.Fatalf("expected completed render status, got %q", state.RenderStatus)
	}
	if state.RenderCompletedAt == nil {
		t.Fatal("expected RenderCompletedAt to be set")
	}
}

func TestRunFailsJobOnDownloadError(t *testing.T) {
	cfg, store, runner := newTestEnv(t)
	ctx := context.Background()

	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	writeStub(t, binDir, "yt-dlp", "#!/bin/sh\necho 'network unreachable' >&2\nexit 1\n")

	testsupport.NewJob(t, store, "legacy-3", jobs.Payload{URLNormalized: "https://example.com/v"})
	if err := runner.Run(ctx, "legacy-3"); err == nil {
		t.Fatal("expected run to surface the download failure")
	}

	job, err := store.Get(ctx, "legacy-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed status, got %q", job.Status)
	}
	if job.Stage != pipeline.StageFailed {
		t.Fatalf("expected failed stage, got %q", job.Stage)
	}
	if job.ErrorMessage == "" {
		t.Fatal("expected a persisted error message")
	}
	if job.CompletedAt == nil {
		t.Fatal("expected CompletedAt on the failed job")
	}
}

func TestRunRejectsVideolessSource(t *testing.T) {
	cfg, store, runner := newTestEnv(t)
	ctx := context.Background()

	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	writeStub(t, binDir, "ffprobe", `#!/bin/sh
printf '%s' '{"format":{"duration":"120.0"},"streams":[{"codec_type":"audio"}]}'
exit 0
`)

	testsupport.NewJob(t, store, "legacy-4", jobs.Payload{URLNormalized: "https://example.com/v"})
	if err := runner.Run(ctx, "legacy-4"); err == nil {
		t.Fatal("expected run to reject a source without a video stream")
	}

	job, err := store.Get(ctx, "legacy-4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("expected failed status, got %q", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "no video stream") {
		t.Fatalf("expected a video-stream error, got %q", job.ErrorMessage)
	}
}

type storeSubmitter struct {
	store    *jobs.Store
	payloads []jobs.Payload
}

func (s *storeSubmitter) Submit(ctx context.Context, id string, userID, chatID int64, payload jobs.Payload) error {
	s.payloads = append(s.payloads, payload)
	if _, err := s.store.Create(ctx, id, userID, chatID, payload); err != nil {
		return err
	}
	return nil
}
