package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipsmith/internal/config"
)

const userAgent = "Clipsmith-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyPreviewReady(ctx context.Context, jobID string, variants int) error
	NotifyRenderQueued(ctx context.Context, jobID, renderJobID string) error
	NotifyJobCompleted(ctx context.Context, jobID string, outputs int) error
	NotifyJobFailed(ctx context.Context, jobID string, err error) error
	NotifyToolingMissing(ctx context.Context, missing []string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPreviewReady(ctx context.Context, jobID string, variants int) error {
	jobID = strings.TrimSpace(jobID)
	data := payload{
		title:   "Magic Clips - Preview Ready",
		message: fmt.Sprintf("Preview ready for job %s with %d variants awaiting approval", jobID, variants),
		tags:    []string{"clipsmith", "preview", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRenderQueued(ctx context.Context, jobID, renderJobID string) error {
	jobID = strings.TrimSpace(jobID)
	renderJobID = strings.TrimSpace(renderJobID)
	data := payload{
		title:   "Magic Clips - Render Queued",
		message: fmt.Sprintf("Render %s queued for job %s", renderJobID, jobID),
		tags:    []string{"clipsmith", "render", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID string, outputs int) error {
	jobID = strings.TrimSpace(jobID)
	data := payload{
		title:    "Magic Clips - Complete",
		message:  fmt.Sprintf("Job %s finished with %d rendered outputs", jobID, outputs),
		tags:     []string{"clipsmith", "job", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID string, err error) error {
	jobID = strings.TrimSpace(jobID)
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Magic Clips - Failed",
		message:  fmt.Sprintf("Job %s failed: %s", jobID, detail),
		tags:     []string{"clipsmith", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyToolingMissing(ctx context.Context, missing []string) error {
	names := make([]string, 0, len(missing))
	for _, name := range missing {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	data := payload{
		title:    "Magic Clips - Tooling Missing",
		message:  fmt.Sprintf("Required tools unavailable: %s", strings.Join(names, ", ")),
		tags:     []string{"clipsmith", "tooling", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Magic Clips - Test",
		message:  "Notification system test",
		tags:     []string{"clipsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPreviewReady(context.Context, string, int) error { return nil }
func (noopService) NotifyRenderQueued(context.Context, string, string) error { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, int) error { return nil }
func (noopService) NotifyJobFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyToolingMissing(context.Context, []string) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }
