package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipsmith/internal/config"
	"clipsmith/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPreviewReady(context.Background(), "job-1", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "preview ready",
			send: func(svc notifications.Service) error {
				return svc.NotifyPreviewReady(context.Background(), "job-42", 3)
			},
			expectTitle:   "Magic Clips - Preview Ready",
			expectMessage: "Preview ready for job job-42 with 3 variants awaiting approval",
			expectTags:    "clipsmith,preview,ready",
		},
		{
			name: "render queued",
			send: func(svc notifications.Service) error {
				return svc.NotifyRenderQueued(context.Background(), "job-42", "render-7")
			},
			expectTitle:   "Magic Clips - Render Queued",
			expectMessage: "Render render-7 queued for job job-42",
			expectTags:    "clipsmith,render,queued",
		},
		{
			name: "job completed",
			send: func(svc notifications.Service) error {
				return svc.NotifyJobCompleted(context.Background(), "job-42", 3)
			},
			expectTitle:    "Magic Clips - Complete",
			expectMessage:  "Job job-42 finished with 3 rendered outputs",
			expectTags:     "clipsmith,job,completed",
			expectPriority: "high",
		},
		{
			name: "job failed",
			send: func(svc notifications.Service) error {
				return svc.NotifyJobFailed(context.Background(), "job-42", errors.New("download stalled"))
			},
			expectTitle:    "Magic Clips - Failed",
			expectMessage:  "Job job-42 failed: download stalled",
			expectTags:     "clipsmith,job,failed",
			expectPriority: "high",
		},
		{
			name: "tooling missing",
			send: func(svc notifications.Service) error {
				return svc.NotifyToolingMissing(context.Background(), []string{"ffmpeg", "yt-dlp"})
			},
			expectTitle:    "Magic Clips - Tooling Missing",
			expectMessage:  "Required tools unavailable: ffmpeg, yt-dlp",
			expectTags:     "clipsmith,tooling,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			send: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Magic Clips - Test",
			expectMessage:  "Notification system test",
			expectTags:     "clipsmith,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.send(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceSkipsEmptyToolingList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for empty tooling list: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyToolingMissing(context.Background(), []string{"", "  "}); err != nil {
		t.Fatalf("expected no error for empty tooling list, got %v", err)
	}
}

func TestNtfyServiceSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
