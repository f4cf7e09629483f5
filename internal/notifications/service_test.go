package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"comicpub/internal/config"
	"comicpub/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte("upstream says no"))
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func configFor(url string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeout = 2
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPublished(context.Background(), "comic-001", "Example", 1); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "published",
			send: func(s notifications.Service) error {
				return s.NotifyPublished(context.Background(), "comic-008", "摸鱼翻车现场", 3)
			},
			expectTitle:   "comicpub - Published",
			expectMessage: "🎨 Published comic-008: 摸鱼翻车现场 (3 images)",
			expectTags:    "comicpub,publish,completed",
		},
		{
			name: "push failed",
			send: func(s notifications.Service) error {
				return s.NotifyPushFailed(context.Background(), "comic-002", errors.New("git push failed"))
			},
			expectTitle:    "comicpub - Push Failed",
			expectMessage:  "⚠️ comic-002 is in the catalog but not deployed: git push failed",
			expectTags:     "comicpub,git,push_failed",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("boom"), "publish")
			},
			expectTitle:    "comicpub - Error",
			expectMessage:  "❌ Error with publish: boom",
			expectTags:     "comicpub,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "comicpub - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "comicpub,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, captured := newNtfyServer(t, http.StatusOK)
			svc := notifications.NewService(configFor(server.URL))
			if err := tt.send(svc); err != nil {
				t.Fatalf("send: %v", err)
			}
			if len(*captured) != 1 {
				t.Fatalf("expected 1 request, got %d", len(*captured))
			}
			got := (*captured)[0]
			if got.title != tt.expectTitle {
				t.Errorf("title = %q, want %q", got.title, tt.expectTitle)
			}
			if !strings.HasPrefix(got.body, tt.expectMessage) {
				t.Errorf("body = %q, want prefix %q", got.body, tt.expectMessage)
			}
			if got.tags != tt.expectTags {
				t.Errorf("tags = %q, want %q", got.tags, tt.expectTags)
			}
			if got.priority != tt.expectPriority {
				t.Errorf("priority = %q, want %q", got.priority, tt.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server, captured := newNtfyServer(t, http.StatusOK)
	cfg := configFor(server.URL)
	cfg.Notifications.Published = false
	cfg.Notifications.PushFailures = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(cfg)

	ctx := context.Background()
	_ = svc.NotifyPublished(ctx, "comic-001", "t", 1)
	_ = svc.NotifyPushFailed(ctx, "comic-001", errors.New("x"))
	_ = svc.NotifyError(ctx, errors.New("x"), "publish")
	if len(*captured) != 0 {
		t.Fatalf("expected toggled-off events to be silent, got %d requests", len(*captured))
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatal(err)
	}
	if len(*captured) != 1 {
		t.Fatal("test notification should always send")
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusTooManyRequests)
	svc := notifications.NewService(configFor(server.URL))
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "upstream says no") {
		t.Fatalf("unexpected error %v", err)
	}
}
