package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"comicpub/internal/config"
)

const userAgent = "comicpub/0.1.0"

// Service defines the notification surface exposed to the publish pipeline.
type Service interface {
	NotifyPublished(ctx context.Context, comicID, title string, imageCount int) error
	NotifyPushFailed(ctx context.Context, comicID string, err error) error
	NotifyError(ctx context.Context, err error, context string) error
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

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		published:    cfg.Notifications.Published,
		pushFailures: cfg.Notifications.PushFailures,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	published    bool
	pushFailures bool
	errors       bool
}

func (n *ntfyService) NotifyPublished(ctx context.Context, comicID, title string, imageCount int) error {
	if !n.published {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("🎨 Published %s: %s", strings.TrimSpace(comicID), title)
	if imageCount > 1 {
		message = fmt.Sprintf("%s (%d images)", message, imageCount)
	}
	data := payload{
		title:   "comicpub - Published",
		message: message,
		tags:    []string{"comicpub", "publish", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPushFailed(ctx context.Context, comicID string, err error) error {
	if !n.pushFailures {
		return nil
	}
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "comicpub - Push Failed",
		message:  fmt.Sprintf("⚠️ %s is in the catalog but not deployed: %s\nRun `comicpub push retry` once the remote is reachable.", strings.TrimSpace(comicID), reason),
		tags:     []string{"comicpub", "git", "push_failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "comicpub - Error",
		message:  builder.String(),
		tags:     []string{"comicpub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "comicpub - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"comicpub", "test"},
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

func (noopService) NotifyPublished(context.Context, string, string, int) error { return nil }
func (noopService) NotifyPushFailed(context.Context, string, error) error      { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
