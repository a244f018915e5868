package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fitflow/internal/config"
)

const userAgent = "Fitflow-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyConversionCompleted(ctx context.Context, inputName string, rows int, elapsed time.Duration) error
	NotifyConversionFailed(ctx context.Context, inputName string, attempts int, cause error) error
	NotifyDaemonStarted(ctx context.Context, inboxDir string) error
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
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		sendConversion: cfg.Notifications.Conversions,
		sendErrors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	sendConversion bool
	sendErrors     bool
}

func (n *ntfyService) NotifyConversionCompleted(ctx context.Context, inputName string, rows int, elapsed time.Duration) error {
	if !n.sendConversion {
		return nil
	}
	inputName = strings.TrimSpace(inputName)
	elapsed = elapsed.Round(time.Millisecond)
	data := payload{
		title:   "Fitflow - Converted",
		message: fmt.Sprintf("Converted %s: %d rows in %s", inputName, rows, elapsed),
		tags:    []string{"fitflow", "convert", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyConversionFailed(ctx context.Context, inputName string, attempts int, cause error) error {
	if !n.sendErrors {
		return nil
	}
	inputName = strings.TrimSpace(inputName)
	reason := "unknown"
	if cause != nil {
		reason = strings.TrimSpace(cause.Error())
	}
	data := payload{
		title:    "Fitflow - Conversion Failed",
		message:  fmt.Sprintf("Failed to convert %s after %d attempt(s): %s", inputName, attempts, reason),
		tags:     []string{"fitflow", "convert", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, inboxDir string) error {
	data := payload{
		title:   "Fitflow - Watching",
		message: fmt.Sprintf("Daemon started, watching %s", strings.TrimSpace(inboxDir)),
		tags:    []string{"fitflow", "daemon", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Fitflow - Test",
		message:  "Notification system test",
		tags:     []string{"fitflow", "test"},
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

func (noopService) NotifyConversionCompleted(context.Context, string, int, time.Duration) error {
	return nil
}
func (noopService) NotifyConversionFailed(context.Context, string, int, error) error { return nil }
func (noopService) NotifyDaemonStarted(context.Context, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
