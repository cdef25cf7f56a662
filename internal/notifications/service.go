package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sidelines/internal/config"
)

const userAgent = "Sidelines-Go/0.1.0"

// Event names a notification type.
type Event string

const (
	EventJobSucceeded     Event = "job_succeeded"
	EventJobFailed        Event = "job_failed"
	EventJobCanceled      Event = "job_canceled"
	EventTestNotification Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		success:  cfg.Notifications.Success,
		failure:  cfg.Notifications.Failure,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	success  bool
	failure  bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	name := payload.text("name")
	if name == "" {
		name = payload.text("file")
	}
	switch event {
	case EventJobSucceeded:
		if !n.success {
			return message{}, false
		}
		body := fmt.Sprintf("🎙️ Commentary ready: %s", name)
		if saved := payload.text("saved"); saved != "" {
			body += "\nSaved: " + saved
		}
		return message{
			title: "Sidelines - Commentary Ready",
			body:  body,
			tags:  []string{"sidelines", "commentary", "completed"},
		}, true
	case EventJobFailed:
		if !n.failure {
			return message{}, false
		}
		kind := payload.text("kind")
		if kind == "" {
			kind = "unknown"
		}
		return message{
			title:    "Sidelines - Failed",
			body:     fmt.Sprintf("❌ %s failed (%s): %s", name, kind, payload.text("error")),
			tags:     []string{"sidelines", "error", "alert"},
			priority: "high",
		}, true
	case EventTestNotification:
		return message{
			title: "Sidelines - Test",
			body:  "🧪 Test notification from Sidelines",
			tags:  []string{"sidelines", "test"},
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
