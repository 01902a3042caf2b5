package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"inkframe/internal/config"
)

const userAgent = "inkframe/0.1.0"

// Event names a notification type.
type Event string

const (
	// EventStarted fires once the frame daemon is up.
	EventStarted Event = "started"
	// EventCast fires when an image is cast from the remote.
	EventCast Event = "cast"
	// EventError fires when the panel fails and the daemon stops.
	EventError Event = "error"
	// EventTest is sent by `inkframe notify test`.
	EventTest Event = "test"
)

// Payload carries event fields. Known keys: "images", "dir", "filename",
// "error", "context", "bind".
type Payload map[string]any

// Service publishes events.
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
		enabled: map[Event]bool{
			EventStarted: cfg.Notifications.Started,
			EventCast:    cfg.Notifications.Cast,
			EventError:   cfg.Notifications.Errors,
			EventTest:    true,
		},
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
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventStarted:
		body := "🖼️ Frame started"
		if images, ok := payload["images"].(int); ok {
			body = fmt.Sprintf("🖼️ Frame started with %d images", images)
		}
		if dir := payloadString(payload, "dir"); dir != "" {
			body += "\nLibrary: " + dir
		}
		if bind := payloadString(payload, "bind"); bind != "" {
			body += "\nRemote: http://" + bind
		}
		return message{
			title: "inkframe - Started",
			body:  body,
			tags:  []string{"inkframe", "started"},
		}, true
	case EventCast:
		name := payloadString(payload, "filename")
		if name == "" {
			name = "image"
		}
		return message{
			title: "inkframe - Cast",
			body:  fmt.Sprintf("📤 Casting: %s", name),
			tags:  []string{"inkframe", "cast"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := payloadString(payload, "error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "inkframe - Error",
			body:     builder.String(),
			tags:     []string{"inkframe", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "inkframe - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"inkframe", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}

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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
