package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hirepipe/internal/config"
	"hirepipe/internal/services"
)

const userAgent = "hirepipe/0.1.0"

// Event identifies a notification kind.
type Event string

const (
	EventApplicationReceived Event = "application_received"
	EventStageProgression    Event = "stage_progression"
	EventRejection           Event = "rejection"
	EventSelection           Event = "selection"
	EventTest                Event = "test"
)

// Payload carries event details. Recognised keys: email, candidateName,
// jobTitle, companyName, nextStage, totalStages, atStage.
type Payload map[string]any

// Service publishes notifications.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a relay-backed notification service. When no relay URL is
// configured a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	endpoint := strings.TrimSpace(cfg.Notifications.RelayURL)
	if endpoint == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.Notifications.RatePerSecond > 0 {
		limit = rate.Limit(cfg.Notifications.RatePerSecond)
	}
	burst := cfg.Notifications.Burst
	if burst <= 0 {
		burst = 1
	}

	return &relayService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, burst),
		enabled: map[Event]bool{
			EventApplicationReceived: cfg.Notifications.ApplicationReceived,
			EventStageProgression:    cfg.Notifications.StageProgression,
			EventRejection:           cfg.Notifications.Rejection,
			EventSelection:           cfg.Notifications.Selection,
			EventTest:                true,
		},
	}
}

type message struct {
	recipient string
	title     string
	body      string
	tags      []string
	priority  string
}

type relayService struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	enabled  map[Event]bool
}

func (r *relayService) Publish(ctx context.Context, event Event, payload Payload) error {
	if r == nil || !r.enabled[event] {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	if event != EventTest && msg.recipient == "" {
		return services.Wrap(services.ErrNotification, "notifications", string(event), "candidate has no email address", nil)
	}
	if err := r.send(ctx, msg); err != nil {
		return services.Wrap(services.ErrNotification, "notifications", string(event), msg.recipient, err)
	}
	return nil
}

func render(event Event, payload Payload) (message, bool) {
	name := payloadString(payload, "candidateName")
	if name == "" {
		name = "there"
	}
	job := payloadString(payload, "jobTitle")
	if job == "" {
		job = "the position"
	}
	company := payloadString(payload, "companyName")
	at := job
	if company != "" {
		at = fmt.Sprintf("%s at %s", job, company)
	}

	msg := message{recipient: payloadString(payload, "email")}
	switch event {
	case EventApplicationReceived:
		msg.title = "Application received"
		msg.body = fmt.Sprintf("Hi %s, we received your application for %s.", name, at)
		msg.tags = []string{"hirepipe", "application", "received"}
	case EventStageProgression:
		next := payloadInt(payload, "nextStage")
		total := payloadInt(payload, "totalStages")
		msg.title = fmt.Sprintf("Moving to stage %d", next)
		msg.body = fmt.Sprintf("Hi %s, you have advanced to stage %d of %d for %s.", name, next, total, at)
		msg.tags = []string{"hirepipe", "stage", "progressed"}
	case EventRejection:
		stage := payloadInt(payload, "atStage")
		msg.title = "Application update"
		msg.body = fmt.Sprintf("Hi %s, thank you for interviewing for %s. After stage %d we will not be moving forward.", name, at, stage)
		msg.tags = []string{"hirepipe", "stage", "rejected"}
	case EventSelection:
		msg.title = "Congratulations"
		msg.body = fmt.Sprintf("Hi %s, you have been selected for %s.", name, at)
		msg.tags = []string{"hirepipe", "selected"}
		msg.priority = "high"
	case EventTest:
		msg.title = "hirepipe - Test"
		msg.body = "Notification relay test"
		msg.tags = []string{"hirepipe", "test"}
		msg.priority = "low"
	default:
		return message{}, false
	}
	return msg, true
}

func (r *relayService) send(ctx context.Context, msg message) error {
	if r.client == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for relay rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if msg.recipient != "" {
		req.Header.Set("Email", msg.recipient)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send relay notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func payloadInt(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
