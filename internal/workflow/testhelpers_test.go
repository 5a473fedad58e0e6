package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/store"
	"hirepipe/internal/testsupport"
	"hirepipe/internal/workflow"
)

type published struct {
	event   notifications.Event
	payload notifications.Payload
}

type stubNotifier struct {
	mu     sync.Mutex
	events []published
	failOn map[string]bool
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, published{event: event, payload: payload})
	if email, _ := payload["email"].(string); s.failOn[email] {
		return errors.New("relay unavailable")
	}
	return nil
}

func (s *stubNotifier) count(event notifications.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.events {
		if p.event == event {
			n++
		}
	}
	return n
}

type harness struct {
	store    *store.Store
	engine   *workflow.Engine
	notifier *stubNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	notifier := &stubNotifier{failOn: map[string]bool{}}
	engine := workflow.NewEngineWithNotifier(cfg, st, logging.NewNop(), notifier)
	return &harness{store: st, engine: engine, notifier: notifier}
}

func (h *harness) app(t *testing.T, id int64) *store.Application {
	t.Helper()
	app, err := h.store.GetApplication(context.Background(), id)
	if err != nil {
		t.Fatalf("GetApplication(%d): %v", id, err)
	}
	return app
}

func (h *harness) job(t *testing.T, id int64) *store.Job {
	t.Helper()
	job, err := h.store.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJob(%d): %v", id, err)
	}
	return job
}
