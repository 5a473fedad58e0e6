package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hirepipe/internal/config"
	"hirepipe/internal/notifications"
	"hirepipe/internal/services"
)

func TestNewServiceReturnsNoopWhenRelayMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.RelayURL = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventSelection, notifications.Payload{"email": "a@x.com"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestRelayServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
		expectEmail    string
	}{
		{
			name:  "application received",
			event: notifications.EventApplicationReceived,
			payload: notifications.Payload{
				"email":         "ada@x.com",
				"candidateName": "Ada",
				"jobTitle":      "Engineer",
				"companyName":   "Acme",
			},
			expectTitle:   "Application received",
			expectMessage: "Hi Ada, we received your application for Engineer at Acme.",
			expectTags:    "hirepipe,application,received",
			expectEmail:   "ada@x.com",
		},
		{
			name:  "stage progression",
			event: notifications.EventStageProgression,
			payload: notifications.Payload{
				"email":       "ada@x.com",
				"jobTitle":    "Engineer",
				"nextStage":   2,
				"totalStages": 3,
			},
			expectTitle:   "Moving to stage 2",
			expectMessage: "Hi there, you have advanced to stage 2 of 3 for Engineer.",
			expectTags:    "hirepipe,stage,progressed",
			expectEmail:   "ada@x.com",
		},
		{
			name:  "rejection",
			event: notifications.EventRejection,
			payload: notifications.Payload{
				"email":         "bob@x.com",
				"candidateName": "Bob",
				"jobTitle":      "Engineer",
				"atStage":       1,
			},
			expectTitle:   "Application update",
			expectMessage: "Hi Bob, thank you for interviewing for Engineer. After stage 1 we will not be moving forward.",
			expectTags:    "hirepipe,stage,rejected",
			expectEmail:   "bob@x.com",
		},
		{
			name:  "selection",
			event: notifications.EventSelection,
			payload: notifications.Payload{
				"email":         "z@y.com",
				"candidateName": "Zed",
				"jobTitle":      "Engineer",
				"companyName":   "Acme",
			},
			expectTitle:    "Congratulations",
			expectMessage:  "Hi Zed, you have been selected for Engineer at Acme.",
			expectTags:     "hirepipe,selected",
			expectPriority: "high",
			expectEmail:    "z@y.com",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "hirepipe - Test",
			expectMessage:  "Notification relay test",
			expectTags:     "hirepipe,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				email    string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				captured.email = r.Header.Get("Email")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.RelayURL = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
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
			if captured.email != tc.expectEmail {
				t.Fatalf("expected email %q, got %q", tc.expectEmail, captured.email)
			}
		})
	}
}

func TestRelayServiceSkipsDisabledEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.RelayURL = server.URL
	cfg.Notifications.Rejection = false

	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventRejection, notifications.Payload{"email": "a@x.com"}); err != nil {
		t.Fatalf("expected no error for disabled event, got %v", err)
	}
	if err := svc.Publish(context.Background(), notifications.Event("unknown"), nil); err != nil {
		t.Fatalf("expected no error for unknown event, got %v", err)
	}
}

func TestRelayServiceMarksFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.RelayURL = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.Publish(context.Background(), notifications.EventSelection, notifications.Payload{"email": "a@x.com"})
	if !errors.Is(err, services.ErrNotification) {
		t.Fatalf("expected notification error, got %v", err)
	}

	err = svc.Publish(context.Background(), notifications.EventSelection, notifications.Payload{})
	if !errors.Is(err, services.ErrNotification) {
		t.Fatalf("expected notification error for missing recipient, got %v", err)
	}
}
