package testsupport

import (
	"context"
	"fmt"
	"testing"

	"hirepipe/internal/config"
	"hirepipe/internal/status"
	"hirepipe/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// SeedJob creates a recruiter for companyName and a job with totalStages.
func SeedJob(t testing.TB, s *store.Store, companyName string, totalStages int) *store.Job {
	t.Helper()

	ctx := context.Background()
	recruiter, err := s.CreateRecruiter(ctx, "Recruiter "+companyName, companyName)
	if err != nil {
		t.Fatalf("CreateRecruiter: %v", err)
	}
	job, err := s.CreateJob(ctx, recruiter.ID, fmt.Sprintf("%s opening", companyName), totalStages)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

// SeedApplication creates a candidate with email and applies them to the job.
func SeedApplication(t testing.TB, s *store.Store, jobID int64, email string) *store.Application {
	t.Helper()

	ctx := context.Background()
	candidate, err := s.CreateCandidate(ctx, "Candidate "+email, email)
	if err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	app, err := s.CreateApplication(ctx, jobID, candidate.ID)
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	return app
}

// AdvanceTo moves a fresh application to stage n without touching counters.
func AdvanceTo(t testing.TB, s *store.Store, app *store.Application, n int) *store.Application {
	t.Helper()

	updated, err := s.Transition(context.Background(), store.Transition{
		ApplicationID: app.ID,
		FromStage:     app.CurrentStage,
		To:            status.Stage(n),
	})
	if err != nil {
		t.Fatalf("Transition to stage %d: %v", n, err)
	}
	return updated
}
