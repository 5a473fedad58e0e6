package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hirepipe/internal/api"
	"hirepipe/internal/services"
	"hirepipe/internal/status"
	"hirepipe/internal/store"
	"hirepipe/internal/testsupport"
)

func TestStageServiceSummary(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := testsupport.SeedJob(t, st, "Acme", 2)
	testsupport.SeedApplication(t, st, job.ID, "a@x.com")
	testsupport.AdvanceTo(t, st, testsupport.SeedApplication(t, st, job.ID, "b@x.com"), 2)
	rejected := testsupport.SeedApplication(t, st, job.ID, "c@x.com")
	if _, err := st.Transition(ctx, store.Transition{ApplicationID: rejected.ID, FromStage: 1, To: status.Rejected}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	svc := api.NewStageService(st)
	summary, err := svc.Summary(ctx, job.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalStages != 2 || summary.TotalApplications != 3 || summary.RejectedCount != 1 || summary.SelectedCount != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if summary.StageBreakdown[1] != 1 || summary.StageBreakdown[2] != 1 {
		t.Fatalf("unexpected breakdown: %#v", summary.StageBreakdown)
	}

	if _, err := svc.Summary(ctx, 404); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing job error = %v, want ErrNotFound", err)
	}
}

func TestStageServicePlacements(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	st.SetClock(func() time.Time { return time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC) })
	job := testsupport.SeedJob(t, st, "Acme", 1)
	app := testsupport.SeedApplication(t, st, job.ID, "a@x.com")
	if _, err := st.Select(ctx, app.ID, 0); err != nil {
		t.Fatalf("Select: %v", err)
	}

	svc := api.NewStageService(st)
	report, err := svc.Placements(ctx, 2023)
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	if report.TotalPlaced != 1 || len(report.Companies) != 1 || report.Companies[0].CompanyName != "Acme" {
		t.Fatalf("unexpected report: %#v", report)
	}

	empty, err := svc.Placements(ctx, 1999)
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	if empty.TotalPlaced != 0 || len(empty.Companies) != 0 {
		t.Fatalf("expected empty report, got %#v", empty)
	}

	apps, err := svc.Applications(ctx, job.ID)
	if err != nil {
		t.Fatalf("Applications: %v", err)
	}
	if len(apps) != 1 || apps[0].Status != "SELECTED" {
		t.Fatalf("unexpected applications: %#v", apps)
	}
}
