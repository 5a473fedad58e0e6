package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hirepipe/internal/notifications"
	"hirepipe/internal/passlist"
	"hirepipe/internal/services"
	"hirepipe/internal/status"
	"hirepipe/internal/testsupport"
	"hirepipe/internal/workflow"
)

var admin = workflow.Actor{ID: 1, Role: workflow.RoleAdmin}

func statusPtr(s status.Status) *status.Status { return &s }

func TestAdvanceProgressesMatchesAndRejectsOthers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	a := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")
	b := testsupport.SeedApplication(t, h.store, job.ID, "b@x.com")
	c := testsupport.SeedApplication(t, h.store, job.ID, "c@x.com")

	result, err := h.engine.Advance(ctx, job.ID, 1, passlist.NewSet(" A@X.COM ", "ghost@x.com"))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.TotalProcessed != 3 || result.Progressed != 1 || result.Rejected != 2 || result.Selected != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %#v", result.Errors)
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "ghost@x.com" {
		t.Fatalf("unexpected unmatched: %#v", result.Unmatched)
	}

	if got := h.app(t, a.ID); got.Status != status.Stage(2) || got.CurrentStage != 2 {
		t.Fatalf("a: expected STAGE_2 at 2, got %s at %d", got.Status, got.CurrentStage)
	}
	for _, id := range []int64{b.ID, c.ID} {
		if got := h.app(t, id); got.Status != status.Rejected || got.CurrentStage != 1 {
			t.Fatalf("application %d: expected REJECTED at 1, got %s at %d", id, got.Status, got.CurrentStage)
		}
	}
	if h.job(t, job.ID).SelectedCount != 0 {
		t.Fatal("selected count must be unchanged")
	}
	if h.notifier.count(notifications.EventStageProgression) != 1 || h.notifier.count(notifications.EventRejection) != 2 {
		t.Fatalf("unexpected notifications: %#v", h.notifier.events)
	}
}

func TestAdvanceSelectsAtFinalStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 1)
	z := testsupport.SeedApplication(t, h.store, job.ID, "z@y.com")
	year := time.Now().UTC().Year()

	result, err := h.engine.Advance(ctx, job.ID, 1, passlist.NewSet("z@y.com"))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.Progressed != 1 || result.Selected != 1 || result.Rejected != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
	got := h.app(t, z.ID)
	if got.Status != status.Selected || got.SelectedAt == nil || got.CurrentStage != 1 {
		t.Fatalf("expected SELECTED with selected_at, got %#v", got)
	}
	if h.job(t, job.ID).SelectedCount != 1 {
		t.Fatal("expected selected count 1")
	}
	yearly, err := h.store.YearlyPlacement(ctx, year)
	if err != nil || yearly.TotalPlaced != 1 {
		t.Fatalf("yearly placement = %#v, err %v", yearly, err)
	}
	company, err := h.store.CompanyPlacement(ctx, "Acme", year)
	if err != nil || company.PlacedCount != 1 {
		t.Fatalf("company placement = %#v, err %v", company, err)
	}
	if h.notifier.count(notifications.EventSelection) != 1 {
		t.Fatalf("expected one selection notification, got %#v", h.notifier.events)
	}
}

func TestAdvanceValidationFailsBeforeMutation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	app := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")

	cases := []struct {
		name   string
		jobID  int64
		stage  int
		set    passlist.Set
		marker error
	}{
		{name: "stage beyond job", jobID: job.ID, stage: 3, set: passlist.NewSet("a@x.com"), marker: services.ErrValidation},
		{name: "stage zero", jobID: job.ID, stage: 0, set: passlist.NewSet("a@x.com"), marker: services.ErrValidation},
		{name: "empty pass-list", jobID: job.ID, stage: 1, set: passlist.NewSet(), marker: services.ErrValidation},
		{name: "nil pass-list", jobID: job.ID, stage: 1, set: nil, marker: services.ErrValidation},
		{name: "missing job", jobID: 404, stage: 1, set: passlist.NewSet("a@x.com"), marker: services.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.engine.Advance(ctx, tc.jobID, tc.stage, tc.set); !errors.Is(err, tc.marker) {
				t.Fatalf("Advance error = %v, want %v", err, tc.marker)
			}
		})
	}

	got := h.app(t, app.ID)
	if got.Status != status.New || got.CurrentStage != 1 {
		t.Fatalf("application mutated: %s at %d", got.Status, got.CurrentStage)
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("unexpected notifications: %#v", h.notifier.events)
	}
}

func TestAdvanceIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 3)
	testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")
	testsupport.SeedApplication(t, h.store, job.ID, "b@x.com")
	set := passlist.NewSet("a@x.com")

	if _, err := h.engine.Advance(ctx, job.ID, 1, set); err != nil {
		t.Fatalf("first Advance: %v", err)
	}
	again, err := h.engine.Advance(ctx, job.ID, 1, set)
	if err != nil {
		t.Fatalf("second Advance: %v", err)
	}
	if again.TotalProcessed != 0 || again.Progressed != 0 || again.Rejected != 0 {
		t.Fatalf("expected empty second run, got %#v", again)
	}
}

func TestAdvanceRecordsNotificationFailuresWithoutRollback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	a := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")
	b := testsupport.SeedApplication(t, h.store, job.ID, "b@x.com")
	h.notifier.failOn["b@x.com"] = true

	result, err := h.engine.Advance(ctx, job.ID, 1, passlist.NewSet("a@x.com"))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.Progressed != 1 || result.Rejected != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %#v", result.Errors)
	}
	entry := result.Errors[0]
	if entry.ApplicationID != b.ID || entry.Kind != "notification" || entry.CandidateEmail != "b@x.com" {
		t.Fatalf("unexpected error entry: %#v", entry)
	}
	if got := h.app(t, b.ID); got.Status != status.Rejected {
		t.Fatalf("rejection must stay committed, got %s", got.Status)
	}
	if got := h.app(t, a.ID); got.Status != status.Stage(2) {
		t.Fatalf("progression must be committed, got %s", got.Status)
	}
}

func TestAdvanceSkipsCandidatesWithoutEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	anon := testsupport.SeedApplication(t, h.store, job.ID, "")
	testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")

	result, err := h.engine.Advance(ctx, job.ID, 1, passlist.NewSet("a@x.com"))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if result.Progressed != 1 || result.Rejected != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if got := h.app(t, anon.ID); got.Status != status.Rejected {
		t.Fatalf("candidate without email should be rejected, got %s", got.Status)
	}
}

func TestSetStatusSelectedTwiceCountsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 3)
	app := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")

	for i := 0; i < 2; i++ {
		updated, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{Status: statusPtr(status.Selected)}, admin)
		if err != nil {
			t.Fatalf("SetStatus #%d: %v", i+1, err)
		}
		if updated.Status != status.Selected || updated.CurrentStage != 3 {
			t.Fatalf("expected SELECTED at 3, got %s at %d", updated.Status, updated.CurrentStage)
		}
	}
	if h.job(t, job.ID).SelectedCount != 1 {
		t.Fatal("expected selected count 1")
	}
	yearly, err := h.store.YearlyPlacement(ctx, time.Now().UTC().Year())
	if err != nil || yearly.TotalPlaced != 1 {
		t.Fatalf("yearly placement = %#v, err %v", yearly, err)
	}
	if h.notifier.count(notifications.EventSelection) != 1 {
		t.Fatalf("expected one selection notification, got %d", h.notifier.count(notifications.EventSelection))
	}
}

func TestConcurrentManualSelectionCountsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	app := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{Status: statusPtr(status.Selected)}, admin); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("SetStatus: %v", err)
	}

	drift, err := h.store.PlacementDrift(ctx)
	if err != nil {
		t.Fatalf("PlacementDrift: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("expected consistent counters, got %#v", drift)
	}
	if h.job(t, job.ID).SelectedCount != 1 {
		t.Fatal("expected selected count 1")
	}
}

func TestSetStatusTerminalRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	rejected := testsupport.SeedApplication(t, h.store, job.ID, "r@x.com")
	if _, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Rejected)}, admin); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Selected)}, admin); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("selecting rejected application error = %v, want ErrValidation", err)
	}
	if _, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Stage(2))}, admin); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("moving rejected application error = %v, want ErrValidation", err)
	}

	notes := "strong candidate, revisit next cycle"
	updated, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Rejected), Notes: &notes}, admin)
	if err != nil {
		t.Fatalf("notes on terminal application: %v", err)
	}
	if updated.Notes != notes || updated.Status != status.Rejected {
		t.Fatalf("unexpected application: %#v", updated)
	}
	if h.job(t, job.ID).SelectedCount != 0 {
		t.Fatal("selected count must stay zero")
	}
}

func TestSetStatusWritesNotesWithStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	notes := "  panel agreed  "

	tests := []struct {
		name   string
		target status.Status
	}{
		{name: "stage move", target: status.Stage(2)},
		{name: "rejection", target: status.Rejected},
		{name: "selection", target: status.Selected},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := testsupport.SeedApplication(t, h.store, job.ID, fmt.Sprintf("n%d@x.com", i))
			updated, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{Status: statusPtr(tc.target), Notes: &notes}, admin)
			if err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
			if updated.Status != tc.target || updated.Notes != "panel agreed" {
				t.Fatalf("expected %s with trimmed notes, got %s %q", tc.target, updated.Status, updated.Notes)
			}
		})
	}

	rejected := testsupport.SeedApplication(t, h.store, job.ID, "late@x.com")
	if _, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Rejected)}, admin); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := h.engine.SetStatus(ctx, rejected.ID, workflow.Update{Status: statusPtr(status.Selected), Notes: &notes}, admin); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("selecting rejected application error = %v, want ErrValidation", err)
	}
	if got := h.app(t, rejected.ID).Notes; got != "" {
		t.Fatalf("refused update must not write notes, got %q", got)
	}
	if h.job(t, job.ID).SelectedCount != 1 {
		t.Fatal("expected selected count 1")
	}
}

func TestSetStatusManualMoves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 3)
	app := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")

	steps := []struct {
		to        status.Status
		wantStage int
	}{
		{to: status.Reviewed, wantStage: 1},
		{to: status.Shortlisted, wantStage: 1},
		{to: status.Stage(3), wantStage: 3},
		{to: status.Stage(2), wantStage: 2},
	}
	for _, step := range steps {
		updated, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{Status: statusPtr(step.to)}, admin)
		if err != nil {
			t.Fatalf("SetStatus(%s): %v", step.to, err)
		}
		if updated.Status != step.to || updated.CurrentStage != step.wantStage {
			t.Fatalf("expected %s at %d, got %s at %d", step.to, step.wantStage, updated.Status, updated.CurrentStage)
		}
	}
	if _, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{Status: statusPtr(status.Stage(4))}, admin); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("stage beyond job error = %v, want ErrValidation", err)
	}
	if got := h.notifier.count(notifications.EventStageProgression); got != 1 {
		t.Fatalf("expected one progression notification, got %d", got)
	}
}

func TestSetStatusAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)
	app := testsupport.SeedApplication(t, h.store, job.ID, "a@x.com")
	update := workflow.Update{Status: statusPtr(status.Reviewed)}

	stranger := workflow.Actor{ID: job.RecruiterID + 100, Role: workflow.RoleRecruiter}
	if _, err := h.engine.SetStatus(ctx, app.ID, update, stranger); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("stranger error = %v, want ErrForbidden", err)
	}
	owner := workflow.Actor{ID: job.RecruiterID, Role: workflow.RoleRecruiter}
	if _, err := h.engine.SetStatus(ctx, app.ID, update, owner); err != nil {
		t.Fatalf("owner SetStatus: %v", err)
	}
	if _, err := h.engine.SetStatus(ctx, 999, update, admin); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing application error = %v, want ErrNotFound", err)
	}
	if _, err := h.engine.SetStatus(ctx, app.ID, workflow.Update{}, admin); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("empty update error = %v, want ErrValidation", err)
	}
}

func TestSetTotalStagesRespectsConfiguredMaximum(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)

	if _, err := h.engine.SetTotalStages(ctx, job.ID, 11); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	updated, err := h.engine.SetTotalStages(ctx, job.ID, 5)
	if err != nil {
		t.Fatalf("SetTotalStages: %v", err)
	}
	if updated.TotalStages != 5 {
		t.Fatalf("expected 5 stages, got %d", updated.TotalStages)
	}
}

func TestReceiveRecordsApplicationAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := testsupport.SeedJob(t, h.store, "Acme", 2)

	app, err := h.engine.Receive(ctx, job.ID, "Ada", "ada@x.com")
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if app.Status != status.New || app.CurrentStage != 1 {
		t.Fatalf("expected NEW at 1, got %s at %d", app.Status, app.CurrentStage)
	}
	if h.notifier.count(notifications.EventApplicationReceived) != 1 {
		t.Fatalf("expected received notification, got %#v", h.notifier.events)
	}
	if _, err := h.engine.Receive(ctx, 404, "Nobody", "n@x.com"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("missing job error = %v, want ErrNotFound", err)
	}
	if _, err := h.engine.Receive(ctx, job.ID, "Ada", "ADA@x.com"); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate application error = %v, want ErrConflict", err)
	}
	if h.notifier.count(notifications.EventApplicationReceived) != 1 {
		t.Fatalf("duplicate must not notify, got %#v", h.notifier.events)
	}

	other := testsupport.SeedJob(t, h.store, "Globex", 1)
	again, err := h.engine.Receive(ctx, other.ID, "Ada", "ada@x.com")
	if err != nil {
		t.Fatalf("Receive other job: %v", err)
	}
	if again.CandidateID != app.CandidateID {
		t.Fatalf("expected candidate %d reused, got %d", app.CandidateID, again.CandidateID)
	}
}

func TestLedgerMatchesSelectionsAcrossPaths(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acme := testsupport.SeedJob(t, h.store, "Acme", 1)
	globex := testsupport.SeedJob(t, h.store, "Globex", 2)

	testsupport.SeedApplication(t, h.store, acme.ID, "a@x.com")
	testsupport.SeedApplication(t, h.store, acme.ID, "b@x.com")
	manual := testsupport.SeedApplication(t, h.store, globex.ID, "c@x.com")

	if _, err := h.engine.Advance(ctx, acme.ID, 1, passlist.NewSet("a@x.com", "b@x.com")); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := h.engine.SetStatus(ctx, manual.ID, workflow.Update{Status: statusPtr(status.Selected)}, admin); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	yearly, err := h.store.YearlyPlacement(ctx, time.Now().UTC().Year())
	if err != nil {
		t.Fatalf("YearlyPlacement: %v", err)
	}
	if yearly.TotalPlaced != 3 {
		t.Fatalf("yearly total = %d, want 3", yearly.TotalPlaced)
	}
	drift, err := h.store.PlacementDrift(ctx)
	if err != nil {
		t.Fatalf("PlacementDrift: %v", err)
	}
	if len(drift) != 0 {
		t.Fatalf("unexpected drift %#v", drift)
	}
	if got := h.app(t, manual.ID); got.CurrentStage != globex.TotalStages {
		t.Fatalf("selected application should sit at the final stage, got %d", got.CurrentStage)
	}
}

func TestConcurrentAdvanceOnSameCohort(t *testing.T) {
	const cohort, passing = 30, 20
	sawStale := false

	for round := 0; round < 5; round++ {
		h := newHarness(t)
		ctx := context.Background()
		job := testsupport.SeedJob(t, h.store, "Acme", 1)

		emails := make([]string, 0, passing)
		for i := 0; i < cohort; i++ {
			email := fmt.Sprintf("c%02d@x.com", i)
			testsupport.SeedApplication(t, h.store, job.ID, email)
			if i < passing {
				emails = append(emails, email)
			}
		}
		set := passlist.NewSet(emails...)

		var wg sync.WaitGroup
		results := make([]workflow.BatchResult, 2)
		errs := make([]error, 2)
		start := make(chan struct{})
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				res, err := h.engine.Advance(ctx, job.ID, 1, set)
				if res != nil {
					results[i] = *res
				}
				errs[i] = err
			}(i)
		}
		close(start)
		wg.Wait()

		var processed, progressed, selected, rejected, stale int
		for i, res := range results {
			if errs[i] != nil {
				t.Fatalf("round %d: Advance: %v", round, errs[i])
			}
			processed += res.TotalProcessed
			progressed += res.Progressed
			selected += res.Selected
			rejected += res.Rejected
			for _, be := range res.Errors {
				if be.Kind != "stale" {
					t.Fatalf("round %d: expected stale error, got %#v", round, be)
				}
				stale++
			}
		}

		if progressed+rejected != cohort {
			t.Fatalf("round %d: progressed %d + rejected %d != %d", round, progressed, rejected, cohort)
		}
		if selected != passing || progressed != passing {
			t.Fatalf("round %d: selected %d progressed %d, want %d", round, selected, progressed, passing)
		}
		if stale != processed-cohort {
			t.Fatalf("round %d: stale %d, want %d", round, stale, processed-cohort)
		}
		if got := h.job(t, job.ID).SelectedCount; got != passing {
			t.Fatalf("round %d: selected count %d, want %d", round, got, passing)
		}
		drift, err := h.store.PlacementDrift(ctx)
		if err != nil {
			t.Fatalf("PlacementDrift: %v", err)
		}
		if len(drift) != 0 {
			t.Fatalf("round %d: expected consistent counters, got %#v", round, drift)
		}
		if stale > 0 {
			sawStale = true
			break
		}
	}
	if !sawStale {
		t.Fatal("expected overlapping batches to report stale entries")
	}
}
