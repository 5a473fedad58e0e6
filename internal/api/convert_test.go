package api_test

import (
	"testing"
	"time"

	"hirepipe/internal/api"
	"hirepipe/internal/status"
	"hirepipe/internal/store"
	"hirepipe/internal/workflow"
)

func TestFromApplicationFormatsStatusAndTimes(t *testing.T) {
	selected := time.Date(2025, time.May, 1, 12, 30, 0, 0, time.UTC)
	dto := api.FromApplication(&store.Application{
		ID:             4,
		JobID:          2,
		CandidateID:    9,
		CandidateEmail: "a@x.com",
		Status:         status.Selected,
		CurrentStage:   3,
		SelectedAt:     &selected,
		AppliedAt:      selected.Add(-48 * time.Hour),
	})
	if dto.Status != "SELECTED" || dto.CurrentStage != 3 {
		t.Fatalf("unexpected dto: %#v", dto)
	}
	if dto.SelectedAt != "2025-05-01T12:30:00.000Z" {
		t.Fatalf("unexpected selectedAt %q", dto.SelectedAt)
	}
	if dto.UpdatedAt != "" {
		t.Fatalf("zero time should be omitted, got %q", dto.UpdatedAt)
	}

	inFlight := api.FromApplication(&store.Application{Status: status.Stage(2), CurrentStage: 2})
	if inFlight.Status != "STAGE_2" || inFlight.SelectedAt != "" {
		t.Fatalf("unexpected in-flight dto: %#v", inFlight)
	}
}

func TestFromBatchResultCopiesErrors(t *testing.T) {
	resp := api.FromBatchResult(&workflow.BatchResult{
		TotalProcessed: 3,
		Progressed:     1,
		Rejected:       2,
		Errors: []workflow.BatchError{
			{ApplicationID: 7, CandidateEmail: "b@x.com", Kind: "notification", Message: "relay down"},
		},
		Unmatched: []string{"ghost@x.com"},
	}, 1)
	if resp.TotalProcessed != 3 || resp.Progressed != 1 || resp.Rejected != 2 || resp.SkippedRows != 1 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].ApplicationID != 7 || resp.Errors[0].Kind != "notification" {
		t.Fatalf("unexpected errors: %#v", resp.Errors)
	}
	if len(resp.Unmatched) != 1 {
		t.Fatalf("unexpected unmatched: %#v", resp.Unmatched)
	}
}

func TestFromStageCountsHandlesNil(t *testing.T) {
	summary := api.FromStageCounts(5, nil)
	if summary.JobID != 5 || summary.StageBreakdown == nil {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
