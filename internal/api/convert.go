package api

import (
	"time"

	"hirepipe/internal/store"
	"hirepipe/internal/workflow"
)

// FromApplication converts a store application to its DTO.
func FromApplication(app *store.Application) Application {
	if app == nil {
		return Application{}
	}
	dto := Application{
		ID:             app.ID,
		JobID:          app.JobID,
		CandidateID:    app.CandidateID,
		CandidateName:  app.CandidateName,
		CandidateEmail: app.CandidateEmail,
		Status:         app.Status.String(),
		CurrentStage:   app.CurrentStage,
		Notes:          app.Notes,
		AppliedAt:      formatTime(app.AppliedAt),
		UpdatedAt:      formatTime(app.UpdatedAt),
	}
	if app.SelectedAt != nil {
		dto.SelectedAt = formatTime(*app.SelectedAt)
	}
	return dto
}

// FromApplications converts a slice of applications, preserving order.
func FromApplications(apps []*store.Application) []Application {
	out := make([]Application, 0, len(apps))
	for _, app := range apps {
		out = append(out, FromApplication(app))
	}
	return out
}

// FromJob converts a store job to its DTO.
func FromJob(job *store.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:            job.ID,
		RecruiterID:   job.RecruiterID,
		CompanyName:   job.CompanyName,
		Title:         job.Title,
		TotalStages:   job.TotalStages,
		SelectedCount: job.SelectedCount,
		UpdatedAt:     formatTime(job.UpdatedAt),
	}
}

// FromStageCounts converts store stage counts into a StageSummary.
func FromStageCounts(jobID int64, counts *store.StageCounts) StageSummary {
	summary := StageSummary{JobID: jobID, StageBreakdown: map[int]int{}}
	if counts == nil {
		return summary
	}
	summary.TotalStages = counts.TotalStages
	summary.RejectedCount = counts.RejectedCount
	summary.SelectedCount = counts.SelectedCount
	summary.TotalApplications = counts.TotalApplications
	for stage, count := range counts.Breakdown {
		summary.StageBreakdown[stage] = count
	}
	return summary
}

// FromBatchResult converts an engine batch result into an upload response.
func FromBatchResult(result *workflow.BatchResult, skippedRows int) UploadResponse {
	resp := UploadResponse{SkippedRows: skippedRows}
	if result == nil {
		return resp
	}
	resp.TotalProcessed = result.TotalProcessed
	resp.Progressed = result.Progressed
	resp.Selected = result.Selected
	resp.Rejected = result.Rejected
	resp.Unmatched = append(resp.Unmatched, result.Unmatched...)
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, UploadError{
			ApplicationID:  e.ApplicationID,
			CandidateEmail: e.CandidateEmail,
			Kind:           e.Kind,
			Message:        e.Message,
		})
	}
	return resp
}

// FromDrift converts store drift rows.
func FromDrift(rows []store.Drift) []Drift {
	out := make([]Drift, 0, len(rows))
	for _, d := range rows {
		out = append(out, Drift{Counter: d.Counter, Key: d.Key, Stored: d.Stored, Computed: d.Computed})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
