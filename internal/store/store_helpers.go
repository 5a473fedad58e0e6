package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hirepipe/internal/status"
)

const applicationColumns = "a.id, a.job_id, a.candidate_id, COALESCE(c.name, ''), c.email, a.status, a.current_stage, a.notes, a.selected_at, a.applied_at, a.updated_at"

const applicationFrom = "applications a JOIN candidates c ON c.id = a.candidate_id"

const jobColumns = "j.id, j.recruiter_id, r.company_name, j.title, j.total_stages, j.selected_count, j.created_at, j.updated_at"

const jobFrom = "jobs j JOIN recruiters r ON r.id = j.recruiter_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(scanner rowScanner) (*Application, error) {
	var (
		app        Application
		email      sql.NullString
		statusRaw  string
		notes      sql.NullString
		selectedAt sql.NullString
		appliedAt  sql.NullString
		updatedAt  sql.NullString
	)
	if err := scanner.Scan(
		&app.ID,
		&app.JobID,
		&app.CandidateID,
		&app.CandidateName,
		&email,
		&statusRaw,
		&app.CurrentStage,
		&notes,
		&selectedAt,
		&appliedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	parsed, err := status.Parse(statusRaw)
	if err != nil {
		return nil, fmt.Errorf("application %d: %w", app.ID, err)
	}
	app.Status = parsed
	app.CandidateEmail = email.String
	app.Notes = notes.String
	if selectedAt.Valid {
		if ts, err := parseTimeString(selectedAt.String); err == nil {
			app.SelectedAt = &ts
		}
	}
	if ts, err := parseTimeString(appliedAt.String); err == nil {
		app.AppliedAt = ts
	}
	if ts, err := parseTimeString(updatedAt.String); err == nil {
		app.UpdatedAt = ts
	}
	return &app, nil
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job       Job
		createdAt sql.NullString
		updatedAt sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.RecruiterID,
		&job.CompanyName,
		&job.Title,
		&job.TotalStages,
		&job.SelectedCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if ts, err := parseTimeString(createdAt.String); err == nil {
		job.CreatedAt = ts
	}
	if ts, err := parseTimeString(updatedAt.String); err == nil {
		job.UpdatedAt = ts
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
