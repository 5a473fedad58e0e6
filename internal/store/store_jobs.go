package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hirepipe/internal/services"
)

// MaxTotalStages is the hard upper bound on a job's stage count.
const MaxTotalStages = 10

// CreateRecruiter inserts a recruiter owning jobs for companyName.
func (s *Store) CreateRecruiter(ctx context.Context, name, companyName string) (*Recruiter, error) {
	name = strings.TrimSpace(name)
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "create recruiter", "company name is required", nil)
	}
	now := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO recruiters (name, company_name, created_at) VALUES (?, ?, ?)`,
		name, companyName, formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recruiter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("recruiter id: %w", err)
	}
	return &Recruiter{ID: id, Name: name, CompanyName: companyName, CreatedAt: now}, nil
}

// CreateCandidate inserts a candidate. Email may be empty; such candidates never match a pass-list.
func (s *Store) CreateCandidate(ctx context.Context, name, email string) (*Candidate, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	now := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO candidates (name, email, created_at) VALUES (?, ?, ?)`,
		name, nullableString(email), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("candidate id: %w", err)
	}
	return &Candidate{ID: id, Name: name, Email: email, CreatedAt: now}, nil
}

// CreateJob inserts a job owned by recruiterID.
func (s *Store) CreateJob(ctx context.Context, recruiterID int64, title string, totalStages int) (*Job, error) {
	if totalStages < 1 || totalStages > MaxTotalStages {
		return nil, services.Wrap(services.ErrValidation, "store", "create job",
			fmt.Sprintf("total stages must be between 1 and %d, got %d", MaxTotalStages, totalStages), nil)
	}
	now := formatTime(s.timestamp())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (recruiter_id, title, total_stages, selected_count, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		recruiterID, strings.TrimSpace(title), totalStages, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	return s.GetJob(ctx, id)
}

// GetJob fetches a job with its owning recruiter's company.
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	return getJob(ensureContext(ctx), s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getJob(ctx context.Context, q queryRower, id int64) (*Job, error) {
	row := q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM `+jobFrom+` WHERE j.id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get job", fmt.Sprintf("job %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns every job ordered by id.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM `+jobFrom+` ORDER BY j.id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetTotalStages changes a job's stage count. The new bound may not fall below
// the current stage of any of the job's applications.
func (s *Store) SetTotalStages(ctx context.Context, jobID int64, totalStages int) (*Job, error) {
	if totalStages < 1 || totalStages > MaxTotalStages {
		return nil, services.Wrap(services.ErrValidation, "store", "set total stages",
			fmt.Sprintf("total stages must be between 1 and %d, got %d", MaxTotalStages, totalStages), nil)
	}
	ctx = ensureContext(ctx)
	var updated *Job
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getJob(ctx, tx, jobID); err != nil {
			return err
		}
		var highest sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(current_stage) FROM applications WHERE job_id = ?`, jobID,
		).Scan(&highest); err != nil {
			return fmt.Errorf("max current stage: %w", err)
		}
		if highest.Valid && int64(totalStages) < highest.Int64 {
			return services.Wrap(services.ErrValidation, "store", "set total stages",
				fmt.Sprintf("total stages %d is below current stage %d of an existing application", totalStages, highest.Int64), nil)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET total_stages = ?, updated_at = ? WHERE id = ?`,
			totalStages, formatTime(s.timestamp()), jobID,
		); err != nil {
			return fmt.Errorf("update total stages: %w", err)
		}
		job, err := getJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// StageCounts partitions a job's applications for the stage summary.
// Terminal applications count only toward their outcome, never a stage bucket.
func (s *Store) StageCounts(ctx context.Context, jobID int64) (*StageCounts, error) {
	ctx = ensureContext(ctx)
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, current_stage, COUNT(*) FROM applications WHERE job_id = ? GROUP BY status, current_stage`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("stage counts: %w", err)
	}
	defer rows.Close()

	counts := &StageCounts{TotalStages: job.TotalStages, Breakdown: make(map[int]int, job.TotalStages)}
	for stage := 1; stage <= job.TotalStages; stage++ {
		counts.Breakdown[stage] = 0
	}
	for rows.Next() {
		var (
			statusRaw string
			stage     int
			count     int
		)
		if err := rows.Scan(&statusRaw, &stage, &count); err != nil {
			return nil, fmt.Errorf("scan stage count: %w", err)
		}
		counts.TotalApplications += count
		switch statusRaw {
		case "REJECTED":
			counts.RejectedCount += count
		case "SELECTED":
			counts.SelectedCount += count
		default:
			counts.Breakdown[stage] += count
		}
	}
	return counts, rows.Err()
}
