package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hirepipe/internal/services"
	"hirepipe/internal/status"
)

// CreateApplication records a new application at NEW/stage 1.
func (s *Store) CreateApplication(ctx context.Context, jobID, candidateID int64) (*Application, error) {
	ctx = ensureContext(ctx)
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	now := formatTime(s.timestamp())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO applications (job_id, candidate_id, status, current_stage, applied_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		jobID, candidateID, status.New.String(), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("application id: %w", err)
	}
	return s.GetApplication(ctx, id)
}

// ReceiveApplication records an inbound application. A candidate whose email
// matches case-insensitively is reused; otherwise a new one is created. The
// lookup and both inserts share one transaction, so a rejected application
// leaves no candidate behind. Applying twice to the same job is a conflict.
func (s *Store) ReceiveApplication(ctx context.Context, jobID int64, name, email string) (*Application, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	var appID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getJob(ctx, tx, jobID); err != nil {
			return err
		}
		now := formatTime(s.timestamp())
		candidateID, err := findOrCreateCandidate(ctx, tx, name, email, now)
		if err != nil {
			return err
		}

		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM applications WHERE job_id = ? AND candidate_id = ?`,
			jobID, candidateID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if existing > 0 {
			return services.Wrap(services.ErrConflict, "store", "receive application",
				fmt.Sprintf("%s already applied to job %d", email, jobID), nil)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO applications (job_id, candidate_id, status, current_stage, applied_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			jobID, candidateID, status.New.String(), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		appID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("application id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetApplication(ctx, appID)
}

// findOrCreateCandidate returns the oldest candidate with a matching email.
// A blank email never matches.
func findOrCreateCandidate(ctx context.Context, tx *sql.Tx, name, email, now string) (int64, error) {
	if email != "" {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM candidates WHERE lower(trim(email)) = ? ORDER BY id LIMIT 1`,
			strings.ToLower(email),
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("find candidate: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO candidates (name, email, created_at) VALUES (?, ?, ?)`,
		name, nullableString(email), now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert candidate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("candidate id: %w", err)
	}
	return id, nil
}

// GetApplication fetches an application with its candidate's identity.
func (s *Store) GetApplication(ctx context.Context, id int64) (*Application, error) {
	return getApplication(ensureContext(ctx), s.db, id)
}

func getApplication(ctx context.Context, q queryRower, id int64) (*Application, error) {
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM `+applicationFrom+` WHERE a.id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get application", fmt.Sprintf("application %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// ListByJob returns every application for the job ordered by id.
func (s *Store) ListByJob(ctx context.Context, jobID int64) ([]*Application, error) {
	return s.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM `+applicationFrom+` WHERE a.job_id = ? ORDER BY a.id`,
		jobID,
	)
}

// Cohort returns the non-terminal applications of a job sitting at stage.
func (s *Store) Cohort(ctx context.Context, jobID int64, stage int) ([]*Application, error) {
	return s.queryApplications(ctx,
		`SELECT `+applicationColumns+` FROM `+applicationFrom+`
		 WHERE a.job_id = ? AND a.current_stage = ? AND a.selected_at IS NULL
		   AND a.status NOT IN ('REJECTED', 'SELECTED')
		 ORDER BY a.id`,
		jobID, stage,
	)
}

func (s *Store) queryApplications(ctx context.Context, query string, args ...any) ([]*Application, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var apps []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

// UpdateNotes replaces an application's notes. Notes are cosmetic and may
// change on terminal applications.
func (s *Store) UpdateNotes(ctx context.Context, id int64, notes string) (*Application, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE applications SET notes = ?, updated_at = ? WHERE id = ?`,
		nullableString(notes), formatTime(s.timestamp()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, services.Wrap(services.ErrNotFound, "store", "update notes", fmt.Sprintf("application %d", id), nil)
	}
	return s.GetApplication(ctx, id)
}
